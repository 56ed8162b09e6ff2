package detectors

// Thresholds collects the numeric knobs across all detectors. Values were
// tuned on production journals; treat changes as product decisions.
type Thresholds struct {
	// Arc shift
	Novelty         float64 `yaml:"novelty"`
	TopicShift      float64 `yaml:"topic_shift"`
	EmotionCluster  int     `yaml:"emotion_cluster"`
	MajorEventVotes int     `yaml:"major_event_votes"`

	// Abandoned goals
	StaleGoalDays int `yaml:"stale_goal_days"`

	// Thematic drift
	TopTermDelta float64 `yaml:"top_term_delta"`
	ClusterShift float64 `yaml:"cluster_shift"`

	// Identity drift keeps its own centroid threshold rather than borrowing
	// the arc-shift numbers.
	IdentityClusterShift float64 `yaml:"identity_cluster_shift"`
}

// Merged returns a copy of t with every zero knob replaced by its default.
func (t Thresholds) Merged() Thresholds {
	defaults := DefaultThresholds()
	if t.Novelty == 0 {
		t.Novelty = defaults.Novelty
	}
	if t.TopicShift == 0 {
		t.TopicShift = defaults.TopicShift
	}
	if t.EmotionCluster == 0 {
		t.EmotionCluster = defaults.EmotionCluster
	}
	if t.MajorEventVotes == 0 {
		t.MajorEventVotes = defaults.MajorEventVotes
	}
	if t.StaleGoalDays == 0 {
		t.StaleGoalDays = defaults.StaleGoalDays
	}
	if t.TopTermDelta == 0 {
		t.TopTermDelta = defaults.TopTermDelta
	}
	if t.ClusterShift == 0 {
		t.ClusterShift = defaults.ClusterShift
	}
	if t.IdentityClusterShift == 0 {
		t.IdentityClusterShift = defaults.IdentityClusterShift
	}
	return t
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Novelty:              0.55,
		TopicShift:           0.4,
		EmotionCluster:       3,
		MajorEventVotes:      2,
		StaleGoalDays:        30,
		TopTermDelta:         0.2,
		ClusterShift:         0.6,
		IdentityClusterShift: 0.5,
	}
}

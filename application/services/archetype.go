package services

import "math"

// ArchetypeInputs are the per-character aggregates the cascade reads.
type ArchetypeInputs struct {
	Centrality      float64
	AvgSentiment    float64
	ConflictScore   int
	EmotionalImpact float64
}

// ArchetypeRule is one branch of the classification cascade: an independently
// testable predicate plus the label and reason it assigns.
type ArchetypeRule struct {
	Label     string
	Reason    string
	Predicate func(in ArchetypeInputs) bool
}

// DefaultArchetypeRules returns the cascade in priority order. Classification
// takes the first matching rule; the trailing Supporting rule always matches,
// so every character gets a label.
func DefaultArchetypeRules() []ArchetypeRule {
	return []ArchetypeRule{
		{
			Label:  "Protector",
			Reason: "highly central with consistently positive sentiment",
			Predicate: func(in ArchetypeInputs) bool {
				return in.Centrality > 0.7 && in.AvgSentiment > 0.3
			},
		},
		{
			Label:  "Antagonist",
			Reason: "frequent conflict or strongly negative high-impact presence",
			Predicate: func(in ArchetypeInputs) bool {
				return in.ConflictScore > 5 || (in.AvgSentiment < -0.3 && in.EmotionalImpact > 10)
			},
		},
		{
			Label:  "Chaotic",
			Reason: "central but emotionally polarizing",
			Predicate: func(in ArchetypeInputs) bool {
				return in.Centrality > 0.5 && math.Abs(in.AvgSentiment) > 0.4
			},
		},
		{
			Label:  "Important",
			Reason: "high emotional impact with positive sentiment",
			Predicate: func(in ArchetypeInputs) bool {
				return in.EmotionalImpact > 15 && in.AvgSentiment > 0.2
			},
		},
		{
			Label:  "Peripheral",
			Reason: "low impact and near-neutral sentiment",
			Predicate: func(in ArchetypeInputs) bool {
				return in.EmotionalImpact < 5 && math.Abs(in.AvgSentiment) < 0.2
			},
		},
		{
			Label:     "Supporting",
			Reason:    "steady presence without a dominant pattern",
			Predicate: func(in ArchetypeInputs) bool { return true },
		},
	}
}

// ClassifyArchetype walks the cascade and returns the first matching rule's
// label and reason.
func ClassifyArchetype(rules []ArchetypeRule, in ArchetypeInputs) (string, string) {
	for _, rule := range rules {
		if rule.Predicate(in) {
			return rule.Label, rule.Reason
		}
	}
	// The default rule always matches; this is unreachable with the stock
	// cascade but keeps custom rule lists safe.
	return "Supporting", "steady presence without a dominant pattern"
}

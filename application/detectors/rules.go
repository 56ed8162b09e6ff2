package detectors

import "strings"

// KeywordRule is one declarative pattern rule: a label, the substrings that
// vote for it, and the severity an event carries when it fires. Keeping rules
// as data separates tuning from detector control flow.
type KeywordRule struct {
	Label    string   `yaml:"label" validate:"required"`
	Patterns []string `yaml:"patterns" validate:"required,min=1,dive,required"`
	Severity int      `yaml:"severity" validate:"required,min=1,max=10"`
}

// MatchCount returns how many of the rule's patterns occur in the text.
// Matching is case-insensitive substring containment; the heuristic is
// intentional, not a placeholder for a model.
func (r KeywordRule) MatchCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, pattern := range r.Patterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			count++
		}
	}
	return count
}

// FirstPattern returns the first pattern present in the text, or "".
func (r KeywordRule) FirstPattern(text string) string {
	lower := strings.ToLower(text)
	for _, pattern := range r.Patterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return strings.ToLower(pattern)
		}
	}
	return ""
}

// RuleSet is an ordered list of keyword rules. Order matters: classification
// helpers take the first rule that matches.
type RuleSet []KeywordRule

// Classify returns the label of the first rule with at least one pattern hit.
func (rs RuleSet) Classify(text string) (string, bool) {
	for _, rule := range rs {
		if rule.MatchCount(text) > 0 {
			return rule.Label, true
		}
	}
	return "", false
}

// Rules bundles every tunable keyword list the detectors use. A deployment
// can override any of these from the rules file; zero-valued fields fall back
// to the defaults.
type Rules struct {
	GoalIntentTerms    []string `yaml:"goal_intent_terms"`
	ProgressTerms      []string `yaml:"progress_terms"`
	MajorEvents        RuleSet  `yaml:"major_events" validate:"dive"`
	Emotions           RuleSet  `yaml:"emotions" validate:"dive"`
	SelfReferenceTerms []string `yaml:"self_reference_terms"`
	ConflictTerms      []string `yaml:"conflict_terms"`
	// Thresholds tunes the detectors' numeric knobs from the same file.
	Thresholds Thresholds `yaml:"thresholds"`
}

// Merged returns a copy of r with every empty field replaced by its default.
func (r Rules) Merged() Rules {
	defaults := DefaultRules()
	if len(r.GoalIntentTerms) == 0 {
		r.GoalIntentTerms = defaults.GoalIntentTerms
	}
	if len(r.ProgressTerms) == 0 {
		r.ProgressTerms = defaults.ProgressTerms
	}
	if len(r.MajorEvents) == 0 {
		r.MajorEvents = defaults.MajorEvents
	}
	if len(r.Emotions) == 0 {
		r.Emotions = defaults.Emotions
	}
	if len(r.SelfReferenceTerms) == 0 {
		r.SelfReferenceTerms = defaults.SelfReferenceTerms
	}
	if len(r.ConflictTerms) == 0 {
		r.ConflictTerms = defaults.ConflictTerms
	}
	r.Thresholds = r.Thresholds.Merged()
	return r
}

// DefaultRules returns the compiled-in rule sets.
func DefaultRules() Rules {
	return Rules{
		GoalIntentTerms: []string{
			"want to", "going to", "plan to", "planning to", "hope to",
			"goal", "aspire", "dream of", "aim to", "intend to",
			"resolve to", "resolution", "commit to", "committed to",
			"working toward", "working towards", "decided to",
		},
		ProgressTerms: []string{
			"finished", "completed", "achieved", "accomplished", "done with",
			"made progress", "progressing", "started", "kept up", "on track",
			"still working", "continuing",
		},
		MajorEvents: RuleSet{
			{
				Label:    "job change",
				Patterns: []string{"new job", "quit my job", "fired", "laid off", "promotion", "resigned", "job offer", "got hired"},
				Severity: 8,
			},
			{
				Label:    "relationship change",
				Patterns: []string{"broke up", "breakup", "divorce", "engaged", "got married", "new relationship", "moved in together"},
				Severity: 8,
			},
			{
				Label:    "relocation",
				Patterns: []string{"moved to", "moving to", "relocating", "new city", "new apartment", "new house"},
				Severity: 7,
			},
			{
				Label:    "crisis",
				Patterns: []string{"passed away", "died", "funeral", "accident", "emergency", "hospital", "diagnosis"},
				Severity: 10,
			},
			{
				Label:    "health change",
				Patterns: []string{"surgery", "recovery", "started therapy", "treatment", "sober", "quit drinking", "quit smoking"},
				Severity: 7,
			},
		},
		Emotions: RuleSet{
			{
				Label:    "joy",
				Patterns: []string{"happy", "excited", "joyful", "thrilled", "grateful", "delighted", "proud"},
				Severity: 3,
			},
			{
				Label:    "sadness",
				Patterns: []string{"sad", "depressed", "down", "lonely", "grief", "heartbroken", "miserable"},
				Severity: 5,
			},
			{
				Label:    "anger",
				Patterns: []string{"angry", "furious", "frustrated", "resentful", "irritated", "annoyed"},
				Severity: 5,
			},
			{
				Label:    "fear",
				Patterns: []string{"anxious", "afraid", "scared", "worried", "nervous", "dread", "panicked"},
				Severity: 5,
			},
			{
				Label:    "calm",
				Patterns: []string{"calm", "peaceful", "relaxed", "content", "serene", "at ease"},
				Severity: 2,
			},
		},
		SelfReferenceTerms: []string{
			"i am", "i'm becoming", "i feel like i", "i used to be",
			"i'm no longer", "who i am", "my identity", "i see myself",
			"i've changed", "the kind of person",
		},
		ConflictTerms: []string{
			"argument", "argued", "fight", "fought", "conflict",
			"disagree", "tension", "yelled",
		},
		Thresholds: DefaultThresholds(),
	}
}

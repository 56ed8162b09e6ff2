package detectors

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/domain/core/entities"
)

// maxProgressEntries caps the fallback scan over raw journal entries.
const maxProgressEntries = 100

// AbandonedGoalDetector finds stated goals that went quiet without any
// evidence of progress.
//
// Topic grouping is exact string equality over a short keyword window. That is
// paraphrase-fragile on purpose: we prefer missing a reworded goal over
// merging unrelated ones.
type AbandonedGoalDetector struct {
	rules      Rules
	thresholds Thresholds
	logger     *zap.Logger
}

// NewAbandonedGoalDetector creates the detector with merged rules.
func NewAbandonedGoalDetector(rules Rules, thresholds Thresholds, logger *zap.Logger) *AbandonedGoalDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbandonedGoalDetector{rules: rules.Merged(), thresholds: thresholds, logger: logger}
}

func (d *AbandonedGoalDetector) Name() string { return "abandoned_goal" }

func (d *AbandonedGoalDetector) EventType() entities.EventType {
	return entities.EventTypeAbandonedGoal
}

func (d *AbandonedGoalDetector) Windows() WindowSpec {
	return WindowSpec{RecentDays: 90, NeedsEntries: true}
}

// goalGroup is every mention of one goal topic, newest last.
type goalGroup struct {
	topic    string
	mentions []entities.MemoryComponent
}

// Detect extracts goal mentions, groups them by topic, and reports groups that
// went stale with no progress evidence.
func (d *AbandonedGoalDetector) Detect(ctx context.Context, input DetectInput) ([]entities.ContinuityEvent, error) {
	groups := d.groupGoals(input.Recent)
	if len(groups) == 0 {
		return nil, nil
	}

	staleCutoff := time.Duration(d.thresholds.StaleGoalDays) * 24 * time.Hour

	var events []entities.ContinuityEvent
	for _, group := range groups {
		last := group.mentions[len(group.mentions)-1]
		sinceLast := input.Now.Sub(last.OccurredAt())
		if sinceLast < staleCutoff {
			continue
		}
		if d.hasProgressEvidence(group, input.Entries, last.OccurredAt()) {
			continue
		}

		days := sinceLast.Hours() / 24
		severity := int(math.Min(10, math.Round(days/10))) + minInt(5, len(group.mentions))

		sourceIDs := make([]string, 0, len(group.mentions))
		for _, mention := range group.mentions {
			sourceIDs = append(sourceIDs, mention.ID)
		}

		events = append(events, entities.NewContinuityEvent(
			input.UserID,
			entities.EventTypeAbandonedGoal,
			fmt.Sprintf("The goal %q was mentioned %d time(s) but has had no activity for %d days",
				group.topic, len(group.mentions), int(days)),
			sourceIDs,
			severity,
			map[string]interface{}{
				"topic":             group.topic,
				"mention_count":     len(group.mentions),
				"days_since_last":   int(days),
				"last_mentioned_at": last.OccurredAt().Format(time.RFC3339),
			},
		))
	}

	d.logger.Debug("abandoned goal scan complete",
		zap.String("user_id", input.UserID),
		zap.Int("goal_topics", len(groups)),
		zap.Int("abandoned", len(events)),
	)
	return events, nil
}

// groupGoals extracts goal mentions and groups them by exact topic string.
func (d *AbandonedGoalDetector) groupGoals(components []entities.MemoryComponent) []goalGroup {
	byTopic := make(map[string][]entities.MemoryComponent)
	for _, component := range components {
		topic, ok := d.goalTopic(component)
		if !ok {
			continue
		}
		byTopic[topic] = append(byTopic[topic], component)
	}

	topics := make([]string, 0, len(byTopic))
	for topic := range byTopic {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	groups := make([]goalGroup, 0, len(topics))
	for _, topic := range topics {
		mentions := byTopic[topic]
		sort.Slice(mentions, func(i, j int) bool {
			return mentions[i].OccurredAt().Before(mentions[j].OccurredAt())
		})
		groups = append(groups, goalGroup{topic: topic, mentions: mentions})
	}
	return groups
}

// goalTopic decides whether a component mentions a goal and derives its topic:
// the five words following the first matched intent term, falling back to the
// component's first five words.
func (d *AbandonedGoalDetector) goalTopic(component entities.MemoryComponent) (string, bool) {
	lower := strings.ToLower(component.Text)

	matchedTerm := ""
	matchedIdx := -1
	for _, term := range d.rules.GoalIntentTerms {
		if idx := strings.Index(lower, term); idx >= 0 && (matchedIdx < 0 || idx < matchedIdx) {
			matchedTerm = term
			matchedIdx = idx
		}
	}

	isGoalType := component.Type == entities.ComponentTypeDecision || component.Type == entities.ComponentTypeThought
	if matchedIdx < 0 && !isGoalType {
		return "", false
	}

	if matchedIdx >= 0 {
		after := strings.TrimSpace(lower[matchedIdx+len(matchedTerm):])
		if topic := firstWords(after, 5); topic != "" {
			return topic, true
		}
	}

	topic := firstWords(lower, 5)
	if topic == "" {
		return "", false
	}
	return topic, true
}

// hasProgressEvidence checks group members for progress terms, then falls back
// to scanning later journal entries that share enough of the topic's leading
// words.
func (d *AbandonedGoalDetector) hasProgressEvidence(group goalGroup, entries []entities.Entry, lastMention time.Time) bool {
	for _, mention := range group.mentions {
		if containsAny(mention.Text, d.rules.ProgressTerms) {
			return true
		}
	}

	topicWords := strings.Fields(group.topic)
	if len(topicWords) > 3 {
		topicWords = topicWords[:3]
	}

	// Entries arrive oldest-first; walk from the newest end so the scan
	// budget is spent on the 100 most recent entries after the last mention.
	scanned := 0
	for i := len(entries) - 1; i >= 0 && scanned < maxProgressEntries; i-- {
		entry := entries[i]
		if !entry.Date.After(lastMention) {
			continue
		}
		scanned++

		lower := strings.ToLower(entry.Text)
		shared := 0
		for _, word := range topicWords {
			if strings.Contains(lower, word) {
				shared++
			}
		}
		if shared >= 2 && containsAny(entry.Text, d.rules.ProgressTerms) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func firstWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

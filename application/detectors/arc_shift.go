package detectors

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/services"
)

// ArcShiftDetector looks for breaks in the narrative arc of the recent window
// against a longer baseline. Four independent signals each may fire zero or
// more events; there is no cross-signal dedup.
type ArcShiftDetector struct {
	analyzer   services.TextAnalyzer
	rules      Rules
	thresholds Thresholds
	logger     *zap.Logger
}

// NewArcShiftDetector creates the detector.
func NewArcShiftDetector(analyzer services.TextAnalyzer, rules Rules, thresholds Thresholds, logger *zap.Logger) *ArcShiftDetector {
	if analyzer == nil {
		analyzer = services.NewDefaultTextAnalyzer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArcShiftDetector{analyzer: analyzer, rules: rules.Merged(), thresholds: thresholds, logger: logger}
}

func (d *ArcShiftDetector) Name() string { return "arc_shift" }

func (d *ArcShiftDetector) EventType() entities.EventType {
	return entities.EventTypeArcShift
}

func (d *ArcShiftDetector) Windows() WindowSpec {
	// Baseline explicitly excludes the recent week.
	return WindowSpec{RecentDays: 7, BaselineDays: 90, BaselineGapDays: 7}
}

// Detect runs the four signals over the windows.
func (d *ArcShiftDetector) Detect(ctx context.Context, input DetectInput) ([]entities.ContinuityEvent, error) {
	if len(input.Recent) == 0 {
		return nil, nil
	}

	var events []entities.ContinuityEvent
	events = append(events, d.detectNovelty(input)...)
	events = append(events, d.detectTopicShift(input)...)
	events = append(events, d.detectMajorEvents(input)...)
	events = append(events, d.detectEmotionClusters(input)...)

	d.logger.Debug("arc shift scan complete",
		zap.String("user_id", input.UserID),
		zap.Int("recent", len(input.Recent)),
		zap.Int("baseline", len(input.Baseline)),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// detectNovelty scores how far the most novel recent component sits from the
// baseline's semantic center.
func (d *ArcShiftDetector) detectNovelty(input DetectInput) []entities.ContinuityEvent {
	baselineVectors := embeddingsOf(input.Baseline)

	novelty := 1.0
	var sourceIDs []string
	if len(baselineVectors) > 0 {
		centroid := services.Centroid(baselineVectors)

		maxSim := -1.0
		compared := 0
		for _, component := range input.Recent {
			if len(component.Embedding) == 0 {
				continue
			}
			compared++
			if sim := services.CosineSimilarity(component.Embedding, centroid); sim > maxSim {
				maxSim = sim
			}
		}
		if compared == 0 {
			// Nothing to compare against the baseline; stay silent rather
			// than report maximal novelty for unembedded content.
			return nil
		}
		novelty = clamp01(1 - maxSim)
	} else {
		for _, component := range input.Recent {
			sourceIDs = append(sourceIDs, component.ID)
		}
	}

	if novelty < d.thresholds.Novelty {
		return nil
	}

	if sourceIDs == nil {
		for _, component := range input.Recent {
			if len(component.Embedding) > 0 {
				sourceIDs = append(sourceIDs, component.ID)
			}
		}
	}

	return []entities.ContinuityEvent{entities.NewContinuityEvent(
		input.UserID,
		entities.EventTypeArcShift,
		fmt.Sprintf("Recent entries diverge sharply from the established narrative (novelty %.2f)", novelty),
		sourceIDs,
		entities.ClampSeverity(int(math.Round(novelty*10))),
		map[string]interface{}{"signal": "novelty", "novelty": novelty},
	)}
}

// detectTopicShift compares keyword frequency multisets between the windows.
func (d *ArcShiftDetector) detectTopicShift(input DetectInput) []entities.ContinuityEvent {
	recentFreq := d.windowKeywords(input.Recent)
	baselineFreq := d.windowKeywords(input.Baseline)
	if len(recentFreq) == 0 || len(baselineFreq) == 0 {
		return nil
	}

	shift := 1 - multisetOverlap(recentFreq, baselineFreq)
	if shift < d.thresholds.TopicShift {
		return nil
	}

	recentTop := topKeyword(recentFreq)
	baselineTop := topKeyword(baselineFreq)

	sourceIDs := make([]string, 0, len(input.Recent))
	for _, component := range input.Recent {
		sourceIDs = append(sourceIDs, component.ID)
	}

	return []entities.ContinuityEvent{entities.NewContinuityEvent(
		input.UserID,
		entities.EventTypeArcShift,
		fmt.Sprintf("Conversation topics moved from %q to %q (shift %.2f)", baselineTop, recentTop, shift),
		sourceIDs,
		entities.ClampSeverity(int(math.Round(shift*10))),
		map[string]interface{}{
			"signal":        "topic_shift",
			"shift":         shift,
			"recent_top":    recentTop,
			"baseline_top":  baselineTop,
		},
	)}
}

// detectMajorEvents scans each recent component against the declarative event
// clusters. The first cluster reaching the vote threshold wins per component.
func (d *ArcShiftDetector) detectMajorEvents(input DetectInput) []entities.ContinuityEvent {
	var events []entities.ContinuityEvent
	for _, component := range input.Recent {
		for _, rule := range d.rules.MajorEvents {
			if rule.MatchCount(component.Text) < d.thresholds.MajorEventVotes {
				continue
			}
			events = append(events, entities.NewContinuityEvent(
				input.UserID,
				entities.EventTypeArcShift,
				fmt.Sprintf("A major life event was recorded: %s", rule.Label),
				[]string{component.ID},
				rule.Severity,
				map[string]interface{}{"signal": "major_event", "label": rule.Label},
			))
			break
		}
	}
	return events
}

// detectEmotionClusters buckets recent components by first-matching emotion
// and reports buckets dense enough to indicate a sustained state.
func (d *ArcShiftDetector) detectEmotionClusters(input DetectInput) []entities.ContinuityEvent {
	buckets := make(map[string][]string)
	for _, component := range input.Recent {
		if label, ok := d.rules.Emotions.Classify(component.Text); ok {
			buckets[label] = append(buckets[label], component.ID)
		}
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var events []entities.ContinuityEvent
	for _, label := range labels {
		ids := buckets[label]
		if len(ids) < d.thresholds.EmotionCluster {
			continue
		}
		events = append(events, entities.NewContinuityEvent(
			input.UserID,
			entities.EventTypeArcShift,
			fmt.Sprintf("A cluster of %d entries shares the emotion %q", len(ids), label),
			ids,
			minInt(10, len(ids)),
			map[string]interface{}{"signal": "emotion_cluster", "emotion": label, "size": len(ids)},
		))
	}
	return events
}

// windowKeywords aggregates tag and keyword frequencies across a window.
func (d *ArcShiftDetector) windowKeywords(components []entities.MemoryComponent) map[string]int {
	freq := make(map[string]int)
	for _, component := range components {
		for _, tag := range component.Tags {
			freq[normalizeTag(tag)]++
		}
		for kw, count := range d.analyzer.KeywordFrequencies(component.Text) {
			freq[kw] += count
		}
	}
	delete(freq, "")
	return freq
}

// multisetOverlap is sum(min counts over shared keys) / sum(max counts over
// the union of keys). Identical multisets overlap at exactly 1.
func multisetOverlap(a, b map[string]int) float64 {
	var minSum, maxSum int
	for key, countA := range a {
		if countB, ok := b[key]; ok {
			minSum += minInt(countA, countB)
			maxSum += maxInt(countA, countB)
		} else {
			maxSum += countA
		}
	}
	for key, countB := range b {
		if _, ok := a[key]; !ok {
			maxSum += countB
		}
	}
	if maxSum == 0 {
		return 0
	}
	return float64(minSum) / float64(maxSum)
}

func topKeyword(freq map[string]int) string {
	top := ""
	best := 0
	keys := make([]string, 0, len(freq))
	for key := range freq {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if freq[key] > best {
			best = freq[key]
			top = key
		}
	}
	return top
}

func embeddingsOf(components []entities.MemoryComponent) [][]float64 {
	vectors := make([][]float64, 0, len(components))
	for _, component := range components {
		if len(component.Embedding) > 0 {
			vectors = append(vectors, component.Embedding)
		}
	}
	return vectors
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

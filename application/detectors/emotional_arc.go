package detectors

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"lorekeeper-backend/domain/core/entities"
)

// minEmotionHalf is the minimum classified components each half of the window
// needs before a transition is trusted.
const minEmotionHalf = 2

// EmotionalArcDetector tracks the dominant emotional state across the window
// and reports transitions between its halves. It shares the emotion vocabulary
// with the arc-shift clusters but looks at ordering, not density.
type EmotionalArcDetector struct {
	rules  Rules
	logger *zap.Logger
}

// NewEmotionalArcDetector creates the detector.
func NewEmotionalArcDetector(rules Rules, logger *zap.Logger) *EmotionalArcDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmotionalArcDetector{rules: rules.Merged(), logger: logger}
}

func (d *EmotionalArcDetector) Name() string { return "emotional_arc" }

func (d *EmotionalArcDetector) EventType() entities.EventType {
	return entities.EventTypeEmotionalTransition
}

func (d *EmotionalArcDetector) Windows() WindowSpec {
	return WindowSpec{RecentDays: 30}
}

type classifiedComponent struct {
	component entities.MemoryComponent
	emotion   string
}

// Detect classifies the window chronologically and compares the dominant
// emotion of the first half against the second.
func (d *EmotionalArcDetector) Detect(ctx context.Context, input DetectInput) ([]entities.ContinuityEvent, error) {
	classified := make([]classifiedComponent, 0, len(input.Recent))
	for _, component := range input.Recent {
		if emotion, ok := d.rules.Emotions.Classify(component.Text); ok {
			classified = append(classified, classifiedComponent{component: component, emotion: emotion})
		}
	}
	if len(classified) < minEmotionHalf*2 {
		return nil, nil
	}

	sort.Slice(classified, func(i, j int) bool {
		return classified[i].component.OccurredAt().Before(classified[j].component.OccurredAt())
	})

	mid := len(classified) / 2
	firstHalf := classified[:mid]
	secondHalf := classified[mid:]
	if len(firstHalf) < minEmotionHalf || len(secondHalf) < minEmotionHalf {
		return nil, nil
	}

	fromEmotion, _ := dominantEmotion(firstHalf)
	toEmotion, toCount := dominantEmotion(secondHalf)
	if fromEmotion == toEmotion {
		return nil, nil
	}

	newShare := float64(toCount) / float64(len(secondHalf))

	sourceIDs := make([]string, 0, len(secondHalf))
	for _, c := range secondHalf {
		sourceIDs = append(sourceIDs, c.component.ID)
	}

	event := entities.NewContinuityEvent(
		input.UserID,
		entities.EventTypeEmotionalTransition,
		fmt.Sprintf("The emotional tone moved from %s to %s over the last month", fromEmotion, toEmotion),
		sourceIDs,
		entities.ClampSeverity(int(math.Round(newShare*10))),
		map[string]interface{}{
			"from":      fromEmotion,
			"to":        toEmotion,
			"new_share": newShare,
		},
	)

	d.logger.Debug("emotional arc scan complete",
		zap.String("user_id", input.UserID),
		zap.String("from", fromEmotion),
		zap.String("to", toEmotion),
	)
	return []entities.ContinuityEvent{event}, nil
}

// dominantEmotion returns the most frequent emotion in the slice, breaking
// ties alphabetically.
func dominantEmotion(classified []classifiedComponent) (string, int) {
	counts := make(map[string]int)
	for _, c := range classified {
		counts[c.emotion]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	best := ""
	bestCount := 0
	for _, label := range labels {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best, bestCount
}

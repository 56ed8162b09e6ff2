package detectors

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/services"
)

// topThemeCount is how many TF-IDF terms represent a window's themes.
const topThemeCount = 5

// emergedSignificance is the fixed significance assigned to a
// disappeared/emerged theme pairing.
const emergedSignificance = 0.5

// ThematicDriftDetector compares what the user writes about across windows:
// TF-IDF topic comparison plus an embedding-centroid cluster shift.
type ThematicDriftDetector struct {
	scorer     *services.TFIDFScorer
	thresholds Thresholds
	logger     *zap.Logger
}

// NewThematicDriftDetector creates the detector.
func NewThematicDriftDetector(analyzer services.TextAnalyzer, thresholds Thresholds, logger *zap.Logger) *ThematicDriftDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThematicDriftDetector{
		scorer:     services.NewTFIDFScorer(analyzer, 3),
		thresholds: thresholds,
		logger:     logger,
	}
}

func (d *ThematicDriftDetector) Name() string { return "thematic_drift" }

func (d *ThematicDriftDetector) EventType() entities.EventType {
	return entities.EventTypeThematicDrift
}

func (d *ThematicDriftDetector) Windows() WindowSpec {
	return WindowSpec{RecentDays: 7, BaselineDays: 30}
}

// Detect runs the TF-IDF comparison and the centroid cluster-shift check.
func (d *ThematicDriftDetector) Detect(ctx context.Context, input DetectInput) ([]entities.ContinuityEvent, error) {
	if len(input.Recent) == 0 || len(input.Baseline) == 0 {
		return nil, nil
	}

	var events []entities.ContinuityEvent
	events = append(events, d.detectTopicChange(input)...)
	events = append(events, d.detectClusterShift(input)...)

	d.logger.Debug("thematic drift scan complete",
		zap.String("user_id", input.UserID),
		zap.Int("events", len(events)),
	)
	return events, nil
}

func (d *ThematicDriftDetector) detectTopicChange(input DetectInput) []entities.ContinuityEvent {
	recentTop := services.TopTerms(d.scorer.Score(textsOf(input.Recent)), topThemeCount)
	baselineTop := services.TopTerms(d.scorer.Score(textsOf(input.Baseline)), topThemeCount)
	if len(recentTop) == 0 || len(baselineTop) == 0 {
		return nil
	}

	sourceIDs := idsOf(input.Recent)
	var events []entities.ContinuityEvent

	// Leading theme replacement.
	if recentTop[0].Term != baselineTop[0].Term {
		delta := relativeDelta(recentTop[0].Score, baselineTop[0].Score)
		if delta > d.thresholds.TopTermDelta {
			events = append(events, entities.NewContinuityEvent(
				input.UserID,
				entities.EventTypeThematicDrift,
				fmt.Sprintf("The dominant theme changed from %q to %q", baselineTop[0].Term, recentTop[0].Term),
				sourceIDs,
				entities.ClampSeverity(int(math.Round(delta*10))),
				map[string]interface{}{
					"signal":        "top_term_change",
					"previous_term": baselineTop[0].Term,
					"current_term":  recentTop[0].Term,
					"delta":         delta,
				},
			))
		}
	}

	// Pair themes that vanished from the historical top three with themes
	// that newly emerged in the recent window.
	recentTerms := termSet(recentTop)
	baselineTerms := termSet(baselineTop)

	var disappeared []string
	for i, term := range baselineTop {
		if i >= 3 {
			break
		}
		if !recentTerms[term.Term] {
			disappeared = append(disappeared, term.Term)
		}
	}
	var emerged []string
	for _, term := range recentTop {
		if !baselineTerms[term.Term] {
			emerged = append(emerged, term.Term)
		}
	}

	for i, gone := range disappeared {
		if i >= len(emerged) {
			break
		}
		events = append(events, entities.NewContinuityEvent(
			input.UserID,
			entities.EventTypeThematicDrift,
			fmt.Sprintf("Writing about %q faded while %q emerged", gone, emerged[i]),
			sourceIDs,
			entities.ClampSeverity(int(math.Round(emergedSignificance*10))),
			map[string]interface{}{
				"signal":       "theme_replacement",
				"disappeared":  gone,
				"emerged":      emerged[i],
				"significance": emergedSignificance,
			},
		))
	}

	return events
}

func (d *ThematicDriftDetector) detectClusterShift(input DetectInput) []entities.ContinuityEvent {
	recentCentroid := services.Centroid(embeddingsOf(input.Recent))
	baselineCentroid := services.Centroid(embeddingsOf(input.Baseline))
	if recentCentroid == nil || baselineCentroid == nil {
		return nil
	}

	sim := services.CosineSimilarity(recentCentroid, baselineCentroid)
	if sim >= d.thresholds.ClusterShift {
		return nil
	}

	return []entities.ContinuityEvent{entities.NewContinuityEvent(
		input.UserID,
		entities.EventTypeThematicDrift,
		fmt.Sprintf("The semantic center of recent writing moved away from the prior month (similarity %.2f)", sim),
		idsOf(input.Recent),
		entities.ClampSeverity(int(math.Round((1-sim)*10))),
		map[string]interface{}{"signal": "cluster_shift", "similarity": sim},
	)}
}

func relativeDelta(a, b float64) float64 {
	max := math.Max(math.Abs(a), math.Abs(b))
	if max == 0 {
		return 0
	}
	return math.Abs(a-b) / max
}

func termSet(terms []services.TermScore) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, term := range terms {
		set[term.Term] = true
	}
	return set
}

func textsOf(components []entities.MemoryComponent) []string {
	texts := make([]string, 0, len(components))
	for _, component := range components {
		texts = append(texts, component.Text)
	}
	return texts
}

func idsOf(components []entities.MemoryComponent) []string {
	ids := make([]string, 0, len(components))
	for _, component := range components {
		ids = append(ids, component.ID)
	}
	return ids
}

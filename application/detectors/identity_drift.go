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

// IdentityDriftDetector watches self-referential language for changes in how
// the user describes themselves. It applies the same technique class as the
// arc and theme detectors (keyword extraction plus centroid comparison) with
// its own thresholds.
type IdentityDriftDetector struct {
	analyzer   services.TextAnalyzer
	rules      Rules
	thresholds Thresholds
	logger     *zap.Logger
}

// NewIdentityDriftDetector creates the detector.
func NewIdentityDriftDetector(analyzer services.TextAnalyzer, rules Rules, thresholds Thresholds, logger *zap.Logger) *IdentityDriftDetector {
	if analyzer == nil {
		analyzer = services.NewDefaultTextAnalyzer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityDriftDetector{analyzer: analyzer, rules: rules.Merged(), thresholds: thresholds, logger: logger}
}

func (d *IdentityDriftDetector) Name() string { return "identity_drift" }

func (d *IdentityDriftDetector) EventType() entities.EventType {
	return entities.EventTypeIdentityDrift
}

func (d *IdentityDriftDetector) Windows() WindowSpec {
	return WindowSpec{RecentDays: 7, BaselineDays: 30, BaselineGapDays: 7}
}

// Detect compares self-descriptor vocabularies and, where embeddings exist,
// the semantic centers of self-referential writing between windows.
func (d *IdentityDriftDetector) Detect(ctx context.Context, input DetectInput) ([]entities.ContinuityEvent, error) {
	recentSelf := d.selfReferential(input.Recent)
	baselineSelf := d.selfReferential(input.Baseline)
	if len(recentSelf) == 0 || len(baselineSelf) == 0 {
		return nil, nil
	}

	var events []entities.ContinuityEvent
	events = append(events, d.detectDescriptorShift(input, recentSelf, baselineSelf)...)
	events = append(events, d.detectCentroidShift(input, recentSelf, baselineSelf)...)

	d.logger.Debug("identity drift scan complete",
		zap.String("user_id", input.UserID),
		zap.Int("recent_self", len(recentSelf)),
		zap.Int("baseline_self", len(baselineSelf)),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// selfReferential filters components whose text uses identity phrasing.
func (d *IdentityDriftDetector) selfReferential(components []entities.MemoryComponent) []entities.MemoryComponent {
	var filtered []entities.MemoryComponent
	for _, component := range components {
		if containsAny(component.Text, d.rules.SelfReferenceTerms) {
			filtered = append(filtered, component)
		}
	}
	return filtered
}

// detectDescriptorShift diffs the self-descriptor keyword sets of the two
// windows and reports gained and lost descriptors.
func (d *IdentityDriftDetector) detectDescriptorShift(input DetectInput, recent, baseline []entities.MemoryComponent) []entities.ContinuityEvent {
	recentTerms := d.descriptorSet(recent)
	baselineTerms := d.descriptorSet(baseline)
	if len(recentTerms) == 0 && len(baselineTerms) == 0 {
		return nil
	}

	var gained, lost []string
	for term := range recentTerms {
		if !baselineTerms[term] {
			gained = append(gained, term)
		}
	}
	for term := range baselineTerms {
		if !recentTerms[term] {
			lost = append(lost, term)
		}
	}
	if len(gained) == 0 && len(lost) == 0 {
		return nil
	}
	sort.Strings(gained)
	sort.Strings(lost)

	var parts []string
	if len(gained) > 0 {
		parts = append(parts, fmt.Sprintf("gained %s", strings.Join(capList(gained, 3), ", ")))
	}
	if len(lost) > 0 {
		parts = append(parts, fmt.Sprintf("less emphasis on %s", strings.Join(capList(lost, 3), ", ")))
	}

	return []entities.ContinuityEvent{entities.NewContinuityEvent(
		input.UserID,
		entities.EventTypeIdentityDrift,
		fmt.Sprintf("Self-description markers shifted: %s", strings.Join(parts, "; ")),
		idsOf(recent),
		minInt(10, 3+len(gained)+len(lost)),
		map[string]interface{}{
			"signal": "descriptor_shift",
			"gained": gained,
			"lost":   lost,
		},
	)}
}

// descriptorSet extracts the keywords immediately following identity phrases.
func (d *IdentityDriftDetector) descriptorSet(components []entities.MemoryComponent) map[string]bool {
	set := make(map[string]bool)
	for _, component := range components {
		lower := strings.ToLower(component.Text)
		for _, phrase := range d.rules.SelfReferenceTerms {
			idx := strings.Index(lower, phrase)
			if idx < 0 {
				continue
			}
			tail := lower[idx+len(phrase):]
			for _, kw := range d.analyzer.ExtractKeywords(firstWords(tail, 4)) {
				set[kw] = true
			}
		}
	}
	return set
}

// detectCentroidShift compares the semantic centers of self-referential
// writing. The threshold is deliberately separate from arc-shift novelty.
func (d *IdentityDriftDetector) detectCentroidShift(input DetectInput, recent, baseline []entities.MemoryComponent) []entities.ContinuityEvent {
	recentCentroid := services.Centroid(embeddingsOf(recent))
	baselineCentroid := services.Centroid(embeddingsOf(baseline))
	if recentCentroid == nil || baselineCentroid == nil {
		return nil
	}

	sim := services.CosineSimilarity(recentCentroid, baselineCentroid)
	if sim >= d.thresholds.IdentityClusterShift {
		return nil
	}

	return []entities.ContinuityEvent{entities.NewContinuityEvent(
		input.UserID,
		entities.EventTypeIdentityDrift,
		fmt.Sprintf("The voice of self-referential writing moved (similarity %.2f)", sim),
		idsOf(recent),
		entities.ClampSeverity(int(math.Round((1-sim)*10))),
		map[string]interface{}{"signal": "centroid_shift", "similarity": sim},
	)}
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

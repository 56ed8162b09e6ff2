package detectors

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	"lorekeeper-backend/domain/services"
)

// ContradictionDetector finds memory components whose extracted facts make
// incompatible claims about the same subject and attribute.
type ContradictionDetector struct {
	extractor ports.FactExtractor
	logger    *zap.Logger
}

// NewContradictionDetector creates the detector. A nil extractor falls back to
// the metadata-based default.
func NewContradictionDetector(extractor ports.FactExtractor, logger *zap.Logger) *ContradictionDetector {
	if extractor == nil {
		extractor = NewMetadataFactExtractor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContradictionDetector{extractor: extractor, logger: logger}
}

func (d *ContradictionDetector) Name() string { return "contradiction" }

func (d *ContradictionDetector) EventType() entities.EventType {
	return entities.EventTypeContradiction
}

func (d *ContradictionDetector) Windows() WindowSpec {
	return WindowSpec{RecentDays: 30}
}

// Detect extracts facts from the window and wraps each conflicting signature
// into one event.
func (d *ContradictionDetector) Detect(ctx context.Context, input DetectInput) ([]entities.ContinuityEvent, error) {
	facts, err := d.extractor.ExtractFacts(ctx, input.Recent)
	if err != nil {
		return nil, err
	}
	if len(facts) < 2 {
		return nil, nil
	}

	conflicts := services.FindAllContradictions(facts)
	if len(conflicts) == 0 {
		return nil, nil
	}

	// Deterministic event order across runs.
	signatures := make([]string, 0, len(conflicts))
	for sig := range conflicts {
		signatures = append(signatures, sig)
	}
	sort.Strings(signatures)

	events := make([]entities.ContinuityEvent, 0, len(signatures))
	for _, sig := range signatures {
		pairs := conflicts[sig]
		first := pairs[0]

		sourceIDs := make([]string, 0, len(pairs)*2)
		values := make([]string, 0, len(pairs)*2)
		seenSource := make(map[string]bool)
		seenValue := make(map[string]bool)
		for _, pair := range pairs {
			for _, f := range []entities.ExtractedFact{pair.A, pair.B} {
				if f.SourceID != "" && !seenSource[f.SourceID] {
					sourceIDs = append(sourceIDs, f.SourceID)
					seenSource[f.SourceID] = true
				}
				if v := f.NormalizedValue(); !seenValue[v] {
					values = append(values, v)
					seenValue[v] = true
				}
			}
		}
		sort.Strings(values)

		description := fmt.Sprintf(
			"Conflicting statements about %s %s: recorded as %s",
			first.A.NormalizedSubject(), first.A.NormalizedAttribute(), joinValues(values),
		)

		events = append(events, entities.NewContinuityEvent(
			input.UserID,
			entities.EventTypeContradiction,
			description,
			sourceIDs,
			5+len(pairs),
			map[string]interface{}{
				"signature":  sig,
				"pair_count": len(pairs),
				"values":     values,
			},
		))
	}

	d.logger.Debug("contradiction scan complete",
		zap.String("user_id", input.UserID),
		zap.Int("facts", len(facts)),
		zap.Int("conflicting_signatures", len(events)),
	)
	return events, nil
}

func joinValues(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	case 2:
		return values[0] + " and " + values[1]
	default:
		out := ""
		for i, v := range values[:len(values)-1] {
			if i > 0 {
				out += ", "
			}
			out += v
		}
		return out + ", and " + values[len(values)-1]
	}
}

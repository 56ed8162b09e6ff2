package detectors

import (
	"context"

	"lorekeeper-backend/domain/core/entities"
)

// MetadataFactExtractor reads the structured (subject, attribute, value)
// triples the extraction pipeline stores in component metadata. Components
// without a complete triple contribute no fact.
type MetadataFactExtractor struct{}

// NewMetadataFactExtractor creates the default fact extractor.
func NewMetadataFactExtractor() *MetadataFactExtractor {
	return &MetadataFactExtractor{}
}

// ExtractFacts pulls facts out of component metadata.
func (e *MetadataFactExtractor) ExtractFacts(ctx context.Context, components []entities.MemoryComponent) ([]entities.ExtractedFact, error) {
	facts := make([]entities.ExtractedFact, 0, len(components))
	for _, component := range components {
		if component.Metadata == nil {
			continue
		}

		subject, _ := component.Metadata["subject"].(string)
		attribute, _ := component.Metadata["attribute"].(string)
		value, _ := component.Metadata["value"].(string)
		if subject == "" || attribute == "" || value == "" {
			continue
		}

		confidence := 1.0
		if c, ok := component.Metadata["confidence"].(float64); ok {
			confidence = c
		}

		facts = append(facts, entities.ExtractedFact{
			Subject:    subject,
			Attribute:  attribute,
			Value:      value,
			Confidence: confidence,
			Context:    component.Text,
			SourceID:   component.ID,
		})
	}
	return facts, nil
}

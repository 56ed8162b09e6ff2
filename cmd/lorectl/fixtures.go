package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"lorekeeper-backend/application/detectors"
	"lorekeeper-backend/application/services"
	"lorekeeper-backend/domain/core/entities"
	domainservices "lorekeeper-backend/domain/services"
	"lorekeeper-backend/infrastructure/persistence/memory"
)

// fixtureFile is the JSON shape lorectl accepts for local runs.
type fixtureFile struct {
	UserID     string `json:"user_id"`
	Components []struct {
		ID         string    `json:"id"`
		EntryID    string    `json:"entry_id"`
		Type       string    `json:"type"`
		Text       string    `json:"text"`
		Characters []string  `json:"characters"`
		Sentiment  float64   `json:"sentiment"`
		Arc        string    `json:"arc"`
		OccurredAt time.Time `json:"occurred_at"`
	} `json:"components"`
	Characters []struct {
		ID              string  `json:"id"`
		Name            string  `json:"name"`
		SentimentToward float64 `json:"sentiment_toward"`
	} `json:"characters"`
	Relationships []struct {
		CharacterA  string  `json:"character_a"`
		CharacterB  string  `json:"character_b"`
		Closeness   float64 `json:"closeness"`
		Description string  `json:"description"`
	} `json:"relationships"`
}

// localStack is everything a fixtures-backed run needs.
type localStack struct {
	userID        string
	backend       *memory.Backend
	orchestrator  *services.ContinuityOrchestrator
	relationships *services.RelationshipService
}

func loadLocalStack(path string) (*localStack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var file fixtureFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if file.UserID == "" {
		return nil, fmt.Errorf("fixtures file has no user_id")
	}

	fixtures := memory.Fixtures{UserIDs: []string{file.UserID}}
	for i, c := range file.Components {
		occurredAt := c.OccurredAt
		metadata := map[string]interface{}{"sentiment": c.Sentiment}
		if c.Arc != "" {
			metadata["arc"] = c.Arc
		}
		fixtures.Components = append(fixtures.Components, entities.MemoryComponent{
			ID:                 orDefault(c.ID, fmt.Sprintf("component-%d", i+1)),
			EntryID:            c.EntryID,
			UserID:             file.UserID,
			Type:               entities.ComponentType(orDefault(c.Type, string(entities.ComponentTypeEvent))),
			Text:               c.Text,
			CharactersInvolved: c.Characters,
			Timestamp:          &occurredAt,
			CreatedAt:          occurredAt,
			Metadata:           metadata,
		})
	}
	for i, c := range file.Characters {
		fixtures.Characters = append(fixtures.Characters, entities.Character{
			ID:              orDefault(c.ID, fmt.Sprintf("character-%d", i+1)),
			UserID:          file.UserID,
			Name:            c.Name,
			SentimentToward: c.SentimentToward,
		})
	}
	for _, r := range file.Relationships {
		fixtures.Relationships = append(fixtures.Relationships, entities.StoredRelationship{
			UserID:      file.UserID,
			CharacterA:  r.CharacterA,
			CharacterB:  r.CharacterB,
			Closeness:   r.Closeness,
			Description: r.Description,
		})
	}

	backend := memory.NewBackendWith(fixtures)
	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
	}

	rules := detectors.DefaultRules()
	thresholds := rules.Thresholds.Merged()
	analyzer := domainservices.NewDefaultTextAnalyzer()
	extractor := detectors.NewMetadataFactExtractor()
	detectorList := []detectors.Detector{
		detectors.NewContradictionDetector(extractor, logger),
		detectors.NewIdentityDriftDetector(analyzer, rules, thresholds, logger),
		detectors.NewEmotionalArcDetector(rules, logger),
		detectors.NewArcShiftDetector(analyzer, rules, thresholds, logger),
		detectors.NewAbandonedGoalDetector(rules, thresholds, logger),
		detectors.NewThematicDriftDetector(analyzer, thresholds, logger),
	}

	fetcher := services.NewWindowFetcher(backend.Components, backend.Entries, logger)
	orchestrator := services.NewContinuityOrchestrator(
		fetcher, detectorList, backend.Events, backend.Insights, backend.Bus, nil, logger)
	relationships := services.NewRelationshipService(
		backend.Characters, backend.Relationships, backend.Components, nil, 0, rules, nil, logger)

	return &localStack{
		userID:        file.UserID,
		backend:       backend,
		orchestrator:  orchestrator,
		relationships: relationships,
	}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

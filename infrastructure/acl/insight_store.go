// Package acl is the anti-corruption layer toward the external insight
// service. The analytics engine talks to it through ports.InsightStore; this
// package owns the HTTP shape and the circuit breaker around it.
package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/domain/core/entities"
	pkgerrors "lorekeeper-backend/pkg/errors"
)

// insightRecord is the wire shape the insight service accepts.
type insightRecord struct {
	UserID             string                 `json:"user_id"`
	InsightType        string                 `json:"insight_type"`
	Text               string                 `json:"text"`
	Confidence         float64                `json:"confidence"`
	SourceComponentIDs []string               `json:"source_component_ids"`
	SourceEntryIDs     []string               `json:"source_entry_ids"`
	Tags               []string               `json:"tags"`
	Metadata           map[string]interface{} `json:"metadata"`
}

// HTTPInsightStore posts insights to the external insight API.
type HTTPInsightStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPInsightStore creates the raw HTTP client. Wrap it with
// NewBreakerInsightStore before handing it to the orchestrator.
func NewHTTPInsightStore(baseURL, apiKey string, logger *zap.Logger) *HTTPInsightStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPInsightStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// StoreInsight posts one insight record.
func (s *HTTPInsightStore) StoreInsight(ctx context.Context, insight entities.Insight) error {
	body, err := json.Marshal(insightRecord{
		UserID:             insight.UserID,
		InsightType:        insight.InsightType,
		Text:               insight.Text,
		Confidence:         insight.Confidence,
		SourceComponentIDs: insight.SourceComponentIDs,
		SourceEntryIDs:     insight.SourceEntryIDs,
		Tags:               insight.Tags,
		Metadata:           insight.Metadata,
	})
	if err != nil {
		return pkgerrors.NewInternal("failed to encode insight", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/insights", bytes.NewReader(body))
	if err != nil {
		return pkgerrors.NewInternal("failed to build insight request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return pkgerrors.NewUpstream("insight service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return pkgerrors.NewUpstream(fmt.Sprintf("insight service returned %d", resp.StatusCode), nil)
	}
	return nil
}

// BreakerInsightStore wraps an insight store with a circuit breaker so a
// degraded insight service sheds load fast instead of stalling every
// analysis run.
type BreakerInsightStore struct {
	inner   ports.InsightStore
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerInsightStore wraps the given store.
func NewBreakerInsightStore(inner ports.InsightStore, logger *zap.Logger) *BreakerInsightStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "insight-store",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("insight store circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerInsightStore{inner: inner, breaker: breaker, logger: logger}
}

// StoreInsight executes the wrapped call through the breaker. An open circuit
// surfaces as an unavailable error the orchestrator logs and moves past.
func (s *BreakerInsightStore) StoreInsight(ctx context.Context, insight entities.Insight) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.inner.StoreInsight(ctx, insight)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return pkgerrors.NewUnavailable("insight store circuit open", err)
	}
	return err
}

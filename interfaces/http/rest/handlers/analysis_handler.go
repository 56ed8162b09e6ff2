package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/application/services"
	"lorekeeper-backend/domain/core/entities"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AnalysisHandler exposes the on-demand continuity analysis trigger and the
// detected-event read surface.
type AnalysisHandler struct {
	orchestrator services.UserAnalyzer
	events       ports.ContinuityEventRepository
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewAnalysisHandler creates the handler.
func NewAnalysisHandler(orchestrator services.UserAnalyzer, events ports.ContinuityEventRepository, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		orchestrator: orchestrator,
		events:       events,
		validate:     validator.New(),
		logger:       logger,
	}
}

type triggerRequest struct {
	Trigger string `json:"trigger" validate:"omitempty,oneof=manual daily weekly"`
}

type triggerResponse struct {
	UserID      string         `json:"user_id"`
	Trigger     string         `json:"trigger"`
	Summary     map[string]int `json:"summary"`
	EventsFound int            `json:"events_found"`
	RanAt       time.Time      `json:"ran_at"`
}

// TriggerAnalysis handles POST /users/{userID}/analysis. The run is
// synchronous; detector failures are contained inside the orchestrator, so
// the response always carries the full six-category summary.
func (h *AnalysisHandler) TriggerAnalysis(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, h.logger, pkgerrors.NewValidation("user ID is required"))
		return
	}

	req := triggerRequest{Trigger: "manual"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, h.logger, pkgerrors.NewValidation("invalid request body"))
		return
	}
	if req.Trigger == "" {
		req.Trigger = "manual"
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, h.logger, pkgerrors.NewValidation("trigger must be one of manual, daily, weekly"))
		return
	}

	result, err := h.orchestrator.RunAnalysis(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	summary := make(map[string]int, len(result.Summary))
	for eventType, count := range result.Summary {
		summary[string(eventType)] = count
	}
	respondJSON(w, http.StatusOK, triggerResponse{
		UserID:      result.UserID,
		Trigger:     req.Trigger,
		Summary:     summary,
		EventsFound: len(result.Events),
		RanAt:       result.RanAt,
	})
}

type eventResponse struct {
	ID               string                 `json:"id"`
	Type             string                 `json:"type"`
	Description      string                 `json:"description"`
	SourceComponents []string               `json:"source_components,omitempty"`
	Severity         int                    `json:"severity"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	DetectedAt       time.Time              `json:"detected_at"`
}

type eventListResponse struct {
	UserID string          `json:"user_id"`
	Days   int             `json:"days"`
	Events []eventResponse `json:"events"`
}

// ListEvents handles GET /users/{userID}/events?days=30.
func (h *AnalysisHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, h.logger, pkgerrors.NewValidation("user ID is required"))
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			respondError(w, h.logger, pkgerrors.NewValidation("days must be between 1 and 365"))
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	events, err := h.events.FindByUser(r.Context(), userID, since)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	resp := eventListResponse{
		UserID: userID,
		Days:   days,
		Events: make([]eventResponse, 0, len(events)),
	}
	for _, event := range events {
		resp.Events = append(resp.Events, toEventResponse(event))
	}
	respondJSON(w, http.StatusOK, resp)
}

func toEventResponse(event entities.ContinuityEvent) eventResponse {
	return eventResponse{
		ID:               event.ID,
		Type:             string(event.Type),
		Description:      event.Description,
		SourceComponents: event.SourceComponents,
		Severity:         event.Severity,
		Metadata:         event.Metadata,
		DetectedAt:       event.DetectedAt,
	}
}

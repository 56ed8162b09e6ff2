package handlers

import (
	"net/http"

	"lorekeeper-backend/application/services"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RelationshipHandler serves relationship analytics and the cache
// invalidation endpoint.
type RelationshipHandler struct {
	relationships services.RelationshipRunner
	cache         *services.AnalyticsCache
	logger        *zap.Logger
}

// NewRelationshipHandler creates the handler. Cache may be nil; invalidation
// then returns 404.
func NewRelationshipHandler(relationships services.RelationshipRunner, cache *services.AnalyticsCache, logger *zap.Logger) *RelationshipHandler {
	return &RelationshipHandler{
		relationships: relationships,
		cache:         cache,
		logger:        logger,
	}
}

// GetRelationships handles GET /users/{userID}/relationships. Cache serving
// and recompute decisions live in the service; empty accounts get the
// synthetic demo payload rather than an error.
func (h *RelationshipHandler) GetRelationships(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, h.logger, pkgerrors.NewValidation("user ID is required"))
		return
	}

	payload, err := h.relationships.Run(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// InvalidateCache handles DELETE /users/{userID}/cache, dropping every cached
// analytics payload for the user.
func (h *RelationshipHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, h.logger, pkgerrors.NewValidation("user ID is required"))
		return
	}
	if h.cache == nil {
		respondError(w, h.logger, pkgerrors.NewNotFound("cache not configured"))
		return
	}

	h.cache.InvalidateUser(r.Context(), userID)
	h.logger.Info("user cache invalidated", zap.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

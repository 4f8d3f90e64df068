package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/valuescope/backend/internal/ai"
	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// ChatService is the AI surface used by the handler
type ChatService interface {
	Chat(ctx context.Context, userID string, req ai.ChatRequest) (*ai.ChatResponse, error)
	History(ctx context.Context, userID string, limit int) ([]*contracts.ChatExchange, error)
}

// AIHandler handles AI chat endpoints
type AIHandler struct {
	service ChatService
	logger  *logger.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(service ChatService, log *logger.Logger) *AIHandler {
	return &AIHandler{service: service, logger: log}
}

// Chat answers a question grounded on stored indicators
// POST /api/v1/ai/chat
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req ai.ChatRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Chat(r.Context(), uid, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// History returns the caller's newest exchanges
// GET /api/v1/ai/history?limit=20
func (h *AIHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	limit := ai.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	items, err := h.service.History(r.Context(), uid, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *AIHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		respondError(w, http.StatusServiceUnavailable, ai.ErrNotConfigured.Error())
	case errors.Is(err, ai.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrUpstream):
		h.logger.WithError(err).Error("AI provider request failed")
		respondError(w, http.StatusBadGateway, "AI request failed")
	default:
		h.logger.WithError(err).Error("AI request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

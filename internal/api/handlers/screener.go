package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/screener"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// ScreenerService is the screener surface used by the handler
type ScreenerService interface {
	Screen(ctx context.Context, c screener.Criteria) (*screener.Response, error)
	ScreenPreset(ctx context.Context, id string, overrides screener.Criteria) (*screener.Response, error)
	Presets() []screener.Preset
}

// ScreenerHandler handles screening endpoints
type ScreenerHandler struct {
	service ScreenerService
	logger  *logger.Logger
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(service ScreenerService, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{service: service, logger: log}
}

// Screen runs ad-hoc criteria
// POST /api/v1/screener
func (h *ScreenerHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var c screener.Criteria
	if err := decodeJSON(w, r, &c, true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Screen(r.Context(), c)
	h.respond(w, resp, err)
}

// Presets lists the preset strategies
// GET /api/v1/screener/presets
func (h *ScreenerHandler) Presets(w http.ResponseWriter, r *http.Request) {
	presets := h.service.Presets()
	if presets == nil {
		presets = []screener.Preset{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"presets": presets})
}

// ScreenPreset runs a preset; an optional body overrides its conditions
// POST /api/v1/screener/presets/{id}
func (h *ScreenerHandler) ScreenPreset(w http.ResponseWriter, r *http.Request) {
	var overrides screener.Criteria
	if err := decodeJSON(w, r, &overrides, true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.ScreenPreset(r.Context(), mux.Vars(r)["id"], overrides)
	h.respond(w, resp, err)
}

func (h *ScreenerHandler) respond(w http.ResponseWriter, resp *screener.Response, err error) {
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, screener.ErrInvalidCriteria):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "preset not found")
	default:
		h.logger.WithError(err).Error("Screen failed")
		respondError(w, http.StatusInternalServerError, "screen failed")
	}
}

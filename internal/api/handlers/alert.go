package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/valuescope/backend/internal/alert"
	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// AlertService is the alert surface used by the handler
type AlertService interface {
	List(ctx context.Context, userID string) ([]*contracts.Alert, error)
	Create(ctx context.Context, userID string, req alert.CreateRequest) (*contracts.Alert, error)
	Update(ctx context.Context, userID, id string, req alert.UpdateRequest) (*contracts.Alert, error)
	Delete(ctx context.Context, userID, id string) error
}

// AlertHandler handles the caller's alerts
type AlertHandler struct {
	service AlertService
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(service AlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{service: service, logger: log}
}

// List returns the caller's alerts
// GET /api/v1/alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	alerts, err := h.service.List(r.Context(), uid)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// Create adds an alert
// POST /api/v1/alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req alert.CreateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Create(r.Context(), uid, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// Update patches an alert
// PUT /api/v1/alerts/{id}
func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req alert.UpdateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Update(r.Context(), uid, mux.Vars(r)["id"], req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// Delete removes an alert
// DELETE /api/v1/alerts/{id}
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), uid, mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "alert deleted"})
}

func (h *AlertHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, alert.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, alert.ErrStockNotFound):
		respondError(w, http.StatusNotFound, "stock not found")
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "alert not found")
	default:
		h.logger.WithError(err).Error("Alert request failed")
		respondError(w, http.StatusInternalServerError, "alert request failed")
	}
}

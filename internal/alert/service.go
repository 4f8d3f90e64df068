package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/validation"
)

// ErrInvalidRequest wraps request validation failures
var ErrInvalidRequest = errors.New("invalid alert request")

// ErrStockNotFound is returned when an alert names an unknown stock
var ErrStockNotFound = errors.New("stock not found")

// maxThreshold bounds numeric(12,4)
var maxThreshold = decimal.New(1, 8)

// CreateRequest is the body of POST /alerts
type CreateRequest struct {
	StockCode     string           `json:"stock_code" validate:"required"`
	AlertType     string           `json:"alert_type" validate:"required,oneof=dividend pe pb price"`
	Condition     string           `json:"condition" validate:"required,oneof=gt lt eq"`
	Threshold     *decimal.Decimal `json:"threshold" validate:"required"`
	NotifyChannel string           `json:"notify_channel" validate:"omitempty,oneof=websocket email wechat"`
}

// UpdateRequest is the body of PUT /alerts/{id}; absent fields are unchanged
type UpdateRequest struct {
	Threshold     *decimal.Decimal `json:"threshold"`
	Condition     *string          `json:"condition" validate:"omitempty,oneof=gt lt eq"`
	Enabled       *bool            `json:"enabled"`
	NotifyChannel *string          `json:"notify_channel" validate:"omitempty,oneof=websocket email wechat"`
}

// Service manages a user's alerts
type Service struct {
	alerts contracts.AlertRepository
	stocks contracts.StockRepository
	now    func() time.Time
}

// NewService creates a new alert service
func NewService(alerts contracts.AlertRepository, stocks contracts.StockRepository) *Service {
	return &Service{alerts: alerts, stocks: stocks, now: time.Now}
}

func checkThreshold(t *decimal.Decimal) error {
	if t != nil && t.Abs().GreaterThanOrEqual(maxThreshold) {
		return fmt.Errorf("%w: threshold out of range", ErrInvalidRequest)
	}
	return nil
}

// List returns the alerts of userID
func (s *Service) List(ctx context.Context, userID string) ([]*contracts.Alert, error) {
	alerts, err := s.alerts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []*contracts.Alert{}
	}
	return alerts, nil
}

// Create validates req and stores a new enabled alert for userID
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*contracts.Alert, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := checkThreshold(req.Threshold); err != nil {
		return nil, err
	}

	stock, err := s.stocks.GetByCode(ctx, req.StockCode)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}

	channel := req.NotifyChannel
	if channel == "" {
		channel = contracts.ChannelWebsocket
	}

	a := &contracts.Alert{
		ID:            uuid.NewString(),
		UserID:        userID,
		StockID:       stock.ID,
		StockCode:     stock.Code,
		AlertType:     req.AlertType,
		Condition:     req.Condition,
		Threshold:     req.Threshold.Round(comparisonPlaces),
		Enabled:       true,
		NotifyChannel: channel,
		CreatedAt:     s.now(),
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies req to alert id of userID
func (s *Service) Update(ctx context.Context, userID, id string, req UpdateRequest) (*contracts.Alert, error) {
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := checkThreshold(req.Threshold); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, contracts.ErrNotFound
	}

	patch := contracts.AlertPatch{
		Condition:     req.Condition,
		Enabled:       req.Enabled,
		NotifyChannel: req.NotifyChannel,
	}
	if req.Threshold != nil {
		t := req.Threshold.Round(comparisonPlaces)
		patch.Threshold = &t
	}
	return s.alerts.Update(ctx, userID, id, patch)
}

// Delete removes alert id of userID
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return contracts.ErrNotFound
	}
	return s.alerts.Delete(ctx, userID, id)
}

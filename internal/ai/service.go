// Package ai answers investment questions with an LLM grounded on stored indicators.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
	"github.com/wonny/valuescope/backend/pkg/validation"
)

// History limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

var (
	// ErrNotConfigured is returned when no LLM credentials are set
	ErrNotConfigured = errors.New("AI service not configured")
	// ErrInvalidRequest wraps request validation failures
	ErrInvalidRequest = errors.New("invalid chat request")
	// ErrUpstream wraps failures of the language model provider
	ErrUpstream = errors.New("AI provider request failed")
)

// ChatRequest is the body of POST /ai/chat
type ChatRequest struct {
	Message    string                  `json:"message" validate:"required,max=4000"`
	History    []contracts.ChatMessage `json:"history" validate:"max=50,dive"`
	StockCodes []string                `json:"stock_codes" validate:"max=5,dive,len=6,numeric"`
}

// ChatResponse is the reply of POST /ai/chat
type ChatResponse struct {
	Message   string    `json:"message"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// Service runs grounded chats and keeps their history
type Service struct {
	completer Completer
	snapshots contracts.SnapshotRepository
	chats     contracts.ChatRepository
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates a chat service. A nil completer leaves chat unavailable.
func NewService(completer Completer, snapshots contracts.SnapshotRepository, chats contracts.ChatRepository, log *logger.Logger) *Service {
	return &Service{
		completer: completer,
		snapshots: snapshots,
		chats:     chats,
		logger:    log.WithField("module", "ai"),
		now:       time.Now,
	}
}

// Enabled reports whether chat is configured
func (s *Service) Enabled() bool {
	return s.completer != nil
}

// Chat answers req for userID and stores the exchange
func (s *Service) Chat(ctx context.Context, userID string, req ChatRequest) (*ChatResponse, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var (
		grounding []*contracts.IndicatorSnapshot
		sources   = []string{}
	)
	for _, code := range CollectCodes(req.StockCodes, req.Message) {
		snap, err := s.snapshots.GetByCode(ctx, code)
		if errors.Is(err, contracts.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", code, err)
		}
		grounding = append(grounding, snap)
		sources = append(sources, code)
	}

	reply, err := s.completer.Complete(ctx, SystemPrompt(grounding), req.History, req.Message)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	exchange := &contracts.ChatExchange{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   req.Message,
		Response:  reply,
		Sources:   sources,
		CreatedAt: s.now(),
	}
	if err := s.chats.Save(ctx, exchange); err != nil {
		// the user still gets the answer
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to save chat history")
	}

	return &ChatResponse{Message: reply, Sources: sources, CreatedAt: exchange.CreatedAt}, nil
}

// History returns the newest exchanges of userID. limit must be within 1..MaxHistoryLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*contracts.ChatExchange, error) {
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidRequest, MaxHistoryLimit)
	}
	items, err := s.chats.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	if items == nil {
		items = []*contracts.ChatExchange{}
	}
	return items, nil
}

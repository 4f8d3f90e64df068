package screener

import (
	"context"
	"fmt"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Response is the API shape of a screen
type Response struct {
	Data       []*contracts.IndicatorSnapshot `json:"data"`
	Total      int                            `json:"total"`
	Conditions Criteria                       `json:"conditions"`
	Filtered   map[string]int                 `json:"filtered"`
}

// Service loads candidates from storage and screens them
type Service struct {
	snapshots contracts.SnapshotRepository
	screener  *Screener
	presets   []Preset
	logger    *logger.Logger
}

// NewService creates a screener service
func NewService(snapshots contracts.SnapshotRepository, screener *Screener, presets []Preset, log *logger.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		screener:  screener,
		presets:   presets,
		logger:    log,
	}
}

// Screen validates c and runs it over the stored snapshots
func (s *Service) Screen(ctx context.Context, c Criteria) (*Response, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.snapshots.ListCandidates(ctx, c.Markets, c.Industries)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	result := s.screener.Screen(candidates, c)

	return &Response{
		Data:       result.Items,
		Total:      result.Total,
		Conditions: c,
		Filtered:   result.Filtered,
	}, nil
}

// ScreenPreset runs preset id with overrides layered on top
func (s *Service) ScreenPreset(ctx context.Context, id string, overrides Criteria) (*Response, error) {
	p, ok := FindPreset(s.presets, id)
	if !ok {
		return nil, fmt.Errorf("preset %q: %w", id, contracts.ErrNotFound)
	}
	return s.Screen(ctx, p.Conditions.Merge(overrides))
}

// Presets returns the configured presets
func (s *Service) Presets() []Preset {
	return s.presets
}

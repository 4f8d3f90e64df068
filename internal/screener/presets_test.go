package screener

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

func TestLoadPresets_Embedded(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)
	require.Len(t, presets, 3)

	hd, ok := FindPreset(presets, "high_dividend")
	require.True(t, ok)
	assert.Equal(t, 5.0, *hd.Conditions.DividendYieldMin)
	assert.Equal(t, 20.0, *hd.Conditions.PEMax)
	assert.Equal(t, 3, *hd.Conditions.ConsecutiveDividendYearsMin)

	lv, ok := FindPreset(presets, "low_valuation")
	require.True(t, ok)
	assert.Equal(t, 20.0, *lv.Conditions.PEPercentileMax)
	assert.Equal(t, 20.0, *lv.Conditions.PBPercentileMax)

	qg, ok := FindPreset(presets, "quality_growth")
	require.True(t, ok)
	assert.Equal(t, 15.0, *qg.Conditions.ROEMin)
	assert.Equal(t, 20.0, *qg.Conditions.RevenueGrowthMin)

	_, ok = FindPreset(presets, "missing")
	assert.False(t, ok)
}

func TestParsePresets_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "presets:\n  - id: x\n    conditions:\n      pe_maxx: 10\n"},
		{"missing id", "presets:\n  - name: x\n"},
		{"duplicate id", "presets:\n  - id: a\n  - id: a\n"},
		{"invalid conditions", "presets:\n  - id: a\n    conditions:\n      pe_min: 30\n      pe_max: 10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePresets([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadPresets_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - id: net_cash\n    name: 净现金\n    conditions:\n      pb_max: 1\n"), 0o644))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "净现金", presets[0].Name)

	_, err = LoadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

type fakeSnapshots struct {
	items      []*contracts.IndicatorSnapshot
	err        error
	markets    []string
	industries []string
}

func (f *fakeSnapshots) GetByCode(ctx context.Context, code string) (*contracts.IndicatorSnapshot, error) {
	for _, it := range f.items {
		if it.Code == code {
			return it, nil
		}
	}
	return nil, contracts.ErrNotFound
}

func (f *fakeSnapshots) ListCandidates(ctx context.Context, markets, industries []string) ([]*contracts.IndicatorSnapshot, error) {
	f.markets, f.industries = markets, industries
	return f.items, f.err
}

func (f *fakeSnapshots) Upsert(ctx context.Context, s *contracts.IndicatorSnapshot) error {
	return nil
}

func TestService_Screen(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)

	repo := &fakeSnapshots{items: universe()}
	svc := NewService(repo, NewScreener(100, logger.Nop()), presets, logger.Nop())
	ctx := context.Background()

	resp, err := svc.Screen(ctx, Criteria{PEMax: f(20), Markets: []string{"A 股"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"601398", "000333"}, codes(resp.Data))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, []string{"A 股"}, repo.markets)

	_, err = svc.Screen(ctx, Criteria{PEMin: f(30), PEMax: f(1)})
	assert.ErrorIs(t, err, ErrInvalidCriteria)

	resp, err = svc.ScreenPreset(ctx, "high_dividend", Criteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{"601398", "000333"}, codes(resp.Data))

	_, err = svc.ScreenPreset(ctx, "nope", Criteria{})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	repo.err = errors.New("connection refused")
	_, err = svc.Screen(ctx, Criteria{})
	assert.ErrorContains(t, err, "connection refused")

	assert.Len(t, svc.Presets(), 3)
}

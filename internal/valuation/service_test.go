package valuation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/indicator"
	"github.com/wonny/valuescope/backend/pkg/config"
	"github.com/wonny/valuescope/backend/pkg/logger"
	"github.com/wonny/valuescope/backend/pkg/redis"
)

func fp(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeStore struct {
	mu        sync.Mutex
	stocks    []*contracts.Stock
	bars      map[string][]*contracts.DailyBar // newest first
	reports   map[string][]*contracts.Financial
	dividends map[string][]*contracts.Dividend
	saved     map[string]*contracts.IndicatorSnapshot
}

func (f *fakeStore) List(ctx context.Context, q contracts.StockQuery) ([]*contracts.Stock, int, error) {
	return f.stocks, len(f.stocks), nil
}

func (f *fakeStore) GetByCode(ctx context.Context, code string) (*contracts.Stock, error) {
	for _, s := range f.stocks {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, contracts.ErrNotFound
}

func (f *fakeStore) ListActive(ctx context.Context) ([]*contracts.Stock, error) { return f.stocks, nil }

func (f *fakeStore) UpsertBatch(ctx context.Context, stocks []*contracts.Stock) (int, error) {
	return len(stocks), nil
}

type fakeDaily struct{ *fakeStore }

func (f fakeDaily) Range(ctx context.Context, stockID string, from, to *time.Time) ([]*contracts.DailyBar, error) {
	var out []*contracts.DailyBar
	for _, b := range f.bars[stockID] {
		if (from == nil || !b.Date.Before(*from)) && (to == nil || !b.Date.After(*to)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f fakeDaily) Latest(ctx context.Context, stockID string) (*contracts.DailyBar, error) {
	bars := f.bars[stockID]
	if len(bars) == 0 {
		return nil, contracts.ErrNotFound
	}
	return bars[0], nil
}

func (f fakeDaily) UpsertBatch(ctx context.Context, bars []*contracts.DailyBar) (int, error) {
	return len(bars), nil
}

type fakeFinancials struct{ *fakeStore }

func (f fakeFinancials) ListByStock(ctx context.Context, stockID string) ([]*contracts.Financial, error) {
	return f.reports[stockID], nil
}

func (f fakeFinancials) UpsertBatch(ctx context.Context, fs []*contracts.Financial) (int, error) {
	return len(fs), nil
}

type fakeDividends struct{ *fakeStore }

func (f fakeDividends) ListByStock(ctx context.Context, stockID string) ([]*contracts.Dividend, error) {
	return f.dividends[stockID], nil
}

func (f fakeDividends) UpsertBatch(ctx context.Context, ds []*contracts.Dividend) (int, error) {
	return len(ds), nil
}

type fakeSnapshots struct{ *fakeStore }

func (f fakeSnapshots) GetByCode(ctx context.Context, code string) (*contracts.IndicatorSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.saved[code]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return s, nil
}

func (f fakeSnapshots) ListCandidates(ctx context.Context, markets, industries []string) ([]*contracts.IndicatorSnapshot, error) {
	return nil, nil
}

func (f fakeSnapshots) Upsert(ctx context.Context, s *contracts.IndicatorSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[s.Code] = s
	return nil
}

func newFixture() *fakeStore {
	cmb := &contracts.Stock{ID: "s1", Code: "600036", Name: "招商银行", Market: "A 股", Industry: "银行"}
	fresh := &contracts.Stock{ID: "s2", Code: "688999", Name: "新股", Market: "A 股"}

	return &fakeStore{
		stocks: []*contracts.Stock{cmb, fresh},
		bars: map[string][]*contracts.DailyBar{
			"s1": {
				{Date: day("2024-06-28"), Close: fp(30), TotalMV: fp(7500000)},
				{Date: day("2024-06-27"), Close: fp(29.8), PETTM: fp(4), PB: fp(1)},
				{Date: day("2023-06-28"), Close: fp(31), PETTM: fp(5), PB: fp(2)},
				{Date: day("2021-06-28"), Close: fp(40), PETTM: fp(6)},
				{Date: day("2020-06-29"), Close: fp(35), PETTM: fp(8)},
				{Date: day("2018-06-28"), Close: fp(20), PETTM: fp(1)}, // outside 5y window
			},
		},
		reports: map[string][]*contracts.Financial{
			"s1": {
				{ReportDate: day("2024-03-31"), Revenue: fp(10e9), NetProfit: fp(4e9), Equity: fp(5e10), OperatingCashFlow: fp(6e9)},
				{ReportDate: day("2023-12-31"), NetProfit: fp(14e9)},
				{ReportDate: day("2023-09-30"), NetProfit: fp(10.5e9)},
				{ReportDate: day("2023-06-30"), NetProfit: fp(7e9)},
				{ReportDate: day("2023-03-31"), Revenue: fp(8e9), NetProfit: fp(3.5e9)},
			},
		},
		dividends: map[string][]*contracts.Dividend{
			"s1": {
				{ExDate: day("2024-06-20"), CashPerShare: 1.5},
				{ExDate: day("2023-07-10"), CashPerShare: 1.2},
				{ExDate: day("2022-07-11"), CashPerShare: 1.0},
			},
		},
		saved: map[string]*contracts.IndicatorSnapshot{},
	}
}

func newTestService(f *fakeStore) *Service {
	return NewService(f, fakeDaily{f}, fakeFinancials{f}, fakeDividends{f}, fakeSnapshots{f},
		config.ValuationConfig{LookbackYears: 5, Workers: 2}, logger.Nop())
}

func TestBuild_DerivesMissingProviderValues(t *testing.T) {
	f := newFixture()
	snap, err := newTestService(f).Build(context.Background(), f.stocks[0])
	require.NoError(t, err)

	assert.Equal(t, "600036", snap.Code)
	assert.Equal(t, "银行", snap.Industry)
	assert.True(t, snap.AsOf.Equal(day("2024-06-28")))
	assert.InDelta(t, 30, *snap.Price, 1e-9)
	assert.InDelta(t, 750, *snap.MarketCap, 1e-9)

	// 7.5e10 / (4 + 3.5 + 3.5 + 3.5)e9
	require.NotNil(t, snap.PETTM)
	assert.InDelta(t, 5.1724, *snap.PETTM, 1e-9)
	assert.InDelta(t, 1.5, *snap.PB, 1e-9)
	// (1.5 + 1.2) / 30
	assert.InDelta(t, 9, *snap.DividendYield, 1e-9)

	// history 4,5,6,8 (1 is outside the window)
	require.NotNil(t, snap.PEPercentile)
	assert.InDelta(t, 50, *snap.PEPercentile, 1e-9)
	assert.Equal(t, indicator.StatusFair, snap.ValuationStatus)
	assert.InDelta(t, 50, *snap.PBPercentile, 1e-9)

	assert.InDelta(t, 8, *snap.ROE, 1e-9)
	assert.InDelta(t, 25, *snap.RevenueGrowth, 1e-9)
	assert.InDelta(t, 14.2857, *snap.ProfitGrowth, 1e-9)
	assert.InDelta(t, 1.5, *snap.TrueMoneyIndex, 1e-9)
	assert.Equal(t, 3, snap.ConsecutiveDividendYears)
}

func TestBuild_PrefersProviderValues(t *testing.T) {
	f := newFixture()
	latest := f.bars["s1"][0]
	latest.PETTM, latest.PB, latest.DividendYield = fp(7), fp(0.9), fp(5.5)
	f.reports["s1"][0].ROE = fp(16.2)

	snap, err := newTestService(f).Build(context.Background(), f.stocks[0])
	require.NoError(t, err)

	assert.InDelta(t, 7, *snap.PETTM, 1e-9)
	assert.InDelta(t, 0.9, *snap.PB, 1e-9)
	assert.InDelta(t, 5.5, *snap.DividendYield, 1e-9)
	assert.InDelta(t, 16.2, *snap.ROE, 1e-9)
	// 7 is above 4,5,6 and itself is not below itself: 3 of 5
	assert.InDelta(t, 60, *snap.PEPercentile, 1e-9)
}

func TestBuild_NullsWhenUndefined(t *testing.T) {
	f := newFixture()
	f.bars["s1"] = []*contracts.DailyBar{{Date: day("2024-06-28"), Close: fp(30)}}
	f.reports["s1"] = nil
	f.dividends["s1"] = nil

	snap, err := newTestService(f).Build(context.Background(), f.stocks[0])
	require.NoError(t, err)

	assert.Nil(t, snap.PETTM)
	assert.Nil(t, snap.PB)
	assert.Nil(t, snap.MarketCap)
	assert.Nil(t, snap.PEPercentile)
	assert.Equal(t, indicator.StatusUnknown, snap.ValuationStatus)
	assert.Nil(t, snap.ROE)
	assert.Nil(t, snap.RevenueGrowth)
	assert.Nil(t, snap.TrueMoneyIndex)
	// no dividends in the trailing year is a real zero yield
	require.NotNil(t, snap.DividendYield)
	assert.Zero(t, *snap.DividendYield)
	assert.Zero(t, snap.ConsecutiveDividendYears)
}

func TestBuild_NoPriceData(t *testing.T) {
	f := newFixture()
	_, err := newTestService(f).Build(context.Background(), f.stocks[1])
	assert.ErrorIs(t, err, ErrNoPriceData)
}

func TestRefreshAll(t *testing.T) {
	f := newFixture()
	res, err := newTestService(f).RefreshAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Failed)

	require.Contains(t, f.saved, "600036")
	assert.NotContains(t, f.saved, "688999")
}

func TestRefresh_UnknownStock(t *testing.T) {
	_, err := newTestService(newFixture()).Refresh(context.Background(), "000000")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestRefresh_WithDisabledCache(t *testing.T) {
	f := newFixture()
	svc := newTestService(f).WithCache(redis.NewCache(redis.Disabled(), "test"))

	snap, err := svc.Refresh(context.Background(), "600036")
	require.NoError(t, err)
	assert.Equal(t, "600036", snap.Code)
	assert.Contains(t, f.saved, "600036")
}

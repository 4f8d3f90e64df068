// Package valuation builds indicator snapshots from stored market data.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/indicator"
	"github.com/wonny/valuescope/backend/pkg/config"
	"github.com/wonny/valuescope/backend/pkg/logger"
	"github.com/wonny/valuescope/backend/pkg/redis"
)

const dateKey = "20060102"

// ErrNoPriceData is returned by Build for a stock without daily bars
var ErrNoPriceData = errors.New("no daily price data")

// Service computes and stores indicator snapshots
// ⭐ SSOT: 지표 스냅샷 계산은 여기서만 (공식은 indicator 패키지)
type Service struct {
	stocks        contracts.StockRepository
	daily         contracts.DailyRepository
	financials    contracts.FinancialRepository
	dividends     contracts.DividendRepository
	snapshots     contracts.SnapshotRepository
	lookbackYears int
	workers       int
	cache         *redis.Cache
	logger        *logger.Logger
}

// NewService creates a new valuation service
func NewService(
	stocks contracts.StockRepository,
	daily contracts.DailyRepository,
	financials contracts.FinancialRepository,
	dividends contracts.DividendRepository,
	snapshots contracts.SnapshotRepository,
	cfg config.ValuationConfig,
	log *logger.Logger,
) *Service {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	lookback := cfg.LookbackYears
	if lookback < 1 {
		lookback = 5
	}
	return &Service{
		stocks:        stocks,
		daily:         daily,
		financials:    financials,
		dividends:     dividends,
		snapshots:     snapshots,
		lookbackYears: lookback,
		workers:       workers,
		logger:        log.WithField("module", "valuation"),
	}
}

// WithCache makes refreshes evict the cached indicators of the rebuilt stock
func (s *Service) WithCache(c *redis.Cache) *Service {
	s.cache = c
	return s
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, redis.IndicatorKey(code)); err != nil {
		s.logger.WithError(err).WithField("stock_code", code).Warn("Failed to evict cached indicators")
	}
}

// Build computes the snapshot of stock from its stored bars, reports and dividends
func (s *Service) Build(ctx context.Context, stock *contracts.Stock) (*contracts.IndicatorSnapshot, error) {
	latest, err := s.daily.Latest(ctx, stock.ID)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, ErrNoPriceData
	}
	if err != nil {
		return nil, fmt.Errorf("latest bar: %w", err)
	}

	since := latest.Date.AddDate(-s.lookbackYears, 0, 0)
	history, err := s.daily.Range(ctx, stock.ID, &since, &latest.Date)
	if err != nil {
		return nil, fmt.Errorf("daily history: %w", err)
	}
	reports, err := s.financials.ListByStock(ctx, stock.ID)
	if err != nil {
		return nil, fmt.Errorf("financials: %w", err)
	}
	dividends, err := s.dividends.ListByStock(ctx, stock.ID)
	if err != nil {
		return nil, fmt.Errorf("dividends: %w", err)
	}

	return compute(stock, latest, history, reports, dividends), nil
}

// compute assembles a snapshot. reports are ordered newest first.
func compute(stock *contracts.Stock, latest *contracts.DailyBar, history []*contracts.DailyBar,
	reports []*contracts.Financial, dividends []*contracts.Dividend) *contracts.IndicatorSnapshot {

	snap := &contracts.IndicatorSnapshot{
		StockID:  stock.ID,
		Code:     stock.Code,
		Name:     stock.Name,
		Market:   stock.Market,
		Industry: stock.Industry,
		AsOf:     latest.Date,
		Price:    latest.Close,
	}

	var mcYuan float64
	if latest.TotalMV != nil && *latest.TotalMV > 0 {
		snap.MarketCap = round(*latest.TotalMV/1e4, true) // 万元 → 亿
		mcYuan = *latest.TotalMV * 1e4
	}

	// PE / PB: provider values first, then derived from market cap
	snap.PETTM = latest.PETTM
	if snap.PETTM == nil && mcYuan > 0 {
		singles := indicator.SingleQuarter(profitReports(reports))
		snap.PETTM = round(indicator.PETTM(mcYuan, indicator.LastFourQuarters(singles)))
	}
	snap.PB = latest.PB
	if snap.PB == nil && mcYuan > 0 {
		if equity := latestValue(reports, func(f *contracts.Financial) *float64 { return f.Equity }); equity != nil {
			snap.PB = round(indicator.PB(mcYuan, *equity))
		}
	}

	snap.DividendYield = latest.DividendYield
	if snap.DividendYield == nil && latest.Close != nil {
		perShare := indicator.TrailingDividend(dividendInputs(dividends), latest.Date.Format(dateKey))
		snap.DividendYield = round(indicator.DividendYield(perShare, *latest.Close))
	}

	// percentiles over the lookback window
	if snap.PETTM != nil {
		snap.PEPercentile = indicator.Ptr(indicator.Percentile(*snap.PETTM, series(history, func(b *contracts.DailyBar) *float64 { return b.PETTM })))
	}
	if snap.PB != nil {
		snap.PBPercentile = indicator.Ptr(indicator.Percentile(*snap.PB, series(history, func(b *contracts.DailyBar) *float64 { return b.PB })))
	}
	snap.ValuationStatus = indicator.ValuationStatus(snap.PEPercentile)

	if len(reports) > 0 {
		last := reports[0]

		snap.ROE = last.ROE
		if snap.ROE == nil && last.NetProfit != nil && last.Equity != nil {
			snap.ROE = round(indicator.ROE(*last.NetProfit, *last.Equity))
		}

		if prev := yearEarlier(reports, last); prev != nil {
			if last.Revenue != nil && prev.Revenue != nil {
				snap.RevenueGrowth = round(indicator.GrowthRate(*last.Revenue, *prev.Revenue))
			}
			if last.NetProfit != nil && prev.NetProfit != nil {
				snap.ProfitGrowth = round(indicator.GrowthRate(*last.NetProfit, *prev.NetProfit))
			}
		}

		if last.OperatingCashFlow != nil && last.NetProfit != nil {
			snap.TrueMoneyIndex = round(indicator.TrueMoneyIndex(*last.OperatingCashFlow, *last.NetProfit))
		}
	}

	exDates := make([]string, 0, len(dividends))
	for _, d := range dividends {
		exDates = append(exDates, d.ExDate.Format(dateKey))
	}
	snap.ConsecutiveDividendYears = indicator.ConsecutiveDividendYears(exDates)

	return snap
}

func round(v float64, ok bool) *float64 {
	return indicator.Ptr(indicator.Round(v, 4), ok)
}

func profitReports(reports []*contracts.Financial) []indicator.Report {
	out := make([]indicator.Report, 0, len(reports))
	for _, f := range reports {
		if f.NetProfit != nil {
			out = append(out, indicator.Report{PeriodEnd: f.ReportDate.Format(dateKey), Value: *f.NetProfit})
		}
	}
	return out
}

func dividendInputs(dividends []*contracts.Dividend) []indicator.Dividend {
	out := make([]indicator.Dividend, 0, len(dividends))
	for _, d := range dividends {
		out = append(out, indicator.Dividend{ExDate: d.ExDate.Format(dateKey), CashPerShare: d.CashPerShare})
	}
	return out
}

func latestValue(reports []*contracts.Financial, field func(*contracts.Financial) *float64) *float64 {
	for _, f := range reports {
		if v := field(f); v != nil {
			return v
		}
	}
	return nil
}

func series(bars []*contracts.DailyBar, field func(*contracts.DailyBar) *float64) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		if v := field(b); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// yearEarlier finds the report for the same period one year before last
func yearEarlier(reports []*contracts.Financial, last *contracts.Financial) *contracts.Financial {
	want := last.ReportDate.AddDate(-1, 0, 0).Format(dateKey)
	for _, f := range reports {
		if f.ReportDate.Format(dateKey) == want {
			return f
		}
	}
	return nil
}

// Refresh rebuilds and stores the snapshot of one stock
func (s *Service) Refresh(ctx context.Context, code string) (*contracts.IndicatorSnapshot, error) {
	stock, err := s.stocks.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("stock %s: %w", code, err)
	}

	snap, err := s.Build(ctx, stock)
	if err != nil {
		return nil, fmt.Errorf("build snapshot %s: %w", code, err)
	}
	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return nil, err
	}
	s.invalidate(ctx, code)
	return snap, nil
}

// RefreshResult summarizes a RefreshAll run
type RefreshResult struct {
	Total    int           `json:"total"`
	Success  int           `json:"success"`
	Skipped  int           `json:"skipped"` // no price data yet
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// RefreshAll rebuilds snapshots of every active stock on a bounded worker pool
func (s *Service) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	start := time.Now()

	stocks, err := s.stocks.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active stocks: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"stock_count": len(stocks),
		"workers":     s.workers,
	}).Info("Starting snapshot refresh")

	stockCh := make(chan *contracts.Stock, len(stocks))
	errCh := make(chan error, len(stocks))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stock := range stockCh {
				errCh <- s.refreshOne(ctx, stock)
			}
		}()
	}

	for _, stock := range stocks {
		stockCh <- stock
	}
	close(stockCh)

	go func() {
		wg.Wait()
		close(errCh)
	}()

	res := &RefreshResult{Total: len(stocks)}
	for err := range errCh {
		switch {
		case err == nil:
			res.Success++
		case errors.Is(err, ErrNoPriceData):
			res.Skipped++
		default:
			res.Failed++
		}
	}
	res.Duration = time.Since(start)

	s.logger.WithFields(map[string]interface{}{
		"success":  res.Success,
		"skipped":  res.Skipped,
		"failed":   res.Failed,
		"duration": res.Duration,
	}).Info("Snapshot refresh completed")

	return res, nil
}

func (s *Service) refreshOne(ctx context.Context, stock *contracts.Stock) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snap, err := s.Build(ctx, stock)
	if err != nil {
		if !errors.Is(err, ErrNoPriceData) {
			s.logger.WithError(err).WithField("stock_code", stock.Code).Error("Failed to build snapshot")
		}
		return err
	}

	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		s.logger.WithError(err).WithField("stock_code", stock.Code).Error("Failed to save snapshot")
		return err
	}
	s.invalidate(ctx, stock.Code)
	return nil
}

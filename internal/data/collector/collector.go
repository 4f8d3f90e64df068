package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/external/tushare"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Source is the market data provider the collector pulls from.
// *tushare.Client implements it.
type Source interface {
	StockBasic(ctx context.Context, listStatus string) ([]tushare.StockBasic, error)
	Daily(ctx context.Context, tsCode string, from, to time.Time) ([]tushare.DailyRow, error)
	DailyBasic(ctx context.Context, tsCode string, from, to time.Time) ([]tushare.DailyBasicRow, error)
	Dividend(ctx context.Context, tsCode string) ([]tushare.DividendRow, error)
	Income(ctx context.Context, tsCode string) ([]tushare.IncomeRow, error)
	Cashflow(ctx context.Context, tsCode string) ([]tushare.CashflowRow, error)
	Balancesheet(ctx context.Context, tsCode string) ([]tushare.BalancesheetRow, error)
	FinaIndicator(ctx context.Context, tsCode string) ([]tushare.FinaIndicatorRow, error)
}

// Collector orchestrates data collection from the market data provider
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	source     Source
	stocks     contracts.StockRepository
	daily      contracts.DailyRepository
	financials contracts.FinancialRepository
	dividends  contracts.DividendRepository
	logger     *logger.Logger
	workers    int
	now        func() time.Time
}

// NewCollector creates a new Collector instance
func NewCollector(
	source Source,
	stocks contracts.StockRepository,
	daily contracts.DailyRepository,
	financials contracts.FinancialRepository,
	dividends contracts.DividendRepository,
	workers int,
	log *logger.Logger,
) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		source:     source,
		stocks:     stocks,
		daily:      daily,
		financials: financials,
		dividends:  dividends,
		logger:     log.WithField("module", "collector"),
		workers:    workers,
		now:        time.Now,
	}
}

// Result summarizes one sync run
type Result struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Rows    int               `json:"rows"`
	Errors  map[string]string `json:"errors,omitempty"` // code → error
}

// fetchResult is the outcome of one stock
type fetchResult struct {
	code  string
	count int
	err   error
}

// stockFunc syncs one stock and returns the number of rows written
type stockFunc func(ctx context.Context, stock *contracts.Stock) (int, error)

// resolve returns the stocks named by codes, or every active stock when codes is empty
func (c *Collector) resolve(ctx context.Context, codes []string) ([]*contracts.Stock, error) {
	if len(codes) == 0 {
		stocks, err := c.stocks.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("get active stocks: %w", err)
		}
		return stocks, nil
	}

	stocks := make([]*contracts.Stock, 0, len(codes))
	for _, code := range codes {
		s, err := c.stocks.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("stock %s: %w", code, err)
		}
		stocks = append(stocks, s)
	}
	return stocks, nil
}

// run fans stocks out to the worker pool. A failing stock is logged and counted, never fatal.
func (c *Collector) run(ctx context.Context, name string, stocks []*contracts.Stock, fn stockFunc) *Result {
	c.logger.WithFields(map[string]interface{}{
		"job":         name,
		"stock_count": len(stocks),
		"workers":     c.workers,
	}).Info("Starting collection")

	resultCh := make(chan fetchResult, len(stocks))
	stockCh := make(chan *contracts.Stock, len(stocks))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for stock := range stockCh {
				if err := ctx.Err(); err != nil {
					resultCh <- fetchResult{code: stock.Code, err: err}
					continue
				}

				count, err := fn(ctx, stock)
				if err != nil {
					c.logger.WithError(err).WithFields(map[string]interface{}{
						"job":        name,
						"worker":     workerID,
						"stock_code": stock.Code,
					}).Error("Failed to collect stock")
				}
				resultCh <- fetchResult{code: stock.Code, count: count, err: err}
			}
		}(i)
	}

	for _, stock := range stocks {
		stockCh <- stock
	}
	close(stockCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	res := &Result{Total: len(stocks)}
	for r := range resultCh {
		if r.err != nil {
			res.Failed++
			if res.Errors == nil {
				res.Errors = make(map[string]string)
			}
			res.Errors[r.code] = r.err.Error()
			continue
		}
		res.Success++
		res.Rows += r.count
	}

	c.logger.WithFields(map[string]interface{}{
		"job":     name,
		"success": res.Success,
		"failed":  res.Failed,
		"rows":    res.Rows,
		"total":   res.Total,
	}).Info("Collection completed")

	return res
}

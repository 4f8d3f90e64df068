package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/external/tushare"
)

// Default daily windows
const (
	SingleStockWindow = 365 * 24 * time.Hour
	AllStocksWindow   = 30 * 24 * time.Hour
)

// SyncDaily pulls bars and daily basics of codes (all active stocks when empty) in [from, to].
// A zero from defaults to the last year for one stock and the last 30 days otherwise.
func (c *Collector) SyncDaily(ctx context.Context, codes []string, from, to time.Time) (*Result, error) {
	stocks, err := c.resolve(ctx, codes)
	if err != nil {
		return nil, err
	}

	if to.IsZero() {
		to = c.now()
	}
	if from.IsZero() {
		window := AllStocksWindow
		if len(stocks) == 1 {
			window = SingleStockWindow
		}
		from = to.Add(-window)
	}

	return c.run(ctx, "daily_sync", stocks, func(ctx context.Context, stock *contracts.Stock) (int, error) {
		return c.syncDaily(ctx, stock, from, to)
	}), nil
}

func (c *Collector) syncDaily(ctx context.Context, stock *contracts.Stock, from, to time.Time) (int, error) {
	tsCode := tushare.TSCode(stock.Code)

	prices, err := c.source.Daily(ctx, tsCode, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetch daily: %w", err)
	}
	basics, err := c.source.DailyBasic(ctx, tsCode, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetch daily basic: %w", err)
	}

	bars := mergeDaily(stock.ID, prices, basics)
	n, err := c.daily.UpsertBatch(ctx, bars)
	if err != nil {
		return 0, fmt.Errorf("save daily: %w", err)
	}
	return n, nil
}

// mergeDaily joins prices with basics on trade date. Dates without a price row are dropped.
func mergeDaily(stockID string, prices []tushare.DailyRow, basics []tushare.DailyBasicRow) []*contracts.DailyBar {
	byDate := make(map[string]*contracts.DailyBar, len(prices))
	var order []string

	bar := func(date string) *contracts.DailyBar {
		if b, ok := byDate[date]; ok {
			return b
		}
		t, err := tushare.ParseDate(date)
		if err != nil {
			return nil
		}
		b := &contracts.DailyBar{StockID: stockID, Date: t}
		byDate[date] = b
		order = append(order, date)
		return b
	}

	for _, p := range prices {
		b := bar(p.TradeDate)
		if b == nil {
			continue
		}
		b.Open, b.High, b.Low, b.Close = p.Open, p.High, p.Low, p.Close
		b.Amount = p.Amount
		if p.Vol != nil {
			v := int64(math.Round(*p.Vol))
			b.Volume = &v
		}
	}

	for _, d := range basics {
		b, ok := byDate[d.TradeDate]
		if !ok {
			continue
		}
		b.PETTM, b.PB, b.DividendYield, b.TotalMV = d.PETTM, d.PB, d.DvRatio, d.TotalMV
	}

	out := make([]*contracts.DailyBar, 0, len(order))
	for _, date := range order {
		out = append(out, byDate[date])
	}
	return out
}

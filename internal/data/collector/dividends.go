package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/external/tushare"
)

// DivProcImplemented marks a dividend plan that has been paid out
const DivProcImplemented = "实施"

// SyncDividends pulls implemented cash dividends of codes (all active stocks when empty)
func (c *Collector) SyncDividends(ctx context.Context, codes []string) (*Result, error) {
	stocks, err := c.resolve(ctx, codes)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "dividend_sync", stocks, c.syncDividends), nil
}

func (c *Collector) syncDividends(ctx context.Context, stock *contracts.Stock) (int, error) {
	rows, err := c.source.Dividend(ctx, tushare.TSCode(stock.Code))
	if err != nil {
		return 0, fmt.Errorf("fetch dividends: %w", err)
	}

	n, err := c.dividends.UpsertBatch(ctx, implementedDividends(stock.ID, rows))
	if err != nil {
		return 0, fmt.Errorf("save dividends: %w", err)
	}
	return n, nil
}

// implementedDividends keeps paid plans with an ex-date, one per ex-date
func implementedDividends(stockID string, rows []tushare.DividendRow) []*contracts.Dividend {
	seen := make(map[string]bool, len(rows))
	out := make([]*contracts.Dividend, 0, len(rows))

	for _, r := range rows {
		if r.DivProc != DivProcImplemented || r.CashDivTax <= 0 || seen[r.ExDate] {
			continue
		}
		exDate, err := tushare.ParseDate(r.ExDate)
		if err != nil {
			continue
		}
		seen[r.ExDate] = true

		out = append(out, &contracts.Dividend{
			StockID:      stockID,
			ExDate:       exDate,
			AnnDate:      optionalDate(r.AnnDate),
			PayDate:      optionalDate(r.PayDate),
			CashPerShare: r.CashDivTax,
		})
	}
	return out
}

func optionalDate(s string) *time.Time {
	t, err := tushare.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

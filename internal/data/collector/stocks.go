package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/external/tushare"
)

// Market labels stored on stocks
const (
	MarketA = "A 股"
	MarketB = "B 股"
)

var listDateLayouts = []string{"20060102", "2006-01-02", "2006/01/02"}

// SyncStockList refreshes the catalog from the provider's listed stocks
func (c *Collector) SyncStockList(ctx context.Context) (*Result, error) {
	rows, err := c.source.StockBasic(ctx, "L")
	if err != nil {
		return nil, fmt.Errorf("fetch stock list: %w", err)
	}

	stocks := make([]*contracts.Stock, 0, len(rows))
	for _, r := range rows {
		code := r.Symbol
		if code == "" {
			code = tushare.Symbol(r.TSCode)
		}
		if code == "" || r.Name == "" {
			continue
		}
		stocks = append(stocks, &contracts.Stock{
			Code:       code,
			Name:       r.Name,
			Market:     mapMarket(r.Market, code),
			Industry:   r.Industry,
			ListedDate: parseListDate(r.ListDate),
			Status:     contracts.StockStatusActive,
		})
	}

	n, err := c.stocks.UpsertBatch(ctx, stocks)
	if err != nil {
		return nil, fmt.Errorf("save stock list: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"fetched": len(rows),
		"saved":   n,
	}).Info("Stock list synced")

	return &Result{Total: len(rows), Success: n, Failed: len(rows) - n, Rows: n}, nil
}

// mapMarket folds the provider's board names into A 股 / B 股
func mapMarket(board, code string) string {
	if strings.Contains(board, "B") || strings.HasPrefix(code, "900") || strings.HasPrefix(code, "200") {
		return MarketB
	}
	return MarketA
}

func parseListDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range listDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

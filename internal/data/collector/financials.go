package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/external/tushare"
)

// SyncFinancials pulls income, cash flow, balance sheet and ratio reports of codes (all active stocks when empty)
func (c *Collector) SyncFinancials(ctx context.Context, codes []string) (*Result, error) {
	stocks, err := c.resolve(ctx, codes)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, "financial_sync", stocks, c.syncFinancials), nil
}

func (c *Collector) syncFinancials(ctx context.Context, stock *contracts.Stock) (int, error) {
	tsCode := tushare.TSCode(stock.Code)

	income, err := c.source.Income(ctx, tsCode)
	if err != nil {
		return 0, fmt.Errorf("fetch income: %w", err)
	}
	cashflow, err := c.source.Cashflow(ctx, tsCode)
	if err != nil {
		return 0, fmt.Errorf("fetch cashflow: %w", err)
	}
	balances, err := c.source.Balancesheet(ctx, tsCode)
	if err != nil {
		return 0, fmt.Errorf("fetch balancesheet: %w", err)
	}
	ratios, err := c.source.FinaIndicator(ctx, tsCode)
	if err != nil {
		return 0, fmt.Errorf("fetch fina indicator: %w", err)
	}

	reports := mergeFinancials(stock.ID, statements{
		income:   income,
		cashflow: cashflow,
		balances: balances,
		ratios:   ratios,
	})
	n, err := c.financials.UpsertBatch(ctx, reports)
	if err != nil {
		return 0, fmt.Errorf("save financials: %w", err)
	}
	return n, nil
}

// statements are the provider reports of one stock
type statements struct {
	income   []tushare.IncomeRow
	cashflow []tushare.CashflowRow
	balances []tushare.BalancesheetRow
	ratios   []tushare.FinaIndicatorRow
}

// mergeFinancials joins the statements on end_date.
// The provider may repeat a period (restatements); the first row wins.
func mergeFinancials(stockID string, st statements) []*contracts.Financial {
	byDate := make(map[string]*contracts.Financial)

	report := func(endDate string) *contracts.Financial {
		if f, ok := byDate[endDate]; ok {
			return f
		}
		t, err := tushare.ParseDate(endDate)
		if err != nil {
			return nil
		}
		f := &contracts.Financial{StockID: stockID, ReportDate: t, ReportType: reportType(endDate)}
		byDate[endDate] = f
		return f
	}

	for _, r := range st.income {
		if f := report(r.EndDate); f != nil {
			if f.Revenue == nil {
				f.Revenue = r.TotalRevenue
			}
			if f.NetProfit == nil {
				f.NetProfit = r.NetIncome
			}
		}
	}
	for _, r := range st.cashflow {
		if f := report(r.EndDate); f != nil && f.OperatingCashFlow == nil {
			f.OperatingCashFlow = r.OperatingCashflow
		}
	}
	for _, r := range st.balances {
		f := report(r.EndDate)
		if f == nil || f.TotalAssets != nil || f.TotalLiabilities != nil || f.Equity != nil {
			continue
		}
		f.TotalAssets = r.TotalAssets
		f.TotalLiabilities = r.TotalLiabilities
		f.Equity = r.Equity
	}
	for _, r := range st.ratios {
		if f := report(r.EndDate); f != nil && f.ROE == nil {
			f.ROE = r.ROE
		}
	}

	out := make([]*contracts.Financial, 0, len(byDate))
	for _, f := range byDate {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.After(out[j].ReportDate) })
	return out
}

func reportType(endDate string) string {
	if strings.HasSuffix(endDate, "1231") {
		return contracts.ReportAnnual
	}
	return contracts.ReportQuarterly
}

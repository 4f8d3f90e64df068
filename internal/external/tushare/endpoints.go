package tushare

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the compact date format used by every Tushare date field and param
const DateLayout = "20060102"

// StockBasic is one row of stock_basic
type StockBasic struct {
	TSCode   string
	Symbol   string
	Name     string
	Industry string
	Market   string // 主板, 创业板, 科创板, 北交所, ...
	ListDate string
}

// DailyRow is one row of daily
type DailyRow struct {
	TSCode    string
	TradeDate string
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Vol       *float64 // 手
	Amount    *float64 // 千元
}

// DailyBasicRow is one row of daily_basic
type DailyBasicRow struct {
	TSCode    string
	TradeDate string
	PETTM     *float64
	PB        *float64
	DvRatio   *float64 // %
	TotalMV   *float64 // 万元
}

// DividendRow is one row of dividend
type DividendRow struct {
	TSCode     string
	EndDate    string
	AnnDate    string
	DivProc    string
	CashDivTax float64
	ExDate     string
	PayDate    string
}

// IncomeRow is one row of income
type IncomeRow struct {
	TSCode       string
	EndDate      string
	TotalRevenue *float64
	NetIncome    *float64 // n_income_attr_p
}

// CashflowRow is one row of cashflow
type CashflowRow struct {
	TSCode            string
	EndDate           string
	OperatingCashflow *float64 // n_cashflow_act
}

// BalancesheetRow is one row of balancesheet
type BalancesheetRow struct {
	TSCode           string
	EndDate          string
	TotalAssets      *float64
	TotalLiabilities *float64 // total_liab
	Equity           *float64 // total_hldr_eqy_exc_min_int
}

// FinaIndicatorRow is one row of fina_indicator
type FinaIndicatorRow struct {
	TSCode  string
	EndDate string
	ROE     *float64
}

// TSCode maps a 6-digit A-share code to its exchange-suffixed ts_code
func TSCode(code string) string {
	if strings.Contains(code, ".") || code == "" {
		return code
	}
	switch code[0] {
	case '6', '9':
		return code + ".SH"
	case '4', '8':
		return code + ".BJ"
	default:
		return code + ".SZ"
	}
}

// Symbol strips the exchange suffix of a ts_code
func Symbol(tsCode string) string {
	if i := strings.IndexByte(tsCode, '.'); i >= 0 {
		return tsCode[:i]
	}
	return tsCode
}

func dateRange(params map[string]string, from, to time.Time) {
	if !from.IsZero() {
		params["start_date"] = from.Format(DateLayout)
	}
	if !to.IsZero() {
		params["end_date"] = to.Format(DateLayout)
	}
}

// StockBasic lists stocks with the given list status (L, D or P)
func (c *Client) StockBasic(ctx context.Context, listStatus string) ([]StockBasic, error) {
	rows, err := c.call(ctx, "stock_basic",
		map[string]string{"list_status": listStatus},
		[]string{"ts_code", "symbol", "name", "industry", "market", "list_date"})
	if err != nil {
		return nil, err
	}

	out := make([]StockBasic, 0, len(rows))
	for _, r := range rows {
		out = append(out, StockBasic{
			TSCode:   r.String("ts_code"),
			Symbol:   r.String("symbol"),
			Name:     r.String("name"),
			Industry: r.String("industry"),
			Market:   r.String("market"),
			ListDate: r.String("list_date"),
		})
	}
	return out, nil
}

// Daily returns unadjusted daily bars of tsCode in [from, to]
func (c *Client) Daily(ctx context.Context, tsCode string, from, to time.Time) ([]DailyRow, error) {
	params := map[string]string{"ts_code": tsCode}
	dateRange(params, from, to)

	rows, err := c.call(ctx, "daily", params,
		[]string{"ts_code", "trade_date", "open", "high", "low", "close", "vol", "amount"})
	if err != nil {
		return nil, err
	}

	out := make([]DailyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, DailyRow{
			TSCode:    r.String("ts_code"),
			TradeDate: r.String("trade_date"),
			Open:      r.FloatPtr("open"),
			High:      r.FloatPtr("high"),
			Low:       r.FloatPtr("low"),
			Close:     r.FloatPtr("close"),
			Vol:       r.FloatPtr("vol"),
			Amount:    r.FloatPtr("amount"),
		})
	}
	return out, nil
}

// DailyBasic returns valuation basics of tsCode in [from, to]
func (c *Client) DailyBasic(ctx context.Context, tsCode string, from, to time.Time) ([]DailyBasicRow, error) {
	params := map[string]string{"ts_code": tsCode}
	dateRange(params, from, to)

	rows, err := c.call(ctx, "daily_basic", params,
		[]string{"ts_code", "trade_date", "pe_ttm", "pb", "dv_ratio", "total_mv"})
	if err != nil {
		return nil, err
	}

	out := make([]DailyBasicRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, DailyBasicRow{
			TSCode:    r.String("ts_code"),
			TradeDate: r.String("trade_date"),
			PETTM:     r.FloatPtr("pe_ttm"),
			PB:        r.FloatPtr("pb"),
			DvRatio:   r.FloatPtr("dv_ratio"),
			TotalMV:   r.FloatPtr("total_mv"),
		})
	}
	return out, nil
}

// Dividend returns every dividend plan of tsCode, whatever its progress
func (c *Client) Dividend(ctx context.Context, tsCode string) ([]DividendRow, error) {
	rows, err := c.call(ctx, "dividend",
		map[string]string{"ts_code": tsCode},
		[]string{"ts_code", "end_date", "ann_date", "div_proc", "cash_div_tax", "ex_date", "pay_date"})
	if err != nil {
		return nil, err
	}

	out := make([]DividendRow, 0, len(rows))
	for _, r := range rows {
		cash, _ := r.Float("cash_div_tax")
		out = append(out, DividendRow{
			TSCode:     r.String("ts_code"),
			EndDate:    r.String("end_date"),
			AnnDate:    r.String("ann_date"),
			DivProc:    r.String("div_proc"),
			CashDivTax: cash,
			ExDate:     r.String("ex_date"),
			PayDate:    r.String("pay_date"),
		})
	}
	return out, nil
}

// Income returns income statements of tsCode
func (c *Client) Income(ctx context.Context, tsCode string) ([]IncomeRow, error) {
	rows, err := c.call(ctx, "income",
		map[string]string{"ts_code": tsCode},
		[]string{"ts_code", "end_date", "total_revenue", "n_income_attr_p"})
	if err != nil {
		return nil, err
	}

	out := make([]IncomeRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, IncomeRow{
			TSCode:       r.String("ts_code"),
			EndDate:      r.String("end_date"),
			TotalRevenue: r.FloatPtr("total_revenue"),
			NetIncome:    r.FloatPtr("n_income_attr_p"),
		})
	}
	return out, nil
}

// Cashflow returns cash flow statements of tsCode
func (c *Client) Cashflow(ctx context.Context, tsCode string) ([]CashflowRow, error) {
	rows, err := c.call(ctx, "cashflow",
		map[string]string{"ts_code": tsCode},
		[]string{"ts_code", "end_date", "n_cashflow_act"})
	if err != nil {
		return nil, err
	}

	out := make([]CashflowRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, CashflowRow{
			TSCode:            r.String("ts_code"),
			EndDate:           r.String("end_date"),
			OperatingCashflow: r.FloatPtr("n_cashflow_act"),
		})
	}
	return out, nil
}

// Balancesheet returns balance sheets of tsCode
func (c *Client) Balancesheet(ctx context.Context, tsCode string) ([]BalancesheetRow, error) {
	rows, err := c.call(ctx, "balancesheet",
		map[string]string{"ts_code": tsCode},
		[]string{"ts_code", "end_date", "total_assets", "total_liab", "total_hldr_eqy_exc_min_int"})
	if err != nil {
		return nil, err
	}

	out := make([]BalancesheetRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, BalancesheetRow{
			TSCode:           r.String("ts_code"),
			EndDate:          r.String("end_date"),
			TotalAssets:      r.FloatPtr("total_assets"),
			TotalLiabilities: r.FloatPtr("total_liab"),
			Equity:           r.FloatPtr("total_hldr_eqy_exc_min_int"),
		})
	}
	return out, nil
}

// FinaIndicator returns financial ratios of tsCode
func (c *Client) FinaIndicator(ctx context.Context, tsCode string) ([]FinaIndicatorRow, error) {
	rows, err := c.call(ctx, "fina_indicator",
		map[string]string{"ts_code": tsCode},
		[]string{"ts_code", "end_date", "roe"})
	if err != nil {
		return nil, err
	}

	out := make([]FinaIndicatorRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, FinaIndicatorRow{
			TSCode:  r.String("ts_code"),
			EndDate: r.String("end_date"),
			ROE:     r.FloatPtr("roe"),
		})
	}
	return out, nil
}

// ParseDate parses a Tushare date; empty input is an error
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid tushare date %q: %w", s, err)
	}
	return t, nil
}

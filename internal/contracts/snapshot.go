package contracts

import "time"

// IndicatorSnapshot is the latest computed indicator set of one stock.
// ⭐ SSOT: valuation → screener/alerts/ai 간 지표 전달 구조체
type IndicatorSnapshot struct {
	StockID                  string    `json:"-"`
	Code                     string    `json:"code"`
	Name                     string    `json:"name"`
	Market                   string    `json:"market"`
	Industry                 string    `json:"industry"`
	AsOf                     time.Time `json:"as_of"`
	Price                    *float64  `json:"current_price"`
	PETTM                    *float64  `json:"pe_ttm"`
	PB                       *float64  `json:"pb"`
	PEPercentile             *float64  `json:"pe_percentile"`
	PBPercentile             *float64  `json:"pb_percentile"`
	ValuationStatus          string    `json:"valuation_status"`
	DividendYield            *float64  `json:"dividend_yield"`
	ROE                      *float64  `json:"roe"`
	RevenueGrowth            *float64  `json:"revenue_growth"`
	ProfitGrowth             *float64  `json:"profit_growth"`
	TrueMoneyIndex           *float64  `json:"true_money_index"`
	MarketCap                *float64  `json:"market_cap"` // 亿
	ConsecutiveDividendYears int       `json:"consecutive_dividend_years"`
}

package contracts

import "time"

// Stock is one listed security in the catalog
type Stock struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Market     string     `json:"market"`
	Industry   string     `json:"industry"`
	Sector     string     `json:"sector"`
	ListedDate *time.Time `json:"listed_date,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// StockStatusActive marks stocks that are synced and scored
const StockStatusActive = "active"

// DailyBar is one trading day of prices plus the provider's daily basics
type DailyBar struct {
	StockID       string    `json:"-"`
	Date          time.Time `json:"date"`
	Open          *float64  `json:"open"`
	High          *float64  `json:"high"`
	Low           *float64  `json:"low"`
	Close         *float64  `json:"close"`
	Volume        *int64    `json:"volume"` // 手
	Amount        *float64  `json:"amount"` // 千元
	PETTM         *float64  `json:"pe_ttm"`
	PB            *float64  `json:"pb"`
	DividendYield *float64  `json:"dividend_yield"`
	TotalMV       *float64  `json:"total_mv"` // 万元
}

// Report types
const (
	ReportAnnual    = "annual"
	ReportQuarterly = "quarterly"
)

// Financial is one reporting period. Flow items are cumulative year-to-date.
type Financial struct {
	StockID           string    `json:"-"`
	ReportDate        time.Time `json:"report_date"`
	ReportType        string    `json:"report_type"`
	Revenue           *float64  `json:"revenue"`
	NetProfit         *float64  `json:"net_profit"`
	OperatingCashFlow *float64  `json:"operating_cash_flow"`
	TotalAssets       *float64  `json:"total_assets"`
	TotalLiabilities  *float64  `json:"total_liabilities"`
	Equity            *float64  `json:"equity"`
	ROE               *float64  `json:"roe"`
}

// Dividend is one implemented cash distribution
type Dividend struct {
	StockID      string     `json:"-"`
	ExDate       time.Time  `json:"ex_date"`
	AnnDate      *time.Time `json:"ann_date,omitempty"`
	PayDate      *time.Time `json:"pay_date,omitempty"`
	CashPerShare float64    `json:"cash_per_share"`
}

// StockQuery filters the catalog listing
type StockQuery struct {
	Search   string
	Market   string
	Page     int
	PageSize int
}

// Offset returns the row offset of the page
func (q StockQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

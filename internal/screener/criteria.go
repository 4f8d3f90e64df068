package screener

import (
	"errors"
	"fmt"

	"github.com/wonny/valuescope/backend/pkg/validation"
)

// Sort keys
const (
	SortDividendYield = "dividend_yield"
	SortPETTM         = "pe_ttm"
	SortPB            = "pb"
	SortROE           = "roe"
	SortMarketCap     = "market_cap"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// ErrInvalidCriteria marks a request that fails validation
var ErrInvalidCriteria = errors.New("invalid criteria")

// Criteria is a screen request. Every bound is optional; an unset bound
// does not filter.
type Criteria struct {
	PEMin *float64 `json:"pe_min,omitempty" yaml:"pe_min,omitempty"`
	PEMax *float64 `json:"pe_max,omitempty" yaml:"pe_max,omitempty"`
	PBMin *float64 `json:"pb_min,omitempty" yaml:"pb_min,omitempty"`
	PBMax *float64 `json:"pb_max,omitempty" yaml:"pb_max,omitempty"`

	PEPercentileMax *float64 `json:"pe_percentile_max,omitempty" yaml:"pe_percentile_max,omitempty" validate:"omitempty,gte=0,lte=100"`
	PBPercentileMax *float64 `json:"pb_percentile_max,omitempty" yaml:"pb_percentile_max,omitempty" validate:"omitempty,gte=0,lte=100"`

	DividendYieldMin *float64 `json:"dividend_yield_min,omitempty" yaml:"dividend_yield_min,omitempty" validate:"omitempty,gte=0"`
	ROEMin           *float64 `json:"roe_min,omitempty" yaml:"roe_min,omitempty"`
	RevenueGrowthMin *float64 `json:"revenue_growth_min,omitempty" yaml:"revenue_growth_min,omitempty"`
	ProfitGrowthMin  *float64 `json:"profit_growth_min,omitempty" yaml:"profit_growth_min,omitempty"`

	// 亿 CNY
	MarketCapMin *float64 `json:"market_cap_min,omitempty" yaml:"market_cap_min,omitempty" validate:"omitempty,gte=0"`
	MarketCapMax *float64 `json:"market_cap_max,omitempty" yaml:"market_cap_max,omitempty" validate:"omitempty,gte=0"`

	Markets    []string `json:"markets,omitempty" yaml:"markets,omitempty" validate:"omitempty,dive,required"`
	Industries []string `json:"industries,omitempty" yaml:"industries,omitempty" validate:"omitempty,dive,required"`

	ConsecutiveDividendYearsMin *int     `json:"consecutive_dividend_years_min,omitempty" yaml:"consecutive_dividend_years_min,omitempty" validate:"omitempty,gte=0"`
	TrueMoneyIndexMin           *float64 `json:"true_money_index_min,omitempty" yaml:"true_money_index_min,omitempty"`

	SortBy string `json:"sort_by,omitempty" yaml:"sort_by,omitempty" validate:"omitempty,oneof=dividend_yield pe_ttm pb roe market_cap"`
	Limit  int    `json:"limit,omitempty" yaml:"limit,omitempty" validate:"omitempty,gte=1,lte=500"`
}

// Validate checks field ranges and min/max ordering
func (c *Criteria) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}

	pairs := []struct {
		name     string
		min, max *float64
	}{
		{"pe", c.PEMin, c.PEMax},
		{"pb", c.PBMin, c.PBMax},
		{"market_cap", c.MarketCapMin, c.MarketCapMax},
	}
	for _, p := range pairs {
		if p.min != nil && p.max != nil && *p.min > *p.max {
			return fmt.Errorf("%w: %s_min %.4g exceeds %s_max %.4g", ErrInvalidCriteria, p.name, *p.min, p.name, *p.max)
		}
	}

	return nil
}

// Merge overlays the bounds set in o onto a copy of c
func (c Criteria) Merge(o Criteria) Criteria {
	out := c
	setF := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	setF(&out.PEMin, o.PEMin)
	setF(&out.PEMax, o.PEMax)
	setF(&out.PBMin, o.PBMin)
	setF(&out.PBMax, o.PBMax)
	setF(&out.PEPercentileMax, o.PEPercentileMax)
	setF(&out.PBPercentileMax, o.PBPercentileMax)
	setF(&out.DividendYieldMin, o.DividendYieldMin)
	setF(&out.ROEMin, o.ROEMin)
	setF(&out.RevenueGrowthMin, o.RevenueGrowthMin)
	setF(&out.ProfitGrowthMin, o.ProfitGrowthMin)
	setF(&out.MarketCapMin, o.MarketCapMin)
	setF(&out.MarketCapMax, o.MarketCapMax)
	setF(&out.TrueMoneyIndexMin, o.TrueMoneyIndexMin)
	if o.ConsecutiveDividendYearsMin != nil {
		out.ConsecutiveDividendYearsMin = o.ConsecutiveDividendYearsMin
	}
	if len(o.Markets) > 0 {
		out.Markets = o.Markets
	}
	if len(o.Industries) > 0 {
		out.Industries = o.Industries
	}
	if o.SortBy != "" {
		out.SortBy = o.SortBy
	}
	if o.Limit > 0 {
		out.Limit = o.Limit
	}
	return out
}

func (c *Criteria) sortKey() string {
	if c.SortBy == "" {
		return SortDividendYield
	}
	return c.SortBy
}

func (c *Criteria) limit(fallback int) int {
	switch {
	case c.Limit > 0 && c.Limit <= MaxLimit:
		return c.Limit
	case c.Limit > MaxLimit:
		return MaxLimit
	case fallback > 0 && fallback <= MaxLimit:
		return fallback
	default:
		return DefaultLimit
	}
}

package screener

import (
	"sort"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Screener applies range conditions to indicator snapshots and ranks the survivors
// ⭐ SSOT: 스크리닝 조건/정렬 로직은 여기서만
type Screener struct {
	defaultLimit int
	logger       *logger.Logger
}

// Result is the outcome of one screen
type Result struct {
	Items    []*contracts.IndicatorSnapshot
	Total    int            // matches before the limit
	Filtered map[string]int // first failing condition -> count
}

// NewScreener creates a new screener
func NewScreener(defaultLimit int, log *logger.Logger) *Screener {
	return &Screener{
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// Screen filters candidates by c, sorts them and applies the limit.
// c must already be validated.
func (s *Screener) Screen(candidates []*contracts.IndicatorSnapshot, c Criteria) *Result {
	passed := make([]*contracts.IndicatorSnapshot, 0, len(candidates))
	filtered := make(map[string]int)

	for _, snap := range candidates {
		if reason := checkConditions(snap, &c); reason != "" {
			filtered[reason]++
			continue
		}
		passed = append(passed, snap)
	}

	rank(passed, c.sortKey())

	total := len(passed)
	if limit := c.limit(s.defaultLimit); len(passed) > limit {
		passed = passed[:limit]
	}

	s.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"passed":     total,
		"returned":   len(passed),
		"filters":    filtered,
	}).Debug("Screening completed")

	return &Result{Items: passed, Total: total, Filtered: filtered}
}

// checkConditions returns "" when snap satisfies every set bound, otherwise
// the name of the first failing bound. A bound on a null metric fails.
func checkConditions(snap *contracts.IndicatorSnapshot, c *Criteria) string {
	if len(c.Markets) > 0 && !contains(c.Markets, snap.Market) {
		return "markets"
	}
	if len(c.Industries) > 0 && !contains(c.Industries, snap.Industry) {
		return "industries"
	}

	checks := []struct {
		name  string
		bound *float64
		value *float64
		isMin bool
	}{
		{"pe_min", c.PEMin, snap.PETTM, true},
		{"pe_max", c.PEMax, snap.PETTM, false},
		{"pb_min", c.PBMin, snap.PB, true},
		{"pb_max", c.PBMax, snap.PB, false},
		{"pe_percentile_max", c.PEPercentileMax, snap.PEPercentile, false},
		{"pb_percentile_max", c.PBPercentileMax, snap.PBPercentile, false},
		{"dividend_yield_min", c.DividendYieldMin, snap.DividendYield, true},
		{"roe_min", c.ROEMin, snap.ROE, true},
		{"revenue_growth_min", c.RevenueGrowthMin, snap.RevenueGrowth, true},
		{"profit_growth_min", c.ProfitGrowthMin, snap.ProfitGrowth, true},
		{"market_cap_min", c.MarketCapMin, snap.MarketCap, true},
		{"market_cap_max", c.MarketCapMax, snap.MarketCap, false},
		{"true_money_index_min", c.TrueMoneyIndexMin, snap.TrueMoneyIndex, true},
	}

	for _, chk := range checks {
		if chk.bound == nil {
			continue
		}
		if chk.value == nil {
			return chk.name
		}
		if chk.isMin && *chk.value < *chk.bound {
			return chk.name
		}
		if !chk.isMin && *chk.value > *chk.bound {
			return chk.name
		}
	}

	if c.ConsecutiveDividendYearsMin != nil && snap.ConsecutiveDividendYears < *c.ConsecutiveDividendYearsMin {
		return "consecutive_dividend_years_min"
	}

	return ""
}

// rank orders snapshots by key. Nulls sort last, ties by code.
func rank(items []*contracts.IndicatorSnapshot, key string) {
	metric, desc := sortMetric(key)

	sort.SliceStable(items, func(i, j int) bool {
		a, b := metric(items[i]), metric(items[j])
		switch {
		case a == nil && b == nil:
			return items[i].Code < items[j].Code
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			if desc {
				return *a > *b
			}
			return *a < *b
		default:
			return items[i].Code < items[j].Code
		}
	})
}

func sortMetric(key string) (func(*contracts.IndicatorSnapshot) *float64, bool) {
	switch key {
	case SortPETTM:
		return func(s *contracts.IndicatorSnapshot) *float64 { return s.PETTM }, false
	case SortPB:
		return func(s *contracts.IndicatorSnapshot) *float64 { return s.PB }, false
	case SortROE:
		return func(s *contracts.IndicatorSnapshot) *float64 { return s.ROE }, true
	case SortMarketCap:
		return func(s *contracts.IndicatorSnapshot) *float64 { return s.MarketCap }, true
	default:
		return func(s *contracts.IndicatorSnapshot) *float64 { return s.DividendYield }, true
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

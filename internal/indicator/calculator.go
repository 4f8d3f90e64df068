// Package indicator holds the pure valuation and quality formulas.
//
// Every function returns (value, ok). ok is false when the inputs make the
// indicator undefined (zero or negative denominators, empty history); callers
// persist that as NULL rather than as zero.
package indicator

import "math"

// DividendYield returns dividend per share / price in percent
func DividendYield(dividendPerShare, price float64) (float64, bool) {
	if price <= 0 || !finite(price) || !finite(dividendPerShare) {
		return 0, false
	}
	return dividendPerShare / price * 100, true
}

// PETTM returns market cap over the trailing four quarters of net profit.
// Loss-making trailing years have no meaningful PE.
func PETTM(marketCap float64, netProfitsLast4Q []float64) (float64, bool) {
	if len(netProfitsLast4Q) == 0 {
		return 0, false
	}

	var sum float64
	for _, p := range netProfitsLast4Q {
		sum += p
	}
	if sum <= 0 || !finite(sum) {
		return 0, false
	}
	return marketCap / sum, true
}

// PB returns market cap over net assets
func PB(marketCap, netAssets float64) (float64, bool) {
	if netAssets <= 0 || !finite(netAssets) {
		return 0, false
	}
	return marketCap / netAssets, true
}

// TrueMoneyIndex returns operating cash flow over net profit ("真钱指数").
// Above 1 means profits are backed by cash.
func TrueMoneyIndex(operatingCashFlow, netProfit float64) (float64, bool) {
	if netProfit == 0 || !finite(netProfit) {
		return 0, false
	}
	return operatingCashFlow / netProfit, true
}

// ROE returns net profit over net assets in percent
func ROE(netProfit, netAssets float64) (float64, bool) {
	if netAssets <= 0 || !finite(netAssets) {
		return 0, false
	}
	return netProfit / netAssets * 100, true
}

// GrowthRate returns (current - previous) / previous in percent
func GrowthRate(current, previous float64) (float64, bool) {
	if previous <= 0 || !finite(previous) {
		return 0, false
	}
	return (current - previous) / previous * 100, true
}

// Ptr converts a (value, ok) pair into a nullable value
func Ptr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Round rounds v to n decimal places
func Round(v float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return math.Round(v*p) / p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

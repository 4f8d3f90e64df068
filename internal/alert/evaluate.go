// Package alert evaluates user alert rules against indicator snapshots and
// delivers the ones that fire.
package alert

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

// comparisonPlaces is the precision of threshold comparisons (numeric(12,4))
const comparisonPlaces = 4

// MetricValue returns the snapshot metric an alert type watches
func MetricValue(alertType string, snap *contracts.IndicatorSnapshot) *float64 {
	if snap == nil {
		return nil
	}
	switch alertType {
	case contracts.AlertDividend:
		return snap.DividendYield
	case contracts.AlertPE:
		return snap.PETTM
	case contracts.AlertPB:
		return snap.PB
	case contracts.AlertPrice:
		return snap.Price
	default:
		return nil
	}
}

// Evaluate reports whether a fires on snap, and the compared value.
// A missing metric never fires.
func Evaluate(a *contracts.Alert, snap *contracts.IndicatorSnapshot) (decimal.Decimal, bool) {
	v := MetricValue(a.AlertType, snap)
	if v == nil {
		return decimal.Zero, false
	}

	value := decimal.NewFromFloat(*v).Round(comparisonPlaces)
	threshold := a.Threshold.Round(comparisonPlaces)

	switch a.Condition {
	case contracts.ConditionGT:
		return value, value.GreaterThan(threshold)
	case contracts.ConditionLT:
		return value, value.LessThan(threshold)
	case contracts.ConditionEQ:
		return value, value.Equal(threshold)
	default:
		return value, false
	}
}

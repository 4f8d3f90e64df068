package alert

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

func fp(v float64) *float64 { return &v }

func TestEvaluate(t *testing.T) {
	snap := &contracts.IndicatorSnapshot{
		Code:          "600036",
		Price:         fp(32.5),
		PETTM:         fp(6.12345),
		PB:            fp(0.95),
		DividendYield: fp(5.20004),
	}

	tests := []struct {
		name      string
		alertType string
		condition string
		threshold string
		fired     bool
		value     string
	}{
		{"dividend above", contracts.AlertDividend, contracts.ConditionGT, "5", true, "5.2"},
		{"dividend not above", contracts.AlertDividend, contracts.ConditionGT, "5.2", false, "5.2"},
		{"dividend equal after rounding", contracts.AlertDividend, contracts.ConditionEQ, "5.2", true, "5.2"},
		{"pe below", contracts.AlertPE, contracts.ConditionLT, "8", true, "6.1235"},
		{"pe equal at 4 places", contracts.AlertPE, contracts.ConditionEQ, "6.1235", true, "6.1235"},
		{"pb not below", contracts.AlertPB, contracts.ConditionLT, "0.95", false, "0.95"},
		{"price above", contracts.AlertPrice, contracts.ConditionGT, "30", true, "32.5"},
		{"unknown condition", contracts.AlertPrice, "ge", "30", false, "32.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &contracts.Alert{
				AlertType: tt.alertType,
				Condition: tt.condition,
				Threshold: decimal.RequireFromString(tt.threshold),
			}
			value, fired := Evaluate(a, snap)
			assert.Equal(t, tt.fired, fired)
			assert.Equal(t, tt.value, value.String())
		})
	}
}

func TestEvaluate_MissingMetricNeverFires(t *testing.T) {
	snap := &contracts.IndicatorSnapshot{Code: "600036"}
	for _, cond := range []string{contracts.ConditionGT, contracts.ConditionLT, contracts.ConditionEQ} {
		a := &contracts.Alert{AlertType: contracts.AlertPE, Condition: cond, Threshold: decimal.Zero}
		_, fired := Evaluate(a, snap)
		assert.False(t, fired, cond)
	}

	_, fired := Evaluate(&contracts.Alert{AlertType: contracts.AlertPrice, Condition: contracts.ConditionGT}, nil)
	assert.False(t, fired)
}

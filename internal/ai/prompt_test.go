package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

func TestCollectCodes(t *testing.T) {
	tests := []struct {
		name     string
		explicit []string
		message  string
		want     []string
	}{
		{"message only", nil, "招商银行600036和平安银行000001哪个更便宜？", []string{"600036", "000001"}},
		{"explicit first and deduplicated", []string{"000001"}, "对比600036与000001", []string{"000001", "600036"}},
		{"ignores longer numbers", nil, "订单号 1234567 与 2024 年", nil},
		{"capped", []string{"600000", "600001", "600002"}, "600003 600004 600005", []string{"600000", "600001", "600002", "600003", "600004"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollectCodes(tt.explicit, tt.message))
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, basePrompt, SystemPrompt(nil))

	dy := 5.2
	prompt := SystemPrompt([]*contracts.IndicatorSnapshot{{
		Code: "600036", Name: "招商银行", Industry: "银行",
		AsOf:          time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		DividendYield: &dy, ValuationStatus: "undervalued", ConsecutiveDividendYears: 12,
	}})

	assert.True(t, strings.HasPrefix(prompt, basePrompt))
	assert.Contains(t, prompt, "600036 招商银行（银行）2024-06-28")
	assert.Contains(t, prompt, "股息率 5.20%")
	assert.Contains(t, prompt, "PE(TTM) 无")
	assert.Contains(t, prompt, "连续分红 12 年")
}

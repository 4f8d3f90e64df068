package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

func f(v float64) *float64 { return &v }
func n(v int) *int         { return &v }

func universe() []*contracts.IndicatorSnapshot {
	return []*contracts.IndicatorSnapshot{
		{Code: "601398", Name: "工商银行", Market: "A 股", Industry: "银行",
			PETTM: f(5.2), PB: f(0.55), PEPercentile: f(12), PBPercentile: f(8),
			DividendYield: f(6.1), ROE: f(10.5), RevenueGrowth: f(-2), ProfitGrowth: f(0.8),
			MarketCap: f(22000), TrueMoneyIndex: f(1.9), ConsecutiveDividendYears: 18},
		{Code: "600519", Name: "贵州茅台", Market: "A 股", Industry: "白酒",
			PETTM: f(28.4), PB: f(9.1), PEPercentile: f(35), PBPercentile: f(40),
			DividendYield: f(1.6), ROE: f(34), RevenueGrowth: f(18), ProfitGrowth: f(19),
			MarketCap: f(21000), TrueMoneyIndex: f(1.1), ConsecutiveDividendYears: 22},
		{Code: "000333", Name: "美的集团", Market: "A 股", Industry: "家电",
			PETTM: f(12.8), PB: f(2.9), PEPercentile: f(18), PBPercentile: f(15),
			DividendYield: f(5.4), ROE: f(22), RevenueGrowth: f(21), ProfitGrowth: f(14),
			MarketCap: f(5200), TrueMoneyIndex: f(1.6), ConsecutiveDividendYears: 11},
		{Code: "300750", Name: "宁德时代", Market: "A 股", Industry: "电池",
			PETTM: f(24), PB: f(5), PEPercentile: f(10), PBPercentile: f(12),
			DividendYield: nil, ROE: f(24), RevenueGrowth: f(22), ProfitGrowth: f(44),
			MarketCap: f(9800), TrueMoneyIndex: f(2.3), ConsecutiveDividendYears: 2},
		{Code: "900901", Name: "云赛B股", Market: "B 股", Industry: "电子",
			PETTM: nil, PB: f(1.2), DividendYield: f(0.4),
			MarketCap: f(80)},
	}
}

func codes(items []*contracts.IndicatorSnapshot) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Code
	}
	return out
}

func TestScreener_Screen(t *testing.T) {
	s := NewScreener(100, logger.Nop())

	tests := []struct {
		name      string
		criteria  Criteria
		want      []string
		wantTotal int
		filtered  map[string]int
	}{
		{
			name:      "no conditions ranks by dividend yield, nulls last",
			criteria:  Criteria{},
			want:      []string{"601398", "000333", "600519", "900901", "300750"},
			wantTotal: 5,
			filtered:  map[string]int{},
		},
		{
			name:      "high dividend preset",
			criteria:  Criteria{DividendYieldMin: f(5), PEMax: f(20)},
			want:      []string{"601398", "000333"},
			wantTotal: 2,
			filtered:  map[string]int{"pe_max": 3},
		},
		{
			name:      "null metric fails a set bound",
			criteria:  Criteria{DividendYieldMin: f(0)},
			want:      []string{"601398", "000333", "600519", "900901"},
			wantTotal: 4,
			filtered:  map[string]int{"dividend_yield_min": 1},
		},
		{
			name:      "percentile caps sorted by pe",
			criteria:  Criteria{PEPercentileMax: f(20), PBPercentileMax: f(20), SortBy: SortPETTM},
			want:      []string{"601398", "000333", "300750"},
			wantTotal: 3,
			filtered:  map[string]int{"pe_percentile_max": 2},
		},
		{
			name:      "quality growth sorted by roe",
			criteria:  Criteria{ROEMin: f(15), RevenueGrowthMin: f(20), SortBy: SortROE},
			want:      []string{"300750", "000333"},
			wantTotal: 2,
			filtered:  map[string]int{"roe_min": 2, "revenue_growth_min": 1},
		},
		{
			name:      "market cap band in yi",
			criteria:  Criteria{MarketCapMin: f(1000), MarketCapMax: f(10000), SortBy: SortMarketCap},
			want:      []string{"300750", "000333"},
			wantTotal: 2,
			filtered:  map[string]int{"market_cap_min": 1, "market_cap_max": 2},
		},
		{
			name:      "market and industry lists",
			criteria:  Criteria{Markets: []string{"A 股"}, Industries: []string{"银行", "白酒"}},
			want:      []string{"601398", "600519"},
			wantTotal: 2,
			filtered:  map[string]int{"markets": 1, "industries": 2},
		},
		{
			name:      "consecutive dividend years",
			criteria:  Criteria{ConsecutiveDividendYearsMin: n(15)},
			want:      []string{"601398", "600519"},
			wantTotal: 2,
			filtered:  map[string]int{"consecutive_dividend_years_min": 3},
		},
		{
			name:      "limit keeps total",
			criteria:  Criteria{Limit: 2},
			want:      []string{"601398", "000333"},
			wantTotal: 5,
			filtered:  map[string]int{},
		},
		{
			name:      "true money index and growth",
			criteria:  Criteria{TrueMoneyIndexMin: f(1.5), ProfitGrowthMin: f(10), SortBy: SortPB},
			want:      []string{"000333", "300750"},
			wantTotal: 2,
			filtered:  map[string]int{"profit_growth_min": 2, "true_money_index_min": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.criteria.Validate())

			res := s.Screen(universe(), tt.criteria)
			assert.Equal(t, tt.want, codes(res.Items))
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.filtered, res.Filtered)
		})
	}
}

func TestRank_TiesBreakByCode(t *testing.T) {
	items := []*contracts.IndicatorSnapshot{
		{Code: "600036", PB: f(1)},
		{Code: "000001", PB: f(1)},
		{Code: "601166", PB: nil},
		{Code: "600000", PB: nil},
		{Code: "002142", PB: f(0.9)},
	}

	rank(items, SortPB)
	assert.Equal(t, []string{"002142", "000001", "600036", "600000", "601166"}, codes(items))
}

func TestCriteria_Validate(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		wantErr  bool
	}{
		{"empty", Criteria{}, false},
		{"full range", Criteria{PEMin: f(0), PEMax: f(30), PBMin: f(0.5), PBMax: f(3)}, false},
		{"pe inverted", Criteria{PEMin: f(30), PEMax: f(10)}, true},
		{"pb inverted", Criteria{PBMin: f(3), PBMax: f(1)}, true},
		{"market cap inverted", Criteria{MarketCapMin: f(1000), MarketCapMax: f(100)}, true},
		{"percentile over 100", Criteria{PEPercentileMax: f(120)}, true},
		{"negative percentile", Criteria{PBPercentileMax: f(-1)}, true},
		{"unknown sort", Criteria{SortBy: "volume"}, true},
		{"limit too large", Criteria{Limit: 501}, true},
		{"empty market entry", Criteria{Markets: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criteria.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCriteria)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCriteria_Merge(t *testing.T) {
	base := Criteria{DividendYieldMin: f(5), PEMax: f(20)}
	merged := base.Merge(Criteria{PEMax: f(15), Markets: []string{"A 股"}, Limit: 10})

	assert.Equal(t, 5.0, *merged.DividendYieldMin)
	assert.Equal(t, 15.0, *merged.PEMax)
	assert.Equal(t, []string{"A 股"}, merged.Markets)
	assert.Equal(t, 10, merged.Limit)
	assert.Equal(t, 20.0, *base.PEMax, "base must not change")
}

func TestCriteria_Limit(t *testing.T) {
	assert.Equal(t, 10, (&Criteria{Limit: 10}).limit(100))
	assert.Equal(t, 100, (&Criteria{}).limit(100))
	assert.Equal(t, DefaultLimit, (&Criteria{}).limit(0))
	assert.Equal(t, MaxLimit, (&Criteria{Limit: 10000}).limit(100))
}

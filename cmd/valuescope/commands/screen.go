package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/valuescope/backend/internal/screener"
)

var (
	screenPreset   string
	screenCriteria screener.Criteria
)

// float bound flags, applied only when set
var screenBounds = []struct {
	name  string
	usage string
	dst   func(c *screener.Criteria) **float64
}{
	{"pe-min", "PE(TTM) 하한", func(c *screener.Criteria) **float64 { return &c.PEMin }},
	{"pe-max", "PE(TTM) 상한", func(c *screener.Criteria) **float64 { return &c.PEMax }},
	{"pb-min", "PB 하한", func(c *screener.Criteria) **float64 { return &c.PBMin }},
	{"pb-max", "PB 상한", func(c *screener.Criteria) **float64 { return &c.PBMax }},
	{"pe-percentile-max", "PE 역사 분위 상한 (0-100)", func(c *screener.Criteria) **float64 { return &c.PEPercentileMax }},
	{"pb-percentile-max", "PB 역사 분위 상한 (0-100)", func(c *screener.Criteria) **float64 { return &c.PBPercentileMax }},
	{"dividend-yield-min", "배당수익률 하한 (%)", func(c *screener.Criteria) **float64 { return &c.DividendYieldMin }},
	{"roe-min", "ROE 하한 (%)", func(c *screener.Criteria) **float64 { return &c.ROEMin }},
	{"revenue-growth-min", "매출 성장률 하한 (%)", func(c *screener.Criteria) **float64 { return &c.RevenueGrowthMin }},
	{"profit-growth-min", "순이익 성장률 하한 (%)", func(c *screener.Criteria) **float64 { return &c.ProfitGrowthMin }},
	{"market-cap-min", "시가총액 하한 (亿)", func(c *screener.Criteria) **float64 { return &c.MarketCapMin }},
	{"market-cap-max", "시가총액 상한 (亿)", func(c *screener.Criteria) **float64 { return &c.MarketCapMax }},
	{"true-money-min", "真钱指数 하한", func(c *screener.Criteria) **float64 { return &c.TrueMoneyIndexMin }},
}

var screenDividendYears int

// screenCmd runs the screener from the terminal
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "선별 조건으로 종목 검색",
	Long: `저장된 지표 스냅샷을 조건으로 필터링하고 정렬해 표로 출력합니다.

Example:
  go run ./cmd/valuescope screen --preset high_dividend
  go run ./cmd/valuescope screen --pe-max 15 --dividend-yield-min 4 --sort-by dividend_yield
  go run ./cmd/valuescope screen --preset low_valuation --market "A 股" --limit 20`,
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)

	f := screenCmd.Flags()
	f.StringVar(&screenPreset, "preset", "", "프리셋 ID (high_dividend, low_valuation, quality_growth)")
	for _, b := range screenBounds {
		f.Float64(b.name, 0, b.usage)
	}
	f.IntVar(&screenDividendYears, "dividend-years-min", 0, "연속 배당 연수 하한")
	f.StringSliceVar(&screenCriteria.Markets, "market", nil, "시장 (쉼표 구분)")
	f.StringSliceVar(&screenCriteria.Industries, "industry", nil, "업종 (쉼표 구분)")
	f.StringVar(&screenCriteria.SortBy, "sort-by", "", "정렬 (dividend_yield|pe_ttm|pb|roe|market_cap)")
	f.IntVar(&screenCriteria.Limit, "limit", 0, "최대 결과 수 (기본 100, 최대 500)")
}

// criteriaFromFlags copies explicitly set bound flags into c
func criteriaFromFlags(cmd *cobra.Command, c screener.Criteria) (screener.Criteria, error) {
	for _, b := range screenBounds {
		if !cmd.Flags().Changed(b.name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(b.name)
		if err != nil {
			return c, err
		}
		*b.dst(&c) = &v
	}
	if cmd.Flags().Changed("dividend-years-min") {
		years := screenDividendYears
		c.ConsecutiveDividendYearsMin = &years
	}
	return c, nil
}

func runScreen(cmd *cobra.Command, args []string) error {
	criteria, err := criteriaFromFlags(cmd, screenCriteria)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.screener()
	if err != nil {
		return fmt.Errorf("init screener: %w", err)
	}

	var resp *screener.Response
	if screenPreset != "" {
		resp, err = svc.ScreenPreset(cmd.Context(), screenPreset, criteria)
	} else {
		resp, err = svc.Screen(cmd.Context(), criteria)
	}
	if err != nil {
		return err
	}

	tw := newTable("code", "name", "industry", "price", "PE", "PB", "PE pct", "valuation", "DY %", "ROE %", "cap 亿", "div yrs")
	for _, s := range resp.Data {
		tw.AppendRow(table.Row{
			s.Code, s.Name, s.Industry, num(s.Price), num(s.PETTM), num(s.PB), num(s.PEPercentile),
			s.ValuationStatus, num(s.DividendYield), num(s.ROE), num(s.MarketCap), s.ConsecutiveDividendYears,
		})
	}
	tw.SetCaption("%d matched, %d shown", resp.Total, len(resp.Data))
	tw.Render()

	if len(resp.Filtered) > 0 {
		tw := newTable("excluded by", "stocks")
		for reason, n := range resp.Filtered {
			tw.AppendRow(table.Row{reason, n})
		}
		tw.SortBy([]table.SortBy{{Name: "stocks", Mode: table.DscNumeric}})
		tw.Render()
	}
	return nil
}

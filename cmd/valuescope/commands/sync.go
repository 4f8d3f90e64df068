package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescope/backend/internal/data/collector"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Tushare 데이터 동기화",
	Long: `Tushare Pro 에서 데이터를 가져와 저장합니다.

Subcommands:
  stocks      - 종목 목록 (list_status=L)
  daily       - 일봉 + daily_basic (단일 종목 365일, 전체 30일)
  financials  - 손익/현금흐름/ROE
  dividends   - 실시된 현금 배당

Example:
  go run ./cmd/valuescope sync stocks
  go run ./cmd/valuescope sync daily --code 600036,000001 --from 2024-01-01
  go run ./cmd/valuescope sync dividends --code 600036`,
}

var (
	syncCodes []string
	syncFrom  string
	syncTo    string
)

var (
	syncStocksCmd = &cobra.Command{
		Use:   "stocks",
		Short: "종목 목록 동기화",
		RunE: withCollector(func(cmd *cobra.Command, c *collector.Collector) (*collector.Result, error) {
			return c.SyncStockList(cmd.Context())
		}),
	}

	syncDailyCmd = &cobra.Command{
		Use:   "daily",
		Short: "일봉 동기화",
		RunE: withCollector(func(cmd *cobra.Command, c *collector.Collector) (*collector.Result, error) {
			from, err := parseFlagDate("from", syncFrom)
			if err != nil {
				return nil, err
			}
			to, err := parseFlagDate("to", syncTo)
			if err != nil {
				return nil, err
			}
			return c.SyncDaily(cmd.Context(), syncCodes, from, to)
		}),
	}

	syncFinancialsCmd = &cobra.Command{
		Use:   "financials",
		Short: "재무 데이터 동기화",
		RunE: withCollector(func(cmd *cobra.Command, c *collector.Collector) (*collector.Result, error) {
			return c.SyncFinancials(cmd.Context(), syncCodes)
		}),
	}

	syncDividendsCmd = &cobra.Command{
		Use:   "dividends",
		Short: "배당 동기화",
		RunE: withCollector(func(cmd *cobra.Command, c *collector.Collector) (*collector.Result, error) {
			return c.SyncDividends(cmd.Context(), syncCodes)
		}),
	}
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncStocksCmd, syncDailyCmd, syncFinancialsCmd, syncDividendsCmd)

	for _, c := range []*cobra.Command{syncDailyCmd, syncFinancialsCmd, syncDividendsCmd} {
		c.Flags().StringSliceVar(&syncCodes, "code", nil, "종목 코드 (쉼표 구분, 기본: 전체 활성 종목)")
	}
	syncDailyCmd.Flags().StringVar(&syncFrom, "from", "", "시작일 YYYY-MM-DD")
	syncDailyCmd.Flags().StringVar(&syncTo, "to", "", "종료일 YYYY-MM-DD (기본: 오늘)")
}

func parseFlagDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD", name)
	}
	return t, nil
}

type syncFunc func(cmd *cobra.Command, c *collector.Collector) (*collector.Result, error)

// withCollector wires the collector and prints the result of fn
func withCollector(fn syncFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.collector()
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := fn(cmd, c)
		if err != nil {
			return err
		}

		printSummary("sync "+cmd.Name(), [][2]interface{}{
			{"stocks", res.Total},
			{"success", res.Success},
			{"failed", res.Failed},
			{"rows", res.Rows},
			{"duration", duration(time.Since(start))},
		})
		printErrors(res.Errors)
		return nil
	}
}

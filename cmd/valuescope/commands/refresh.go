package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCode string

// refreshCmd rebuilds indicator snapshots
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "지표 스냅샷 재계산",
	Long: `저장된 일봉/재무/배당 데이터로 지표 스냅샷을 다시 계산합니다.

Example:
  go run ./cmd/valuescope refresh
  go run ./cmd/valuescope refresh --code 600036`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().StringVar(&refreshCode, "code", "", "단일 종목 코드")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.valuation()

	if refreshCode != "" {
		snap, err := svc.Refresh(cmd.Context(), refreshCode)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", refreshCode, err)
		}
		printSummary(snap.Code+" "+snap.Name, [][2]interface{}{
			{"as of", snap.AsOf.Format("2006-01-02")},
			{"price", num(snap.Price)},
			{"PE(TTM)", num(snap.PETTM)},
			{"PB", num(snap.PB)},
			{"PE percentile", num(snap.PEPercentile)},
			{"valuation", snap.ValuationStatus},
			{"dividend yield %", num(snap.DividendYield)},
			{"ROE %", num(snap.ROE)},
			{"true money index", num(snap.TrueMoneyIndex)},
			{"consecutive dividend years", snap.ConsecutiveDividendYears},
		})
		return nil
	}

	res, err := svc.RefreshAll(cmd.Context())
	if err != nil {
		return err
	}
	printSummary("refresh", [][2]interface{}{
		{"stocks", res.Total},
		{"success", res.Success},
		{"skipped (no prices)", res.Skipped},
		{"failed", res.Failed},
		{"duration", duration(res.Duration)},
	})
	return nil
}

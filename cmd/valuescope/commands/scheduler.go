package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/valuescope/backend/internal/scheduler"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업 (Asia/Shanghai):
- stock_list_sync:   매주 월요일 08:00
- daily_sync:        평일 16:00 (최근 30일)
- financial_sync:    매주 토요일 02:00
- dividend_sync:     매주 토요일 03:00
- indicator_refresh: 평일 17:00
- alert_check:       평일 17:30

Example:
  go run ./cmd/valuescope scheduler start
  go run ./cmd/valuescope scheduler list
  go run ./cmd/valuescope scheduler run daily_sync`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.scheduler(nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	fmt.Println("✅ Scheduler started")
	printJobs(sched.Stats())
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.scheduler(nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched.Stats())
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.scheduler(nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	res, err := sched.RunNow(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	status := "✅ success"
	if !res.Success {
		status = "❌ failed"
	}
	printSummary(res.JobName, [][2]interface{}{
		{"status", status},
		{"attempts", res.Attempts},
		{"duration", duration(res.Duration)},
		{"error", res.Error},
	})

	if !res.Success {
		return fmt.Errorf("job %s failed: %s", res.JobName, res.Error)
	}
	return nil
}

func printJobs(stats []scheduler.JobStats) {
	tw := newTable("job", "schedule", "next run")
	for _, st := range stats {
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Format("2006-01-02 15:04 MST")
		}
		tw.AppendRow(table.Row{st.JobName, st.Schedule, next})
	}
	tw.Render()
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../commands.Version=..."
var Version = "dev"

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "valuescope",
	Short: "ValueScope - A 股价值投资数据后端",
	Long: `ValueScope Unified CLI

A 股价值投资后端: 数据同步, 指标计算, 选股器, 预警, 文章与 AI 问答.

Usage:
  go run ./cmd/valuescope [command]

Examples:
  go run ./cmd/valuescope migrate
  go run ./cmd/valuescope sync stocks
  go run ./cmd/valuescope sync daily --code 600036
  go run ./cmd/valuescope refresh
  go run ./cmd/valuescope screen --preset high_dividend
  go run ./cmd/valuescope api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). Commands see a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescope/backend/internal/alert"
	"github.com/wonny/valuescope/backend/internal/api"
	"github.com/wonny/valuescope/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health
  GET  /api/v1/stocks[/{code}[/daily|/indicators|/financials|/dividends]]
  POST /api/v1/screener, GET /api/v1/screener/presets
  *    /api/v1/alerts, /api/v1/articles, /api/v1/ai
  WS   /ws/alerts?user_id=

Example:
  go run ./cmd/valuescope api
  go run ./cmd/valuescope api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "같은 프로세스에서 스케줄러 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log
	r := a.repos

	screenerService, err := a.screener()
	if err != nil {
		return fmt.Errorf("init screener: %w", err)
	}

	hub := alert.NewHub(log)

	// alerts fired by a separate scheduler process arrive over redis
	if a.redis.Enabled() {
		go func() {
			if err := alert.Relay(ctx, a.redis, hub, log); err != nil {
				log.WithError(err).Error("Alert relay stopped")
			}
		}()
	}

	if apiWithScheduler {
		sched, err := a.scheduler(hub)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	router := api.NewRouter(api.Deps{
		Stocks: handlers.NewStockHandler(r.Stocks, r.Daily, r.Financials, r.Dividends, r.Snapshots,
			a.cache(), log),
		Screener:    handlers.NewScreenerHandler(screenerService, log),
		Alerts:      handlers.NewAlertHandler(alert.NewService(r.Alerts, r.Stocks), log),
		Articles:    handlers.NewArticleHandler(a.articles(), log),
		AI:          handlers.NewAIHandler(a.chat(), log),
		AlertHub:    hub,
		DB:          a.db,
		Environment: a.cfg.Env,
		Version:     Version,
	}, log)

	server := api.New(a.cfg, log, router)
	return server.Run(ctx, api.DefaultShutdownGrace, func(addr string) {
		fmt.Printf("\n✅ Server running on %s\n", addr)
		fmt.Println("\nPress Ctrl+C to stop")
	})
}

package commands

import (
	"errors"
	"fmt"

	"github.com/wonny/valuescope/backend/internal/ai"
	"github.com/wonny/valuescope/backend/internal/alert"
	"github.com/wonny/valuescope/backend/internal/article"
	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/internal/data"
	"github.com/wonny/valuescope/backend/internal/data/collector"
	"github.com/wonny/valuescope/backend/internal/external/tushare"
	"github.com/wonny/valuescope/backend/internal/scheduler"
	"github.com/wonny/valuescope/backend/internal/scheduler/jobs"
	"github.com/wonny/valuescope/backend/internal/screener"
	"github.com/wonny/valuescope/backend/internal/valuation"
	"github.com/wonny/valuescope/backend/pkg/config"
	"github.com/wonny/valuescope/backend/pkg/database"
	"github.com/wonny/valuescope/backend/pkg/httputil"
	"github.com/wonny/valuescope/backend/pkg/logger"
	"github.com/wonny/valuescope/backend/pkg/redis"
)

// errNoTushareToken is returned by commands that need the data provider
var errNoTushareToken = errors.New("TUSHARE_TOKEN is required")

const cachePrefix = "valuescope"

// app holds the shared infrastructure of every command
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	repos *data.Repositories
}

// newApp loads config and connects to Postgres and Redis
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		// cache and shared limits degrade to no-ops
		log.WithError(err).Warn("Redis unavailable, continuing without it")
		rdb = redis.Disabled()
	}

	return &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		redis: rdb,
		repos: data.NewRepositories(db.Pool),
	}, nil
}

// Close releases connections
func (a *app) Close() {
	_ = a.redis.Close()
	a.db.Close()
}

// collector builds the Tushare-backed sync collector
func (a *app) collector() (*collector.Collector, error) {
	if a.cfg.Tushare.Token == "" {
		return nil, errNoTushareToken
	}

	limiter := redis.NewRateLimiter(a.redis, "valuescope")
	httpClient := httputil.New(a.cfg, a.log).
		WithRateLimiter(limiter, redis.TushareRateLimit(a.cfg.Tushare.RatePerMin))
	source := tushare.NewClient(httpClient, a.cfg.Tushare, a.log)

	r := a.repos
	return collector.NewCollector(source, r.Stocks, r.Daily, r.Financials, r.Dividends, a.cfg.Tushare.Workers, a.log), nil
}

func (a *app) valuation() *valuation.Service {
	r := a.repos
	return valuation.NewService(r.Stocks, r.Daily, r.Financials, r.Dividends, r.Snapshots, a.cfg.Valuation, a.log).
		WithCache(a.cache())
}

// cache is shared by the API handlers and the valuation refresh
func (a *app) cache() *redis.Cache {
	return redis.NewCache(a.redis, cachePrefix)
}

func (a *app) screener() (*screener.Service, error) {
	presets, err := screener.LoadPresets(a.cfg.Screener.PresetsFile)
	if err != nil {
		return nil, err
	}
	s := screener.NewScreener(a.cfg.Screener.DefaultLimit, a.log)
	return screener.NewService(a.repos.Snapshots, s, presets, a.log), nil
}

// checker builds the alert checker. websocket goes to hub when given,
// otherwise over redis to the API process.
func (a *app) checker(hub alert.Notifier) *alert.Checker {
	c := alert.NewChecker(a.repos.Alerts, a.repos.Snapshots, a.cfg.Alerts.Cooldown, a.log)
	switch {
	case hub != nil:
		c.Register(contracts.ChannelWebsocket, hub)
	case a.redis.Enabled():
		c.Register(contracts.ChannelWebsocket, alert.NewPublisher(a.redis))
	}
	return c
}

func (a *app) articles() *article.Service {
	limiter := redis.NewRateLimiter(a.redis, "valuescope")
	httpClient := httputil.New(a.cfg, a.log).WithRateLimiter(limiter, redis.ArticleImportRateLimit)
	return article.NewService(a.repos.Articles, article.NewRenderer(), article.NewImporter(httpClient, a.log))
}

func (a *app) chat() *ai.Service {
	var completer ai.Completer
	if a.cfg.Anthropic.Enabled() {
		completer = ai.NewClaudeCompleter(a.cfg.Anthropic)
	}
	return ai.NewService(completer, a.repos.Snapshots, a.repos.Chats, a.log)
}

// scheduler registers every periodic job
func (a *app) scheduler(hub alert.Notifier) (*scheduler.Scheduler, error) {
	col, err := a.collector()
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(a.log, nil)
	for _, job := range jobs.All(col, a.valuation(), a.checker(hub), a.log) {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/external/sina"
	"github.com/wonny/cnquant/internal/external/tencent"
	"github.com/wonny/cnquant/internal/report"
	"github.com/wonny/cnquant/internal/s0_data"
	"github.com/wonny/cnquant/internal/s0_data/quality"
	"github.com/wonny/cnquant/internal/s1_universe"
	"github.com/wonny/cnquant/internal/s2_signals"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/internal/strategyconfig"
	"github.com/wonny/cnquant/pkg/config"
	"github.com/wonny/cnquant/pkg/database"
	"github.com/wonny/cnquant/pkg/httputil"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/redis"
)

// redisPrefix namespaces every cache and limiter key
const redisPrefix = "cnquant"

// app holds the shared dependencies every command wires from
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	redis  *redis.Client
	db     *database.DB // nil without DATABASE_URL
	sina   *sina.Client
	quotes *s0_data.QuoteService
	klines contracts.KlineSource
	market *s0_data.MarketService // 지수/섹터 (캐시 경유)
}

// loadConfig applies the global flags on top of the environment
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if rootCmd.PersistentFlags().Changed("env") {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp connects the optional stores and builds the upstream clients.
// withDB requests the run store; it stays nil when no URL is configured.
func newApp(ctx context.Context, withDB bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		// Redis는 선택 사항: 연결 실패 시 캐시/공유 리밋 없이 진행
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rdb, _ = redis.New(ctx, &config.Config{})
	}

	var db *database.DB
	if withDB {
		db, err = database.New(ctx, cfg)
		switch {
		case errors.Is(err, database.ErrDisabled):
			log.Debug("DATABASE_URL not set, run history disabled")
		case err != nil:
			rdb.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
	}

	sinaHTTP := httputil.New(cfg, log)
	tencentHTTP := httputil.New(cfg, log)
	if rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb, redisPrefix)
		sinaHTTP.WithLimiter(limiter.Bind(redis.SinaRateLimit))
		tencentHTTP.WithLimiter(limiter.Bind(redis.TencentRateLimit))
	}

	sinaClient := sina.NewClient(sinaHTTP, cfg.Sina, log)
	tencentClient := tencent.NewClient(tencentHTTP, cfg.Tencent, log)

	cache := redis.NewCache(rdb, redisPrefix)
	a := &app{
		cfg:    cfg,
		log:    log,
		redis:  rdb,
		db:     db,
		sina:   sinaClient,
		quotes: s0_data.NewQuoteService(tencentClient, sinaClient, log),
		klines: s0_data.NewCachedKlineSource(sinaClient, cache, log),
		market: s0_data.NewMarketService(tencentClient, sinaClient, cache, log),
	}
	return a, nil
}

// Close releases the stores
func (a *app) Close() {
	a.db.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Debug("Failed to close redis")
	}
}

// runRepository returns the screen run store, or nil without a database
func (a *app) runRepository(ctx context.Context) (*selection.Repository, error) {
	if a.db == nil {
		return nil, nil
	}
	repo := selection.NewRepository(a.db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// screenSettings are the resolved enrichment knobs for one run
type screenSettings struct {
	Workers   int
	TopK      int
	KlineDays int
	MaxPages  int
}

// defaultScreenSettings takes the environment values, replaced by the
// strategy file's enrichment section when one was loaded
func (a *app) defaultScreenSettings(strat *strategyconfig.Config, fromFile bool) screenSettings {
	settings := screenSettings{
		Workers:   a.cfg.Screen.Workers,
		TopK:      a.cfg.Screen.EnrichTopK,
		KlineDays: a.cfg.Screen.KlineDays,
		MaxPages:  a.cfg.Screen.MaxPages,
	}
	if fromFile {
		settings.Workers = strat.Enrichment.Workers
		settings.TopK = strat.Enrichment.TopK
		settings.KlineDays = strat.Enrichment.KlineDays
	}
	return settings
}

// loadStrategy reads the strategy file (flag, then SCREEN_STRATEGY_FILE) or the defaults
func (a *app) loadStrategy(path string) (*strategyconfig.Config, bool, error) {
	if path == "" {
		path = a.cfg.Screen.StrategyFile
	}
	if path == "" {
		return strategyconfig.Default(), false, nil
	}
	strat, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, false, err
	}
	a.log.WithFields(map[string]interface{}{
		"path":        path,
		"strategy_id": strat.Meta.StrategyID,
		"version":     strat.Meta.Version,
	}).Info("Loaded strategy config")
	return strat, true, nil
}

// newScreenOrchestrator wires the full screen pipeline
func (a *app) newScreenOrchestrator(strat *strategyconfig.Config, settings screenSettings, recorder brain.RunRecorder) (*brain.ScreenOrchestrator, error) {
	hash, err := strategyconfig.Hash(strat)
	if err != nil {
		return nil, err
	}

	builderCfg := s1_universe.DefaultConfig()
	if settings.MaxPages > 0 {
		builderCfg.MaxPages = settings.MaxPages
	}

	return brain.NewScreenOrchestrator(
		s1_universe.NewBuilder(a.sina, builderCfg, a.log),
		quality.NewGate(strat.Quality),
		s1_universe.NewHardFilter(strat.HardFilter, a.log),
		selection.NewScorer(strat.Weights),
		s2_signals.NewEnricher(a.klines, settings.Workers, settings.KlineDays, a.log),
		selection.NewRanker(a.log),
		recorder,
		hash,
		a.log,
	), nil
}

// newReportGenerator wires the research report pipeline
func (a *app) newReportGenerator() *report.Generator {
	return report.NewGenerator(
		a.market,
		a.market,
		a.quotes,
		a.klines,
		a.sina,
		a.cfg.Screen.KlineDays,
		a.cfg.Report.NewsLimit,
		a.log,
	)
}

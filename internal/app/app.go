package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"streamsalvage/internal/config"
	"streamsalvage/internal/forensic"
	"streamsalvage/internal/httpserver"
	"streamsalvage/internal/httpserver/deps"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/metrics"
	"streamsalvage/internal/orchestrator"
	"streamsalvage/internal/pool"
	"streamsalvage/internal/redis"
	"streamsalvage/internal/registry"
	"streamsalvage/internal/resolver"
	"streamsalvage/internal/scheduler"
	"streamsalvage/internal/sources/seed"
	redisstore "streamsalvage/internal/store/redis"
	"streamsalvage/internal/store/sqlite"
	"streamsalvage/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	db          *sqlite.Database
	prober      *scheduler.Prober
	refresher   *scheduler.Refresher
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	metrics.Init()

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)

	db, err := sqlite.New(context.Background(), cfg.DBPath, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open SQLite database: %v", err)
		os.Exit(1)
	}

	// Relay roster: YAML file when configured, built-in defaults otherwise.
	proxies, err := seed.LoadProxies(cfg.ProxyFile)
	if err != nil {
		loggerClient.Errorf("Failed to load relay roster: %v", err)
		os.Exit(1)
	}
	relayPool := pool.New(loggerClient, cfg.RestrictedMarkers)
	for _, px := range proxies {
		relayPool.Register(px)
	}
	loggerClient.Info("relay pool seeded", logger.Int("relays", relayPool.Count()))

	curated, err := seed.LoadAlternates(cfg.AlternateFile)
	if err != nil {
		loggerClient.Errorf("Failed to load curated alternates: %v", err)
		os.Exit(1)
	}

	reg := registry.New(curated, db, loggerClient, cfg.DownvoteThreshold)
	forensicSvc := forensic.New(db, loggerClient)

	racer := resolver.New(relayPool, loggerClient, resolver.Options{
		AttemptTimeout: cfg.AttemptTimeout,
		GraceWindow:    cfg.RaceGraceWindow,
		SecureOrigin:   cfg.SecureOrigin,
	})

	orch := orchestrator.New(racer, reg, store, forensicSvc, relayPool, loggerClient, orchestrator.Config{
		RetryPolicy: resolver.RetryPolicy{
			Attempts:  cfg.RetryBudget,
			BaseDelay: cfg.RetryBaseDelay,
			Factor:    cfg.RetryFactor,
			MaxDelay:  cfg.RetryMaxDelay,
		},
		CacheTTL: cfg.CacheTTL,
	})

	probeTrigger := make(chan struct{}, 1)
	refreshTrigger := make(chan struct{}, 1)

	prober := scheduler.NewProber(racer, relayPool, loggerClient, cfg.ProbeInterval, cfg.ProbeTarget, probeTrigger)
	refresher := scheduler.NewRefresher(racer, relayPool, store, loggerClient, cfg.RefreshInterval, cfg.RefreshBatchLimit, cfg.RefreshPause, refreshTrigger)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		RedisClient:    redisClient,
		Store:          store,
		DB:             db,
		Pool:           relayPool,
		Orchestrator:   orch,
		Registry:       reg,
		Forensic:       forensicSvc,
		ResolveTimeout: 0, // resolve calls are bounded per attempt and by the retry budget
		RefreshTrigger: refreshTrigger,
		ProbeTrigger:   probeTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		db:          db,
		prober:      prober,
		refresher:   refresher,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting StreamSalvage v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("StreamSalvage %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start relay prober (first round runs before traffic lands)
	if err := a.prober.Start(ctx); err != nil {
		return fmt.Errorf("failed to start relay prober: %w", err)
	}
	a.logger.Info("relay prober started",
		logger.Duration("interval", a.cfg.ProbeInterval))

	// Start offline-channel refresher
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start channel refresher: %w", err)
	}
	a.logger.Info("channel refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval),
		logger.Int("batch_limit", a.cfg.RefreshBatchLimit))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.prober.Stop()
	a.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnf("failed to close sqlite: %v", err)
		} else {
			a.logger.Info("✅ SQLite closed cleanly")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ StreamSalvage stopped cleanly")
	return nil
}

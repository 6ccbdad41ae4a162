package main

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	alertapi "github.com/huntu09/airdropshunter-sub001/internal/alerting/api"
	adb "github.com/huntu09/airdropshunter-sub001/internal/alerting/database"
	"github.com/huntu09/airdropshunter-sub001/internal/alerting/service/monitor"
	"github.com/huntu09/airdropshunter-sub001/internal/alerting/service/rules"
	"github.com/huntu09/airdropshunter-sub001/internal/cache"
	catalogapi "github.com/huntu09/airdropshunter-sub001/internal/catalog/api"
	catalogdb "github.com/huntu09/airdropshunter-sub001/internal/catalog/database"
	catalogsvc "github.com/huntu09/airdropshunter-sub001/internal/catalog/service"
	"github.com/huntu09/airdropshunter-sub001/internal/config"
	"github.com/huntu09/airdropshunter-sub001/internal/metrics"
	"github.com/huntu09/airdropshunter-sub001/internal/middleware"
	"github.com/huntu09/airdropshunter-sub001/internal/ratelimit"
	"github.com/huntu09/airdropshunter-sub001/internal/realtime"
)

func main() {
	log.Info().Msg("Starting airdrops hunter api server")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// rate limiter with background sweep
	limiter := ratelimit.NewLimiter(config.ParseDuration(cfg.RateLimit.SweepInterval, time.Minute))
	limiter.Start(ctx)
	defer limiter.Stop()

	publicRule := ratelimit.Rule{
		Window:      config.ParseDuration(cfg.RateLimit.PublicWindow, time.Minute),
		MaxRequests: cfg.RateLimit.PublicMax,
	}
	adminRule := ratelimit.Rule{
		Window:      config.ParseDuration(cfg.RateLimit.AdminWindow, time.Minute),
		MaxRequests: cfg.RateLimit.AdminMax,
	}

	// cache: in-memory by default, Redis tier when configured
	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		store = cache.NewRedisFromAddr(cfg.Cache.RedisAddr, cfg.Redis.Password, cfg.Redis.DB)
		log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("using redis cache tier")
	} else {
		mem := cache.NewMemory(config.ParseDuration(cfg.Cache.SweepInterval, time.Minute))
		mem.Start(ctx)
		defer mem.Stop()
		store = mem
	}

	// metrics collector with prometheus mirror and optional forwarder
	mirror := metrics.NewMirror()
	collectorOpts := []metrics.Option{metrics.WithMirror(mirror)}
	if cfg.Metrics.MonitoringEndpoint != "" {
		collectorOpts = append(collectorOpts, metrics.WithForwarder(metrics.NewForwarder(cfg.Metrics.MonitoringEndpoint)))
	}
	collector := metrics.NewCollector(
		cfg.Metrics.SamplesPerMetric,
		config.ParseDuration(cfg.Metrics.SnapshotInterval, 30*time.Second),
		collectorOpts...,
	)

	// optional alerting DB; without it rules live in memory only
	var ruleStore rules.Store
	var managerOpts []monitor.ManagerOption
	if alertDB, derr := adb.New(cfg.Database.DSN()); derr == nil {
		ruleStore = rules.NewPgStore(alertDB)
		managerOpts = append(managerOpts, monitor.WithHistoryWriter(monitor.NewPgHistory(alertDB)))
		defer alertDB.Close()
	} else {
		log.Error().Err(derr).Msg("alerting DB init failed; using in-memory rule store")
		ruleStore = rules.NewMemoryStore()
	}
	if err := rules.Bootstrap(ctx, ruleStore, cfg.Alerting.RulesConfigFile); err != nil {
		log.Error().Err(err).Msg("alert rules bootstrap failed")
	}

	var notifiers []monitor.Notifier
	if cfg.Alerting.WebhookURL != "" {
		notifiers = append(notifiers, monitor.NewWebhookNotifier(cfg.Alerting.WebhookURL))
	}
	if cfg.Alerting.AdminNotifyEmail != "" {
		notifiers = append(notifiers, monitor.NewEmailNotifier(cfg.Alerting.AdminNotifyEmail))
	}
	if cfg.Server.Mode != "production" {
		notifiers = append(notifiers, monitor.ConsoleNotifier{})
	}
	managerOpts = append(managerOpts, monitor.WithNotifiers(notifiers...))

	manager := monitor.NewManager(ruleStore, cfg.Alerting.HistoryLimit, managerOpts...)
	collector.Subscribe(manager.OnSnapshot)
	collector.Start(ctx)
	defer collector.Stop()

	// catalog, degraded to sample listings when the DB is unreachable
	var repo catalogsvc.Repo
	if db, derr := catalogdb.New(ctx, cfg.Database.DSN()); derr == nil {
		repo = db
		defer db.Close()
	} else {
		log.Error().Err(derr).Msg("catalog DB init failed; serving sample listings")
		repo = catalogsvc.NewUnavailableRepo()
	}
	publisher := realtime.NewPublisher(rdb)
	svc := catalogsvc.New(repo, store, publisher, config.ParseDuration(cfg.Cache.DefaultTTL, 5*time.Minute))

	// site-wide realtime feed; the session check is redis reachability
	provider := realtime.NewProvider(ctx, rdb, func(ctx context.Context) (string, error) {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return "", err
		}
		return "site", nil
	})
	defer provider.Close()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestMetrics(collector))

	public := router.Group("", middleware.RateLimit(limiter, "public", publicRule))
	admin := router.Group("", middleware.RateLimit(limiter, "admin", adminRule), middleware.AdminAuth(cfg.Admin.APIToken))

	catalogapi.NewApi(public, admin, svc)
	alertapi.NewApi(admin, manager, ruleStore)
	realtime.RegisterRoutes(public, provider)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(mirror.Registry(), promhttp.HandlerOpts{})))

	// pass-through values the public pages render; empty fields disable the
	// matching feature client-side
	public.GET("/v1/site-config", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"site_url":               cfg.Site.URL,
			"analytics_id":           cfg.Site.AnalyticsID,
			"adsense_client_id":      cfg.Site.AdsenseClientID,
			"seo_verification_token": cfg.Site.SEOVerificationToken,
		})
	})

	log.Info().Msgf("Starting server on %s", cfg.Server.BindAddr)
	if err := router.Run(cfg.Server.BindAddr); err != nil {
		log.Fatal().Err(err).Msg("start airdrops hunter api server failed.")
	}
	log.Info().Msg("airdrops hunter api server exit...")
}

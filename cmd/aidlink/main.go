package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AidLink/internal/geo"
	handlers "AidLink/internal/handler"
	"AidLink/internal/lifecycle"
	"AidLink/internal/listeners"
	"AidLink/internal/match"
	"AidLink/internal/models"
	"AidLink/internal/notify"
	"AidLink/internal/readmodel"
	"AidLink/pkg/cache"
	"AidLink/pkg/config"
	"AidLink/pkg/logger"
	"AidLink/pkg/metrics"
	"AidLink/pkg/middleware"
	"AidLink/pkg/mq"
	"AidLink/pkg/scheduler"
	"AidLink/pkg/sse"
	stores "AidLink/pkg/storage"
	"AidLink/pkg/util"
	"AidLink/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

func main() {
	// 1. 配置与日志
	if err := config.Load(); err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	cfg := config.GlobalConfig
	lg := logger.Init(cfg.Log, "aidlink")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 3. 数据库
	db, err := util.InitDatabase(util.DBOptions{Driver: cfg.DBDriver, DSN: cfg.DSN})
	if err != nil {
		lg.Fatal("init database failed", zap.Error(err))
	}
	if err := db.Use(metrics.NewGormPlugin(m)); err != nil {
		lg.Warn("register gorm metrics plugin failed", zap.Error(err))
	}
	if err := models.Migrate(db); err != nil {
		lg.Fatal("migrate failed", zap.Error(err))
	}

	// 4. 缓存，redis 模式下限流共用同一个客户端
	var (
		redisClient  *redis.Client
		summaryCache cache.Cache
		limiterStore limiter.Store
	)
	switch cfg.Cache.Type {
	case "redis", "layered":
		if redisClient, err = cache.NewRedisClient(cfg.Cache.Redis); err != nil {
			lg.Fatal("connect redis failed", zap.Error(err))
		}
		defer redisClient.Close()
		summaryCache = cache.NewRedisCacheFromClient(redisClient, cfg.Cache.Redis.Prefix)
		if cfg.Cache.Type == "layered" {
			local, err := cache.NewCache(cache.Config{Type: "lru", Local: cfg.Cache.Local})
			if err != nil {
				lg.Fatal("init local cache failed", zap.Error(err))
			}
			summaryCache = cache.NewLayered(local, summaryCache)
		}
		if limiterStore, err = middleware.NewRedisStore(redisClient); err != nil {
			lg.Fatal("init limiter store failed", zap.Error(err))
		}
	default:
		if summaryCache, err = cache.NewCache(cfg.Cache); err != nil {
			lg.Fatal("init cache failed", zap.Error(err))
		}
	}
	defer summaryCache.Close()

	// 5. 实时推送
	wsConfig := websocket.LoadConfigFromEnv()
	if err := websocket.ValidateConfig(wsConfig); err != nil {
		lg.Fatal("invalid websocket config", zap.Error(err))
	}
	hub := websocket.NewHub(wsConfig)
	defer hub.Close()
	transports := []notify.Bus{hub}
	var events *sse.Hub
	if cfg.SSEEnabled {
		events = sse.NewHub(cfg.SSEPing)
		transports = append(transports, events)
	}
	bus := notify.NewFanout(m.Notification, transports...)
	m.GaugeFunc("websocket_connections", "Open websocket connections.", func() float64 {
		return float64(hub.GetConnectionCount())
	})

	// 6. 匹配
	index := geo.NewIndex(lg)
	m.GaugeFunc("geo_indexed_volunteers", "Volunteers held in the proximity index.", func() float64 {
		return float64(index.Len())
	})
	sinks := []match.Sink{match.BusSink{Bus: bus}}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := mq.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		sinks = append(sinks, match.KafkaSink{Publisher: publisher})
		lg.Info("kafka match sink enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	matcher := match.NewEngine(index, match.Options{
		RadiusMeters: cfg.MatchRadiusMeters,
		Limit:        cfg.MatchLimit,
		Async:        true,
	}, lg, sinks...).Observe(listeners.NewMatchListener(m, lg))

	// 7. 生命周期引擎
	var images stores.Store
	if s := stores.NewMinioStore(cfg.Minio); s != nil {
		images = s
	}
	engine := lifecycle.New(lifecycle.Deps{
		DB:       db,
		Index:    index,
		Matcher:  matcher,
		Bus:      bus,
		Images:   images,
		Observer: m,
		Logger:   lg,
	})
	if err := engine.ResyncIndex(ctx); err != nil {
		lg.Fatal("build geo index failed", zap.Error(err))
	}

	// 8. 定时任务
	cr := scheduler.NewCron(time.UTC, lg)
	if _, err := cr.Add("geo-resync", cfg.GeoResyncSchedule, 30*time.Second, scheduler.FuncJob(engine.ResyncIndex)); err != nil {
		lg.Fatal("schedule geo resync failed", zap.Error(err))
	}
	_, err = cr.Add("overdue-sweep", cfg.OverdueSweepSchedule, time.Minute, scheduler.FuncJob(func(ctx context.Context) error {
		n, err := engine.SweepOverdue(ctx)
		if n > 0 {
			lg.Info("overdue requests escalated", zap.Int("count", n))
		}
		return err
	}))
	if err != nil {
		lg.Fatal("schedule overdue sweep failed", zap.Error(err))
	}
	cr.Start()
	defer cr.Stop()

	// 9. HTTP
	gin.SetMode(cfg.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware(m))

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:           cfg.RateLimit,
		WhitelistCIDRs: cfg.TrustedCIDRs,
		AddHeaders:     true,
	}, limiterStore).WithObserver(middleware.NewPrometheusObserver(reg))

	handlers.NewHandlers(handlers.Deps{
		DB:        db,
		Engine:    engine,
		Views:     readmodel.New(db, summaryCache, cfg.SummaryCacheTTL, lg),
		Hub:       hub,
		SSE:       events,
		Gatherer:  reg,
		APIPrefix: cfg.APIPrefix,
		Auth:      middleware.Authenticate(db),
		Middlewares: []gin.HandlerFunc{
			rl.Middleware(),
			middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{Store: summaryCache}),
		},
	}).Register(router)

	srv := &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		lg.Info("aidlink listening", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("graceful shutdown failed", zap.Error(err))
	}
	matcher.Wait()
}

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/cache"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/grpcserver"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := loadSettings()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)

	ctx, stop := runtime.SignalContext(logger)
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	outboxRepo := outbox.NewRepository()
	store := storage.NewStore(pool, outboxRepo)
	var schedules booking.ScheduleStore = storage.NewScheduleRepository(pool)

	public := httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		schedules = cache.NewSchedules(rdb, schedules, cfg.ScheduleCacheTTL, logger)
		public = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "rl:public").Middleware(logger, true)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb)})
	}

	var writer outbox.MessageWriter
	if cfg.KafkaBrokers != "" {
		w := kafkax.NewWriter(cfg.KafkaBrokers)
		defer func() { _ = w.Close() }()
		writer = w
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}
	publisher := outbox.NewPublisher(pool, outboxRepo, writer, logger, outbox.PublisherConfig{
		TopicPrefix: cfg.KafkaTopicPrefix,
		PollEvery:   cfg.OutboxPollEvery,
		BatchSize:   50,
	})

	clock := availability.SystemClock{}
	bookings := booking.NewService(store, schedules, clock, logger)
	sweeper := lifecycle.NewSweeper(store, clock, logger, lifecycle.SweeperConfig{Interval: cfg.SweepInterval})

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.New(bookings, logger).Register(mux, public)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.DefaultCORSPolicy(cfg.CORSOrigins)),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := grpcserver.NewHealth(logger, 10*time.Second, checks...)
	grpcSrv := grpcserver.NewServer(logger, health)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return err
		}
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error { return health.Run(gctx) })
	g.Go(func() error { return publisher.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
		grpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("booking service stopped with error", "err", err)
		return
	}
	logger.Info("booking service stopped")
}

type settings struct {
	Service            string
	LogLevel           string
	Port               string
	GRPCPort           string
	DatabaseURL        string
	DBMaxConns         int32
	RedisAddr          string
	ScheduleCacheTTL   time.Duration
	KafkaBrokers       string
	KafkaTopicPrefix   string
	OutboxPollEvery    time.Duration
	RateLimitPerMinute int
	SweepInterval      time.Duration
	CORSOrigins        []string
	RequestTimeout     time.Duration
}

func loadSettings() (settings, error) {
	var (
		s   settings
		err error
	)
	s.Service = config.String("SERVICE_NAME", "booking-service")
	s.LogLevel = config.String("LOG_LEVEL", "info")
	if s.Port, err = config.Port("PORT", "8083"); err != nil {
		return s, err
	}
	if s.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return s, err
	}
	if s.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return s, err
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		return s, err
	}
	s.DBMaxConns = int32(maxConns)
	s.RedisAddr = config.String("REDIS_ADDR", "")
	if s.ScheduleCacheTTL, err = config.Duration("SCHEDULE_CACHE_TTL", 5*time.Minute); err != nil {
		return s, err
	}
	s.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	s.KafkaTopicPrefix = config.String("KAFKA_TOPIC_PREFIX", "")
	if s.OutboxPollEvery, err = config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second); err != nil {
		return s, err
	}
	if s.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return s, err
	}
	if s.SweepInterval, err = config.Duration("SWEEP_INTERVAL", time.Minute); err != nil {
		return s, err
	}
	s.CORSOrigins = config.List("CORS_ALLOWED_ORIGINS")
	if s.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return s, err
	}
	return s, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ivr-service/internal/audit"
	"ivr-service/internal/auth"
	"ivr-service/internal/calls"
	"ivr-service/internal/config"
	"ivr-service/internal/httpapi"
	"ivr-service/internal/ivr"
	"ivr-service/internal/observability"
	"ivr-service/internal/rbac"
	"ivr-service/internal/reporting"
	"ivr-service/internal/routing"
	"ivr-service/internal/telephony"
	"ivr-service/pkg/logger"
	"ivr-service/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// One store (and pool) for the whole process, shared by every request.
	store, err := openStore(rootCtx, cfg)
	if err != nil {
		log.Error("store init failed", "driver", cfg.Store.Driver, "err", err)
		os.Exit(1)
	}

	var (
		rdb     *redis.Client
		limiter telephony.BridgeLimiter
		alerts  ivr.Alerter
	)
	if cfg.RedisEnabled() {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error("redis init failed", "err", err)
			_ = store.Close(context.Background())
			os.Exit(1)
		}
		limiter = telephony.NewRedisBridgeLimiter(rdb, cfg.IVR.BridgeMaxConcurrent, 0)
		alerts = audit.NewService(audit.NewRedisRepo(rdb, audit.DefaultStream))
	} else {
		log.Warn("redis disabled: no bridge concurrency cap, alerts go to logs only")
	}

	engine, err := routing.NewEngine(routing.EngineConfig{
		BridgeNumber:   cfg.IVR.BridgeNumber,
		CallerIDNumber: cfg.Twilio.PhoneNumber,
	})
	if err != nil {
		log.Error("routing init failed", "err", err)
		os.Exit(1)
	}

	dispatcher, err := ivr.NewDispatcher(ivr.Deps{
		Engine:        engine,
		Store:         store,
		Dialer:        telephony.NewTwilioDialer(cfg.Twilio, limiter),
		Renderer:      telephony.Renderer{BaseURL: cfg.IVR.PublicBaseURL},
		Alerts:        alerts,
		Metrics:       observability.NewMetrics(),
		BridgeTimeout: cfg.IVR.BridgeTimeout,
		StoreTimeout:  cfg.IVR.StoreTimeout,
	})
	if err != nil {
		log.Error("dispatcher init failed", "err", err)
		os.Exit(1)
	}

	var feedGuard []gin.HandlerFunc
	if cfg.AuthEnabled() {
		authManager, err := auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
		feedGuard = append(feedGuard, auth.RequireAccessToken(authManager), rbac.RequireAnyRole(rbac.FeedReaders...))
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, httpapi.Handlers{
		Dispatcher: dispatcher,
		Feed:       reporting.NewService(store),
		Store:      store,
	}, feedGuard...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error("store close failed", "err", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("redis close failed", "err", err)
		}
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

func openStore(ctx context.Context, cfg config.Config) (calls.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			return nil, err
		}
		s := calls.NewPostgresStore(db)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return s, nil
	case config.StoreDriverMongo:
		client, err := utils.OpenMongo(ctx, utils.MongoConfig{URI: cfg.Mongo.URI})
		if err != nil {
			return nil, err
		}
		s := calls.NewMongoStore(client, cfg.Mongo.Database)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return s, nil
	case config.StoreDriverMemory:
		return calls.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

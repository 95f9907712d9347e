package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/suteetoe/vitrin/config"
	"github.com/suteetoe/vitrin/database"
	"github.com/suteetoe/vitrin/internal/backend"
	"github.com/suteetoe/vitrin/internal/cache"
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/dashboard"
	"github.com/suteetoe/vitrin/internal/handler"
	"github.com/suteetoe/vitrin/internal/model"
	"github.com/suteetoe/vitrin/internal/pricing"
	"github.com/suteetoe/vitrin/internal/store"
	"github.com/suteetoe/vitrin/internal/storefront"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/internal/theme"
	"github.com/suteetoe/vitrin/jwtutil"
	"github.com/suteetoe/vitrin/logger"
	"github.com/suteetoe/vitrin/metrics"
	mid "github.com/suteetoe/vitrin/middleware"
)

const serviceName = "vitrin"

// port is everything the app needs from where site data lives. Both the
// REST client and the database store provide it.
type port interface {
	tenant.Source
	tenant.Creator
	capability.Persister
	theme.Persister
	cart.Gateway
}

type invalidator interface {
	Invalidate(ctx context.Context, slug string) error
}

func main() {
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting vitrin", appConfig.LogConfig()...)

	httpMetrics := metrics.NewHTTPMetrics(serviceName)
	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      appConfig.JWT.SigningKey,
		ExpirationHours: appConfig.JWT.ExpirationHours,
	})

	var db *gorm.DB
	if appConfig.NeedsDatabase() {
		db, err = database.Open(&appConfig.DB, log)
		if err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer database.Close(db)
		if appConfig.DB.AutoMigrate {
			if err := database.MigrateModels(db, model.All()...); err != nil {
				log.Fatal("Failed to migrate database", zap.Error(err))
			}
			log.Info("Database migrated")
		}
	}

	var data port
	switch appConfig.Backend.Mode {
	case config.BackendDatabase:
		data = store.New(db, log.Named("store"))
	default:
		client := backend.NewClient(appConfig.Backend.URL, appConfig.Backend.Timeout, log.Named("backend"))
		if appConfig.Backend.Token != "" {
			client.SetAuthToken(appConfig.Backend.Token)
		}
		data = client
	}

	var gateway cart.Gateway = data
	if appConfig.Backend.UseDBSink && appConfig.Backend.Mode != config.BackendDatabase {
		gateway = store.New(db, log.Named("orders"))
		log.Info("Checkout orders are recorded in the database")
	}

	var source tenant.Source = data
	var drop invalidator
	if appConfig.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appConfig.Redis.Addr,
			Password: appConfig.Redis.Password,
			DB:       appConfig.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis not reachable, snapshot cache will fall through", zap.Error(err))
		}
		cancel()

		snapshots := cache.NewSnapshotCache(data, rdb, appConfig.Redis.TTL, log.Named("cache"))
		source = snapshots
		drop = snapshots
		log.Info("Snapshot cache enabled", zap.Duration("ttl", appConfig.Redis.TTL))
	}

	themes := theme.NewResolver(log.Named("theme"))
	registry := capability.NewRegistry(themes)
	prices := pricing.NewEngine(log.Named("pricing"), appConfig.Storefront.CurrencyLocale)

	engine := storefront.NewEngine(storefront.Options{
		Resolver:       tenant.NewResolver(source, log.Named("resolver"), appConfig.Backend.Resolve),
		Registry:       registry,
		Themes:         themes,
		Pages:          theme.NewBuilder(prices),
		Gateway:        gateway,
		Logger:         log.Named("storefront"),
		SnapshotMaxAge: appConfig.Storefront.SnapshotMaxAge,
	})
	sessions := storefront.NewManager(engine, appConfig.Storefront.SessionIdle)

	dash := dashboard.NewService(dashboard.Deps{
		Tenants:      data,
		Capabilities: capability.NewService(registry, data, drop, log.Named("capability")),
		Themes:       themes,
		ThemeService: theme.NewService(themes, data, drop, log.Named("theme")),
		Creator:      data,
		Logger:       log.Named("dashboard"),
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware(logger.GetLogger))
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	handler.New(sessions, dash, handler.Options{
		SecureCookies: appConfig.Storefront.SecureCookies,
		SessionIdle:   appConfig.Storefront.SessionIdle,
	}).Register(e, mid.JWTAuthMiddleware(jwtUtil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessions.Run(ctx, appConfig.Storefront.SweepInterval)

	go func() {
		addr := ":" + appConfig.Server.Port
		log.Info("Starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

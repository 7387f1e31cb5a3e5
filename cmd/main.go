package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thuvien-intelligence/library-insights/internal/api"
	"github.com/thuvien-intelligence/library-insights/internal/config"
	"github.com/thuvien-intelligence/library-insights/internal/database"
	"github.com/thuvien-intelligence/library-insights/internal/eventbus"
	"github.com/thuvien-intelligence/library-insights/internal/services"
)

func main() {
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
		fx.Provide(
			config.Load,
			initLogger,
			database.Connect,
			initEventBus,
			services.NewHistoryService,
			services.NewEntityInsightService,
			services.NewForecastService,
			services.NewInsightService,
			api.NewHandlers,
			api.NewRouter,
		),
		fx.Invoke(runMigrations),
		fx.Invoke(startServer),
		fx.StopTimeout(30*time.Second),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal("Failed to start service", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	if err := app.Stop(context.Background()); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Shutdown complete")
}

func initLogger(cfg *config.Config) *zap.Logger {
	var logLevel zap.AtomicLevel
	switch cfg.Log.Level {
	case "debug":
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		logLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		logLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = logLevel
	logger, _ := zapCfg.Build()
	return logger
}

// initEventBus connects to redis when configured and falls back to the
// no-op bus otherwise. Insight generation works the same either way.
func initEventBus(cfg *config.Config, logger *zap.Logger) (eventbus.EventBus, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, insight events disabled")
		return eventbus.Nop{}, nil
	}
	return eventbus.NewRedisEventBus(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
}

func runMigrations(db *gorm.DB, logger *zap.Logger) error {
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func startServer(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine, bus eventbus.EventBus, logger *zap.Logger) {
	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting library insights service", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping library insights service")
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			return bus.Close()
		},
	})
}

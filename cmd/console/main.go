package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ag-office-console/api/swagger"
	"github.com/noah-isme/ag-office-console/internal/apiclient"
	"github.com/noah-isme/ag-office-console/internal/handler"
	"github.com/noah-isme/ag-office-console/internal/menu"
	"github.com/noah-isme/ag-office-console/internal/middleware"
	"github.com/noah-isme/ag-office-console/internal/service"
	"github.com/noah-isme/ag-office-console/internal/tokenstore"
	"github.com/noah-isme/ag-office-console/pkg/cache"
	"github.com/noah-isme/ag-office-console/pkg/config"
	"github.com/noah-isme/ag-office-console/pkg/logger"
)

// @title AG Office Console
// @version 1.0.0
// @description Session and permission gateway in front of the AG Office API
// @BasePath /
// @schemes http https

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logr); err != nil {
		logr.Fatal("console stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	locale := service.NewLocaleService(cfg.Locales)
	readyChecks := map[string]handler.ReadinessCheck{}

	var durable service.DurableTiers
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		durable = service.DurableTierFactory(func(contextID string) tokenstore.Tier {
			return tokenstore.NewRedisTier(redisClient, cfg.Redis.Prefix, contextID, cfg.Session.DurableTTL)
		})
		readyChecks["redis"] = cache.ReadinessCheck(redisClient)
		logr.Info("durable sessions stored in redis", zap.String("prefix", cfg.Redis.Prefix))
	} else {
		logr.Warn("redis disabled, remembered sessions will not survive a restart")
	}

	registry := service.NewSessionRegistry(service.SessionRegistryConfig{
		API: apiclient.Config{
			BaseURL:   cfg.Upstream.BaseURL,
			Timeout:   cfg.Upstream.Timeout,
			UserAgent: cfg.Upstream.UserAgent,
		},
		Manager: service.SessionManagerConfig{
			ExpiryBuffer:      cfg.Session.ExpiryBuffer,
			LoadConfiguration: cfg.Upstream.LoadConfiguration,
		},
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		Logger:        logr,
	}, durable, locale, metrics, validator.New())
	go registry.Run(ctx)

	sections, err := menu.Default()
	if err != nil {
		return err
	}
	templates, err := handler.Templates()
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.RouterDeps{
		Registry:  registry,
		Sections:  sections,
		Templates: templates,
		Metrics:   metrics,
		Locale:    locale,
		Logger:    logr,
		Cookie: middleware.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.DurableTTL,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ReadyChecks:    readyChecks,
		EnableDocs:     cfg.Env != config.EnvProduction,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("console starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

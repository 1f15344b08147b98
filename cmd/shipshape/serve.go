package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/shipshape/backend/internal/application/quiz"
	"github.com/shipshape/backend/internal/application/report"
	"github.com/shipshape/backend/internal/infrastructure/telemetry"
	"github.com/shipshape/backend/internal/interfaces/http/handler"
	"github.com/shipshape/backend/internal/interfaces/http/middleware"
	"github.com/shipshape/backend/internal/interfaces/http/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				c.cfg.App.Port = port
			}
			ctx, stop := signal.NotifyContext(background(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Override the listen port")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	cfg, log := c.cfg, c.log

	log.Info("Starting ShipShape",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down metrics", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{
		Meter:  meterProvider.Meter("shipshape/store"),
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("init store metrics: %w", err)
	}

	stack, err := openStore(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			log.Error("Error closing record store", zap.Error(err))
		}
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		CORS:           cors,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}

	store := stack.Store.Store
	reports := report.NewReportService(store, nil, log)
	quizzes := quiz.NewQuizService(store, quiz.WithLogger(log))

	handlers := router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, Version, handler.StorageInfo{
			Driver:    cfg.Storage.Driver,
			KeyPrefix: cfg.Storage.KeyPrefix,
			ContextID: cfg.Storage.ContextID,
		}, nil),
		Trailers:  handler.NewTrailerHandler(store),
		Shipments: handler.NewShipmentHandler(store),
		Reports: handler.NewReportHandler(reports, handler.ReportDefaults{
			ExpiryWarningDays: cfg.Reports.ExpiryWarningDays,
			ActivityWeeks:     cfg.Reports.ActivityWeeks,
		}),
		Quiz: handler.NewQuizHandler(quizzes, store, cfg.Reports.QuizSize),
	}
	router.NewRouter(engine).Register(handlers.Groups()...).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Info("Server exited gracefully")
		return nil
	})
	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atelier/internal/config"
	"atelier/internal/lib/logger"
	"atelier/internal/lib/logger/sl"
	"atelier/internal/metrics"
	"atelier/internal/notify"
	generate_excel "atelier/internal/service/generate-excel"
	"atelier/internal/service/production"
	"atelier/internal/service/statistics"
	"atelier/internal/storage/mysql"
)

func main() {
	cfg := config.MustLoad()

	log, closeLog := logger.Setup(cfg.Env, cfg.ErrorLogPath)
	defer closeLog()

	storage, err := mysql.New(cfg.MySQL)
	if err != nil {
		log.Error("failed to open db", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	if cfg.MySQL.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := storage.Migrate(ctx)
		cancel()
		if err != nil {
			log.Error("failed to migrate schema", sl.Err(err))
			os.Exit(1)
		}
	}

	sink, closeSink, err := notify.New(cfg.Notify, log)
	if err != nil {
		log.Error("failed to set up notifications", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		if err := closeSink(); err != nil {
			log.Warn("failed to close notification sink", sl.Err(err))
		}
	}()

	m := metrics.New()

	productionService := production.New(log, storage, sink,
		production.WithMetrics(m),
		production.WithNotifyTimeout(cfg.Notify.Timeout),
	)
	statisticsService := statistics.NewStatisticsService(storage)
	excelService := generate_excel.NewGenerateService(productionService)

	srv := &http.Server{
		Addr: cfg.Address,
		Handler: routes(*cfg, log, services{
			storage:    storage,
			production: productionService,
			statistics: statisticsService,
			excel:      excelService,
			metrics:    m,
		}),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server gracefully", sl.Err(err))
	}

	log.Info("server stopped")
}

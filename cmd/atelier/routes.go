package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getcostreport "atelier/http-server/cost-report/get"
	getflow "atelier/http-server/flow/get"
	generate_excel "atelier/http-server/generate-report/generate-excel"
	"atelier/http-server/health"
	getmaterials "atelier/http-server/materials/get"
	"atelier/http-server/production/move"
	"atelier/http-server/production/start"
	getstages "atelier/http-server/stages/get"
	gettracking "atelier/http-server/tracking/get"
	uptracking "atelier/http-server/tracking/update"
	getworkers "atelier/http-server/workers/get"
	"atelier/internal/config"
	"atelier/internal/metrics"
	"atelier/internal/middleware/auth"
	excelservice "atelier/internal/service/generate-excel"
	"atelier/internal/service/production"
	"atelier/internal/service/statistics"
	"atelier/internal/storage/mysql"
)

type services struct {
	storage    *mysql.Storage
	production *production.Service
	statistics *statistics.StatisticsService
	excel      *excelservice.GenerateExcelService
	metrics    *metrics.Metrics
}

func routes(cfg config.Config, log *slog.Logger, svc services) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(svc.metrics.Middleware)

	router.Get("/health", health.Health(log, svc.storage))
	router.Handle("/metrics", svc.metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.HTTPServer.RequestTimeout))

		r.Get("/flow", getflow.GetFlowBoard(log, svc.production))
		r.Get("/flow/statistics", getflow.GetFlowStatistics(log, svc.statistics))
		r.Get("/stages", getstages.GetStages(log, svc.production))
		r.Get("/workers", getworkers.GetWorkers(log, svc.storage))
		r.Get("/stations", getworkers.GetStations(log, svc.storage))

		r.Get("/orders/{id}/tracking", gettracking.GetOrderTracking(log, svc.production))
		r.Get("/orders/{id}/cost-report", getcostreport.GetCostReport(log, svc.production))
		r.Get("/orders/{id}/cost-report/excel", generate_excel.GenerateReportExcel(log, svc.excel))
		r.Get("/orders/{id}/materials", getmaterials.GetOrderMaterials(log, svc.storage))

		r.Group(func(r chi.Router) {
			r.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

			r.Post("/orders/{id}/start-production", start.StartProduction(log, svc.production))
			r.Post("/orders/{id}/move-to-stage", move.MoveToStage(log, svc.production))
			r.Post("/orders/{id}/move-to-next-stage", move.MoveToNextStage(log, svc.production))
			r.Put("/tracking/{id}/status", uptracking.UpdateStatus(log, svc.production))
		})
	})

	return router
}

package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/storage"
)

type CostReporter interface {
	GenerateCostReport(ctx context.Context, orderID int64) (storage.CostReport, error)
}

func GetCostReport(log *slog.Logger, reporter CostReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.cost-report.get.GetCostReport"

		log := log.With(slog.String("op", op))

		orderID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		report, err := reporter.GenerateCostReport(r.Context(), orderID)
		if err != nil {
			response.Error(w, r, log.With(slog.Int64("order_id", orderID)), err)
			return
		}

		render.JSON(w, r, report)
	}
}

package start

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/service/production"
)

type Starter interface {
	StartProduction(ctx context.Context, orderID int64, workerID *int64) (production.Transition, error)
}

type Request struct {
	WorkerID *int64 `json:"worker_id"`
}

func StartProduction(log *slog.Logger, starter Starter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.production.start.StartProduction"

		log := log.With(slog.String("op", op))

		orderID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}
		log = log.With(slog.Int64("order_id", orderID))

		var req Request
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		result, err := starter.StartProduction(r.Context(), orderID, req.WorkerID)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("production started")

		render.JSON(w, r, result)
	}
}

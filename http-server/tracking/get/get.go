package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/storage"
)

type Ledger interface {
	OrderTracking(ctx context.Context, orderID int64) ([]storage.TrackingView, error)
}

func GetOrderTracking(log *slog.Logger, ledger Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tracking.get.GetOrderTracking"

		log := log.With(slog.String("op", op))

		orderID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		rows, err := ledger.OrderTracking(r.Context(), orderID)
		if err != nil {
			response.Error(w, r, log.With(slog.Int64("order_id", orderID)), err)
			return
		}

		render.JSON(w, r, rows)
	}
}

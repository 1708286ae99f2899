package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/storage"
)

type Reservations interface {
	OrderReservations(ctx context.Context, orderID int64) ([]storage.MaterialReservation, error)
}

func GetOrderMaterials(log *slog.Logger, reservations Reservations) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.materials.get.GetOrderMaterials"

		log := log.With(slog.String("op", op))

		orderID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		list, err := reservations.OrderReservations(r.Context(), orderID)
		if err != nil {
			response.Error(w, r, log.With(slog.Int64("order_id", orderID)), err)
			return
		}
		if list == nil {
			list = []storage.MaterialReservation{}
		}

		render.JSON(w, r, list)
	}
}

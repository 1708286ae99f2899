package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/storage"
)

type Stages interface {
	ListActiveStages(ctx context.Context) ([]storage.Stage, error)
}

func GetStages(log *slog.Logger, stages Stages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.stages.get.GetStages"

		list, err := stages.ListActiveStages(r.Context())
		if err != nil {
			response.Error(w, r, log.With(slog.String("op", op)), err)
			return
		}

		render.JSON(w, r, list)
	}
}

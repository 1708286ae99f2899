package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/storage"
)

type Resources interface {
	Workers(ctx context.Context) ([]storage.Worker, error)
	Stations(ctx context.Context) ([]storage.Station, error)
}

func GetWorkers(log *slog.Logger, resources Resources) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workers.get.GetWorkers"

		workers, err := resources.Workers(r.Context())
		if err != nil {
			response.Error(w, r, log.With(slog.String("op", op)), err)
			return
		}
		if workers == nil {
			workers = []storage.Worker{}
		}

		render.JSON(w, r, workers)
	}
}

func GetStations(log *slog.Logger, resources Resources) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.workers.get.GetStations"

		stations, err := resources.Stations(r.Context())
		if err != nil {
			response.Error(w, r, log.With(slog.String("op", op)), err)
			return
		}
		if stations == nil {
			stations = []storage.Station{}
		}

		render.JSON(w, r, stations)
	}
}

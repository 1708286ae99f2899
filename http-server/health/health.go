package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/logger/sl"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func Health(log *slog.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health.Health"

		if err := db.Ping(r.Context()); err != nil {
			log.With(slog.String("op", op)).Error("database ping failed", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, Response{Status: "degraded", Database: "unreachable"})
			return
		}

		render.JSON(w, r, Response{Status: "ok", Database: "ok"})
	}
}

package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/storage"
)

type FlowBoard interface {
	FlowBoard(ctx context.Context) (storage.FlowBoard, error)
}

type FlowStatistics interface {
	FlowStatistics(ctx context.Context) (storage.FlowStatistics, error)
}

func GetFlowBoard(log *slog.Logger, board FlowBoard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.flow.get.GetFlowBoard"

		result, err := board.FlowBoard(r.Context())
		if err != nil {
			response.Error(w, r, log.With(slog.String("op", op)), err)
			return
		}

		render.JSON(w, r, result)
	}
}

func GetFlowStatistics(log *slog.Logger, stats FlowStatistics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.flow.get.GetFlowStatistics"

		result, err := stats.FlowStatistics(r.Context())
		if err != nil {
			response.Error(w, r, log.With(slog.String("op", op)), err)
			return
		}

		render.JSON(w, r, result)
	}
}

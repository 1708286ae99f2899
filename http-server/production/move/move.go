package move

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"atelier/internal/lib/api/response"
	"atelier/internal/lib/apperr"
	"atelier/internal/service/production"
)

type Mover interface {
	MoveToStage(ctx context.Context, req production.MoveRequest) (production.Transition, error)
	MoveToNextStage(ctx context.Context, orderID int64, workerID *int64) (production.Transition, error)
}

type StageRequest struct {
	TargetStageID int64  `json:"target_stage_id"`
	WorkerID      *int64 `json:"worker_id"`
	StationID     *int64 `json:"station_id"`
}

type NextRequest struct {
	WorkerID *int64 `json:"worker_id"`
}

func MoveToStage(log *slog.Logger, mover Mover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.production.move.MoveToStage"

		log := log.With(slog.String("op", op))

		orderID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		var req StageRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}
		if req.TargetStageID <= 0 {
			response.Error(w, r, log, apperr.Validation("target_stage_id is required"))
			return
		}
		log = log.With(slog.Int64("order_id", orderID), slog.Int64("stage_id", req.TargetStageID))

		result, err := mover.MoveToStage(r.Context(), production.MoveRequest{
			OrderID:       orderID,
			TargetStageID: req.TargetStageID,
			WorkerID:      req.WorkerID,
			StationID:     req.StationID,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, result)
	}
}

func MoveToNextStage(log *slog.Logger, mover Mover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.production.move.MoveToNextStage"

		log := log.With(slog.String("op", op))

		orderID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}
		log = log.With(slog.Int64("order_id", orderID))

		var req NextRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		result, err := mover.MoveToNextStage(r.Context(), orderID, req.WorkerID)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, result)
	}
}

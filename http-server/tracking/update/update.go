package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"atelier/internal/lib/api/response"
	"atelier/internal/lib/apperr"
	"atelier/internal/service/production"
	"atelier/internal/storage"
)

type StatusUpdater interface {
	UpdateStageStatus(ctx context.Context, u production.StatusUpdate) (storage.Tracking, error)
}

type Request struct {
	Status       storage.TrackingStatus `json:"status"`
	ActualHours  *decimal.Decimal       `json:"actual_hours"`
	QualityScore *int                   `json:"quality_score"`
	Notes        *string                `json:"notes"`
	WorkerID     *int64                 `json:"worker_id"`
}

func UpdateStatus(log *slog.Logger, updater StatusUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tracking.update.UpdateStatus"

		log := log.With(slog.String("op", op))

		trackingID, err := response.IDParam(r, "id")
		if err != nil {
			response.Error(w, r, log, err)
			return
		}
		log = log.With(slog.Int64("tracking_id", trackingID))

		var req Request
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}
		if req.Status == "" {
			response.Error(w, r, log, apperr.Validation("status is required"))
			return
		}

		row, err := updater.UpdateStageStatus(r.Context(), production.StatusUpdate{
			TrackingID:   trackingID,
			Status:       req.Status,
			ActualHours:  req.ActualHours,
			QualityScore: req.QualityScore,
			Notes:        req.Notes,
			WorkerID:     req.WorkerID,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, row)
	}
}

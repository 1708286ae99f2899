package production

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"atelier/internal/lib/apperr"
	"atelier/internal/storage"
)

// Assignment is the optional worker and station a stage is worked with.
type Assignment struct {
	WorkerID  *int64
	StationID *int64
}

// assign marks the worker busy and the station in use for orderID. A resource
// held by another order is refused; one already held by orderID is kept.
func (s *Service) assign(ctx context.Context, tx Tx, orderID int64, a Assignment) error {
	if a.WorkerID != nil {
		w, err := tx.LockWorker(ctx, *a.WorkerID)
		if err != nil {
			return err
		}
		if w.Status == storage.WorkerBusy && w.CurrentTaskID != nil && *w.CurrentTaskID != orderID {
			return apperr.BusinessRule(apperr.CodeResourceOccupied,
				fmt.Sprintf("worker %d is busy with order %d", w.ID, *w.CurrentTaskID))
		}
		w.Status = storage.WorkerBusy
		w.CurrentTaskID = &orderID
		if err := tx.SaveWorker(ctx, w); err != nil {
			return err
		}
	}

	if a.StationID != nil {
		st, err := tx.LockStation(ctx, *a.StationID)
		if err != nil {
			return err
		}
		if st.Status == storage.StationInUse && st.CurrentOrderID != nil && *st.CurrentOrderID != orderID {
			return apperr.BusinessRule(apperr.CodeResourceOccupied,
				fmt.Sprintf("station %d is in use by order %d", st.ID, *st.CurrentOrderID))
		}
		st.Status = storage.StationInUse
		st.CurrentOrderID = &orderID
		if err := tx.SaveStation(ctx, st); err != nil {
			return err
		}
	}

	return nil
}

// releaseResources frees the row's worker and station, but only while they
// still point at orderID.
func (s *Service) releaseResources(ctx context.Context, tx Tx, orderID int64, row storage.Tracking) error {
	if row.WorkerID != nil {
		w, err := tx.LockWorker(ctx, *row.WorkerID)
		if err != nil {
			return err
		}
		if w.CurrentTaskID != nil && *w.CurrentTaskID == orderID {
			w.Status = storage.WorkerAvailable
			w.CurrentTaskID = nil
			if err := tx.SaveWorker(ctx, w); err != nil {
				return err
			}
		}
	}

	if row.StationID != nil {
		st, err := tx.LockStation(ctx, *row.StationID)
		if err != nil {
			return err
		}
		if st.CurrentOrderID != nil && *st.CurrentOrderID == orderID {
			st.Status = storage.StationAvailable
			st.CurrentOrderID = nil
			if err := tx.SaveStation(ctx, st); err != nil {
				return err
			}
		}
	}

	return nil
}

// currentRow finds the stage the order is in: the row behind the order's
// pointer, or the in-progress row when the pointer is unset.
func currentRow(order storage.Order, rows []storage.Tracking) (storage.Tracking, bool) {
	for _, r := range rows {
		if order.CurrentStageID != nil {
			if r.StageID == *order.CurrentStageID && r.Status != storage.TrackingCompleted {
				return r, true
			}
			continue
		}
		if r.Status == storage.TrackingInProgress {
			return r, true
		}
	}
	return storage.Tracking{}, false
}

// lastCompletedRow is the completed row of the furthest active stage.
func lastCompletedRow(stages []storage.Stage, rows []storage.Tracking) (storage.Tracking, bool) {
	var (
		found storage.Tracking
		best  = -1
	)
	for _, r := range rows {
		if r.Status != storage.TrackingCompleted {
			continue
		}
		if idx := stageIndex(stages, r.StageID); idx > best {
			found, best = r, idx
		}
	}
	return found, best >= 0
}

// holdsResources reports whether the row's worker and station are assigned to
// the order. Pending and completed rows keep them only as a record.
func holdsResources(row storage.Tracking) bool {
	return row.Status == storage.TrackingInProgress || row.Status == storage.TrackingPaused
}

// release completes the order's current stage: resources are freed and the
// stage cost accrued. It reports false when the order is in no stage.
func (s *Service) release(ctx context.Context, tx Tx, order storage.Order) (storage.Tracking, bool, error) {
	rows, err := tx.OrderTracking(ctx, order.ID)
	if err != nil {
		return storage.Tracking{}, false, err
	}

	row, ok := currentRow(order, rows)
	if !ok {
		return storage.Tracking{}, false, nil
	}

	if err := s.releaseResources(ctx, tx, order.ID, row); err != nil {
		return storage.Tracking{}, false, err
	}

	row, err = s.recordStageExit(ctx, tx, row, decimal.NullDecimal{})
	if err != nil {
		return storage.Tracking{}, false, err
	}
	return row, true, nil
}

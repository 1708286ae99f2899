package production

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"atelier/internal/lib/apperr"
	"atelier/internal/notify"
	"atelier/internal/storage"
)

var transitions = map[storage.TrackingStatus][]storage.TrackingStatus{
	storage.TrackingPending:    {storage.TrackingInProgress},
	storage.TrackingInProgress: {storage.TrackingCompleted, storage.TrackingPaused},
	storage.TrackingPaused:     {storage.TrackingInProgress},
}

func canTransition(from, to storage.TrackingStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func minutesBetween(from *time.Time, to time.Time) int {
	if from == nil || to.Before(*from) {
		return 0
	}
	return int(to.Sub(*from) / time.Minute)
}

// workedHours is the whole minutes between start and end less paused minutes,
// expressed in hours with two decimals and never negative.
func workedHours(startedAt *time.Time, end time.Time, pausedMinutes int) decimal.Decimal {
	minutes := minutesBetween(startedAt, end) - pausedMinutes
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(hoursPlaces)
}

// resume folds the current pause into the row's paused minutes.
func resume(row *storage.Tracking, now time.Time) {
	if row.PausedAt != nil {
		row.PausedMinutes += minutesBetween(row.PausedAt, now)
		row.PausedAt = nil
	}
}

// initializeStages creates a pending row for every active stage the order has
// no row for and returns the order's full ledger. Existing rows are untouched.
func (s *Service) initializeStages(ctx context.Context, tx Tx, orderID int64, stages []storage.Stage) ([]storage.Tracking, error) {
	rows, err := tx.OrderTracking(ctx, orderID)
	if err != nil {
		return nil, err
	}

	have := make(map[int64]bool, len(rows))
	for _, r := range rows {
		have[r.StageID] = true
	}

	for _, st := range stages {
		if have[st.ID] {
			continue
		}
		row := storage.Tracking{
			OrderID: orderID,
			StageID: st.ID,
			Status:  storage.TrackingPending,
		}
		if err := tx.CreateTracking(ctx, &row); err != nil {
			return nil, fmt.Errorf("create tracking for stage %d: %w", st.ID, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// recordStageEntry puts the order's row for stage in progress, creating it if
// needed. No other row of the order may be in progress.
func (s *Service) recordStageEntry(ctx context.Context, tx Tx, orderID int64, stage storage.Stage, stages []storage.Stage, a Assignment) (storage.Tracking, error) {
	if _, err := activeStage(stages, stage.ID); err != nil {
		return storage.Tracking{}, err
	}

	rows, err := tx.OrderTracking(ctx, orderID)
	if err != nil {
		return storage.Tracking{}, err
	}

	var row *storage.Tracking
	for i := range rows {
		switch {
		case rows[i].StageID == stage.ID:
			row = &rows[i]
		case rows[i].Status == storage.TrackingInProgress:
			return storage.Tracking{}, apperr.BusinessRule(apperr.CodeStageInProgress,
				fmt.Sprintf("order already has stage %d in progress", rows[i].StageID))
		}
	}

	now := s.now()
	if row == nil {
		created := storage.Tracking{
			OrderID:   orderID,
			StageID:   stage.ID,
			Status:    storage.TrackingInProgress,
			WorkerID:  a.WorkerID,
			StationID: a.StationID,
			StartedAt: &now,
		}
		if err := tx.CreateTracking(ctx, &created); err != nil {
			return storage.Tracking{}, err
		}
		return created, nil
	}

	row.CompletedAt = nil
	if row.StartedAt == nil {
		row.StartedAt = &now
	}
	held := holdsResources(*row)
	if a.WorkerID != nil || !held {
		row.WorkerID = a.WorkerID
	}
	if a.StationID != nil || !held {
		row.StationID = a.StationID
	}
	resume(row, now)
	row.Status = storage.TrackingInProgress

	if err := tx.SaveTracking(ctx, *row); err != nil {
		return storage.Tracking{}, err
	}
	return *row, nil
}

// recordStageExit completes row and accrues its stage cost. A row that is
// already completed is returned unchanged, so cost is added once per exit.
// hours overrides the measured time when set.
func (s *Service) recordStageExit(ctx context.Context, tx Tx, row storage.Tracking, hours decimal.NullDecimal) (storage.Tracking, error) {
	if row.Status == storage.TrackingCompleted {
		return row, nil
	}

	now := s.now()
	resume(&row, now)
	if row.StartedAt == nil {
		row.StartedAt = &now
	}

	row.Status = storage.TrackingCompleted
	row.CompletedAt = &now
	if hours.Valid {
		row.ActualHours = decimal.NewNullDecimal(hours.Decimal.Round(hoursPlaces))
	} else {
		row.ActualHours = decimal.NewNullDecimal(workedHours(row.StartedAt, now, row.PausedMinutes))
	}

	if err := tx.SaveTracking(ctx, row); err != nil {
		return storage.Tracking{}, err
	}

	if _, err := s.stageCost(ctx, tx, row.OrderID, row.StageID, row.WorkerID, row.ActualHours.Decimal); err != nil {
		return storage.Tracking{}, err
	}

	return row, nil
}

type StatusUpdate struct {
	TrackingID   int64
	Status       storage.TrackingStatus
	ActualHours  *decimal.Decimal
	QualityScore *int
	Notes        *string
	WorkerID     *int64
}

func (u StatusUpdate) validate() error {
	if !u.Status.Valid() {
		return apperr.Validation(fmt.Sprintf("invalid status %q", u.Status))
	}
	if u.QualityScore != nil && (*u.QualityScore < 1 || *u.QualityScore > 10) {
		return apperr.Validation("quality_score must be between 1 and 10")
	}
	if u.ActualHours != nil && u.ActualHours.IsNegative() {
		return apperr.Validation("actual_hours must not be negative")
	}
	return nil
}

// UpdateStageStatus moves one ledger row through the status table and keeps
// the order, its resources and its cost in step with the row.
func (s *Service) UpdateStageStatus(ctx context.Context, u StatusUpdate) (storage.Tracking, error) {
	const op = "service.production.UpdateStageStatus"

	if err := u.validate(); err != nil {
		return storage.Tracking{}, err
	}

	var (
		result storage.Tracking
		events []notify.Event
	)
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		// The order is locked before the row, the same order every move uses.
		peek, err := tx.Tracking(ctx, u.TrackingID)
		if err != nil {
			return err
		}
		order, err := tx.LockOrder(ctx, peek.OrderID)
		if err != nil {
			return err
		}
		row, err := tx.LockTracking(ctx, u.TrackingID)
		if err != nil {
			return err
		}

		if !canTransition(row.Status, u.Status) {
			return apperr.BusinessRule(apperr.CodeInvalidTransition,
				fmt.Sprintf("cannot change stage status from %s to %s", row.Status, u.Status))
		}

		if u.WorkerID != nil {
			if _, err := tx.Worker(ctx, *u.WorkerID); err != nil {
				return err
			}
			if err := s.replaceWorker(ctx, tx, order.ID, row, *u.WorkerID, u.Status); err != nil {
				return err
			}
			row.WorkerID = u.WorkerID
		}
		if u.QualityScore != nil {
			row.QualityScore = u.QualityScore
		}
		if u.Notes != nil {
			row.Notes = u.Notes
		}

		stage, err := tx.Stage(ctx, row.StageID)
		if err != nil {
			return err
		}

		if row.Status == u.Status {
			if u.ActualHours != nil {
				row.ActualHours = decimal.NewNullDecimal(u.ActualHours.Round(hoursPlaces))
			}
			if err := tx.SaveTracking(ctx, row); err != nil {
				return err
			}
			result = row
			return nil
		}

		now := s.now()
		switch u.Status {
		case storage.TrackingInProgress:
			if order.Status.Terminal() {
				return apperr.BusinessRule(apperr.CodeOrderClosed, "order is "+string(order.Status))
			}
			if err := s.ensureNoOtherInProgress(ctx, tx, row); err != nil {
				return err
			}
			fromPending := row.Status == storage.TrackingPending
			resume(&row, now)
			row.Status = storage.TrackingInProgress
			if row.StartedAt == nil {
				row.StartedAt = &now
			}
			if err := tx.SaveTracking(ctx, row); err != nil {
				return err
			}
			if err := s.assign(ctx, tx, order.ID, Assignment{WorkerID: row.WorkerID}); err != nil {
				return err
			}

			stages, err := tx.ActiveStages(ctx)
			if err != nil {
				return err
			}
			order.Status = storage.OrderInProgress
			if order.StartedAt == nil {
				order.StartedAt = &now
			}
			order.CurrentStageID = &row.StageID
			order.Progress = progressFor(stages, row.StageID)
			if err := tx.SaveOrderState(ctx, order); err != nil {
				return err
			}
			if fromPending {
				s.metrics.StageEntered(stage.Name)
				events = append(events, s.newEvent(notify.StageStarted, order.ID, &stage, &row))
			}

		case storage.TrackingPaused:
			row.Status = storage.TrackingPaused
			row.PausedAt = &now
			if err := tx.SaveTracking(ctx, row); err != nil {
				return err
			}

		case storage.TrackingCompleted:
			var hours decimal.NullDecimal
			if u.ActualHours != nil {
				hours = decimal.NewNullDecimal(*u.ActualHours)
			}
			if err := s.releaseResources(ctx, tx, order.ID, row); err != nil {
				return err
			}
			row, err = s.recordStageExit(ctx, tx, row, hours)
			if err != nil {
				return err
			}
			if order.CurrentStageID != nil && *order.CurrentStageID == row.StageID {
				order.CurrentStageID = nil
				if err := tx.SaveOrderState(ctx, order); err != nil {
					return err
				}
			}
			s.metrics.StageCompleted(stage.Name)
			events = append(events, s.newEvent(notify.StageCompleted, order.ID, &stage, &row))
		}

		result = row
		return nil
	})
	if err != nil {
		return storage.Tracking{}, err
	}

	s.publish(ctx, events)
	return result, nil
}

// replaceWorker hands a row that holds resources over to workerID: the
// previous worker is freed and the new one taken unless the row is being
// completed.
func (s *Service) replaceWorker(ctx context.Context, tx Tx, orderID int64, row storage.Tracking, workerID int64, target storage.TrackingStatus) error {
	if !holdsResources(row) || (row.WorkerID != nil && *row.WorkerID == workerID) {
		return nil
	}
	if err := s.releaseResources(ctx, tx, orderID, storage.Tracking{WorkerID: row.WorkerID}); err != nil {
		return err
	}
	if target == storage.TrackingCompleted {
		return nil
	}
	return s.assign(ctx, tx, orderID, Assignment{WorkerID: &workerID})
}

func (s *Service) ensureNoOtherInProgress(ctx context.Context, tx Tx, row storage.Tracking) error {
	rows, err := tx.OrderTracking(ctx, row.OrderID)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.ID != row.ID && r.Status == storage.TrackingInProgress {
			return apperr.BusinessRule(apperr.CodeStageInProgress,
				fmt.Sprintf("order already has stage %d in progress", r.StageID))
		}
	}
	return nil
}

// OrderTracking lists an order's ledger joined with stage names, by sequence.
func (s *Service) OrderTracking(ctx context.Context, orderID int64) ([]storage.TrackingView, error) {
	const op = "service.production.OrderTracking"

	var views []storage.TrackingView
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Order(ctx, orderID); err != nil {
			return err
		}
		rows, err := tx.OrderTracking(ctx, orderID)
		if err != nil {
			return err
		}

		views = make([]storage.TrackingView, 0, len(rows))
		for _, r := range rows {
			st, err := tx.Stage(ctx, r.StageID)
			if err != nil {
				return err
			}
			views = append(views, storage.TrackingView{
				Tracking:      r,
				StageName:     st.Name,
				OrderSequence: st.OrderSequence,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(views, func(i, j int) bool { return views[i].OrderSequence < views[j].OrderSequence })
	return views, nil
}

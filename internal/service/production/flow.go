package production

import (
	"context"

	"atelier/internal/lib/apperr"
	"atelier/internal/notify"
	"atelier/internal/storage"
)

// Transition is the state of an order after a production move.
type Transition struct {
	Order     storage.Order     `json:"order"`
	Stage     *storage.Stage    `json:"stage"`
	Tracking  *storage.Tracking `json:"tracking"`
	Completed *storage.Tracking `json:"completed_stage,omitempty"`
}

type MoveRequest struct {
	OrderID       int64
	TargetStageID int64
	WorkerID      *int64
	StationID     *int64
}

func closedOrder(order storage.Order) error {
	return apperr.BusinessRule(apperr.CodeOrderClosed, "order is "+string(order.Status))
}

// StartProduction opens the ledger of a pending order and puts it in the
// first active stage.
func (s *Service) StartProduction(ctx context.Context, orderID int64, workerID *int64) (Transition, error) {
	const op = "service.production.StartProduction"

	var (
		res    Transition
		events []notify.Event
	)
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		switch {
		case order.Status == storage.OrderInProgress:
			return apperr.BusinessRule(apperr.CodeAlreadyStarted, "production already started")
		case order.Status != storage.OrderPending:
			return closedOrder(order)
		}

		stages, err := tx.ActiveStages(ctx)
		if err != nil {
			return err
		}
		if len(stages) == 0 {
			return apperr.BusinessRule(apperr.CodeNoActiveStages, "no active production stages")
		}
		first := stages[0]

		if err := s.inventory.ReserveForStage(ctx, tx, order.ID, first.ID); err != nil {
			return err
		}
		if _, err := s.initializeStages(ctx, tx, order.ID, stages); err != nil {
			return err
		}

		a := Assignment{WorkerID: workerID}
		row, err := s.recordStageEntry(ctx, tx, order.ID, first, stages, a)
		if err != nil {
			return err
		}
		if err := s.assign(ctx, tx, order.ID, a); err != nil {
			return err
		}

		order.Status = storage.OrderInProgress
		order.StartedAt = s.timestamp()
		order.CurrentStageID = &first.ID
		order.Progress = progressFor(stages, first.ID)
		if err := tx.SaveOrderState(ctx, order); err != nil {
			return err
		}

		if order, err = tx.Order(ctx, order.ID); err != nil {
			return err
		}

		s.metrics.StageEntered(first.Name)
		events = append(events, s.newEvent(notify.StageStarted, order.ID, &first, &row))
		res = Transition{Order: order, Stage: &first, Tracking: &row}
		return nil
	})
	if err != nil {
		return Transition{}, err
	}

	s.publish(ctx, events)
	return res, nil
}

// MoveToStage moves an order into any active stage. Materials for the target
// are reserved before anything else changes, so a shortage leaves the order
// where it was. Moving to the stage the order is already working in changes
// nothing.
func (s *Service) MoveToStage(ctx context.Context, req MoveRequest) (Transition, error) {
	const op = "service.production.MoveToStage"

	var (
		res    Transition
		events []notify.Event
	)
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		order, err := tx.LockOrder(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return closedOrder(order)
		}

		stages, err := tx.ActiveStages(ctx)
		if err != nil {
			return err
		}
		target, err := activeStage(stages, req.TargetStageID)
		if err != nil {
			return err
		}

		rows, err := tx.OrderTracking(ctx, order.ID)
		if err != nil {
			return err
		}
		cur, inStage := currentRow(order, rows)
		sameStage := inStage && cur.StageID == target.ID
		if sameStage && cur.Status == storage.TrackingInProgress {
			res = Transition{Order: order, Stage: &target, Tracking: &cur}
			return nil
		}

		if err := s.inventory.ReserveForStage(ctx, tx, order.ID, target.ID); err != nil {
			return err
		}

		if inStage && !sameStage {
			prev, ok, err := s.release(ctx, tx, order)
			if err != nil {
				return err
			}
			if ok {
				prevStage, err := tx.Stage(ctx, prev.StageID)
				if err != nil {
					return err
				}
				s.metrics.StageCompleted(prevStage.Name)
				events = append(events, s.newEvent(notify.StageCompleted, order.ID, &prevStage, &prev))
				res.Completed = &prev
			}
		}

		a := Assignment{WorkerID: req.WorkerID, StationID: req.StationID}
		row, err := s.recordStageEntry(ctx, tx, order.ID, target, stages, a)
		if err != nil {
			return err
		}
		if err := s.assign(ctx, tx, order.ID, a); err != nil {
			return err
		}

		order.Status = storage.OrderInProgress
		if order.StartedAt == nil {
			order.StartedAt = s.timestamp()
		}
		order.CurrentStageID = &target.ID
		order.Progress = progressFor(stages, target.ID)
		if err := tx.SaveOrderState(ctx, order); err != nil {
			return err
		}

		if order, err = tx.Order(ctx, order.ID); err != nil {
			return err
		}

		s.metrics.StageEntered(target.Name)
		events = append(events, s.newEvent(notify.StageStarted, order.ID, &target, &row))
		res.Order, res.Stage, res.Tracking = order, &target, &row
		return nil
	})
	if err != nil {
		return Transition{}, err
	}

	s.publish(ctx, events)
	return res, nil
}

// MoveToNextStage completes the order's current stage and enters the next
// active one by sequence. After the last stage the order is completed.
func (s *Service) MoveToNextStage(ctx context.Context, orderID int64, workerID *int64) (Transition, error) {
	const op = "service.production.MoveToNextStage"

	var (
		res    Transition
		events []notify.Event
	)
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return closedOrder(order)
		}

		rows, err := tx.OrderTracking(ctx, order.ID)
		if err != nil {
			return err
		}
		stages, err := tx.ActiveStages(ctx)
		if err != nil {
			return err
		}

		// A stage completed through the status endpoint leaves the order
		// between stages; it advances from that stage without a second exit.
		cur, ok := currentRow(order, rows)
		exited := false
		if !ok && order.Status == storage.OrderInProgress {
			cur, ok = lastCompletedRow(stages, rows)
			exited = ok
		}
		if !ok {
			return apperr.BusinessRule(apperr.CodeNotStarted, "order is not in any production stage")
		}

		curStage, err := tx.Stage(ctx, cur.StageID)
		if err != nil {
			return err
		}
		next, hasNext := nextStage(stages, curStage.OrderSequence)

		if hasNext {
			if err := s.inventory.ReserveForStage(ctx, tx, order.ID, next.ID); err != nil {
				return err
			}
		}

		prev := cur
		if !exited {
			if prev, _, err = s.release(ctx, tx, order); err != nil {
				return err
			}
			s.metrics.StageCompleted(curStage.Name)
			events = append(events, s.newEvent(notify.StageCompleted, order.ID, &curStage, &prev))
		}
		res.Completed = &prev

		if hasNext {
			a := Assignment{WorkerID: workerID}
			row, err := s.recordStageEntry(ctx, tx, order.ID, next, stages, a)
			if err != nil {
				return err
			}
			if err := s.assign(ctx, tx, order.ID, a); err != nil {
				return err
			}

			order.Status = storage.OrderInProgress
			order.CurrentStageID = &next.ID
			order.Progress = progressFor(stages, next.ID)

			s.metrics.StageEntered(next.Name)
			events = append(events, s.newEvent(notify.StageStarted, order.ID, &next, &row))
			res.Stage, res.Tracking = &next, &row
		} else {
			order.Status = storage.OrderCompleted
			order.CompletedAt = s.timestamp()
			order.Progress = 100
			order.CurrentStageID = nil

			s.metrics.OrderCompleted()
			events = append(events, s.newEvent(notify.OrderCompleted, order.ID, nil, nil))
		}
		if order.StartedAt == nil {
			order.StartedAt = s.timestamp()
		}

		if err := tx.SaveOrderState(ctx, order); err != nil {
			return err
		}
		if res.Order, err = tx.Order(ctx, order.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return Transition{}, err
	}

	s.publish(ctx, events)
	return res, nil
}

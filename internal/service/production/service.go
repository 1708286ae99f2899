// Package production runs an order through the workshop's production stages:
// it keeps the per-stage ledger, holds workers and stations, reserves
// materials and accrues stage cost, all inside one transaction per request.
package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"atelier/internal/lib/apperr"
	"atelier/internal/lib/logger/sl"
	"atelier/internal/notify"
	"atelier/internal/storage"
)

const defaultNotifyTimeout = 3 * time.Second

type Service struct {
	log           *slog.Logger
	store         Store
	inventory     Inventory
	sink          notify.Sink
	metrics       Metrics
	now           func() time.Time
	notifyTimeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithInventory(inv Inventory) Option {
	return func(s *Service) { s.inventory = inv }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func New(log *slog.Logger, store Store, sink notify.Sink, opts ...Option) *Service {
	s := &Service{
		log:           log,
		store:         store,
		sink:          sink,
		metrics:       noopMetrics{},
		now:           func() time.Time { return time.Now().UTC() },
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.inventory == nil {
		s.inventory = NewStockReserver(s.metrics)
	}
	return s
}

// inTx runs fn in a transaction and translates storage sentinels into
// classified errors. Anything else is wrapped with op and stays internal.
func (s *Service) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	err := s.store.InTx(ctx, fn)
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrOrderNotFound):
		return apperr.NotFound(apperr.CodeOrderNotFound, "order not found", err)
	case errors.Is(err, storage.ErrStageNotFound):
		return apperr.NotFound(apperr.CodeStageNotFound, "production stage not found", err)
	case errors.Is(err, storage.ErrTrackingNotFound):
		return apperr.NotFound(apperr.CodeTrackingNotFound, "tracking row not found", err)
	case errors.Is(err, storage.ErrWorkerNotFound):
		return apperr.NotFound(apperr.CodeWorkerNotFound, "worker not found", err)
	case errors.Is(err, storage.ErrStationNotFound):
		return apperr.NotFound(apperr.CodeStationNotFound, "station not found", err)
	case errors.Is(err, storage.ErrStageAlreadyRunning):
		return &apperr.Error{
			Kind:    apperr.KindBusinessRule,
			Code:    apperr.CodeStageInProgress,
			Message: "order already has a stage in progress",
			Err:     err,
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) timestamp() *time.Time {
	now := s.now()
	return &now
}

func (s *Service) newEvent(typ notify.EventType, orderID int64, stage *storage.Stage, row *storage.Tracking) notify.Event {
	e := notify.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OrderID:    orderID,
		OccurredAt: s.now(),
	}
	if stage != nil {
		e.StageID = stage.ID
		e.StageName = stage.Name
	}
	if row != nil {
		e.WorkerID = row.WorkerID
		e.StationID = row.StationID
	}
	return e
}

// publish hands committed events to the sink. Failures are logged and counted
// and never reach the caller, whose transaction is already durable.
func (s *Service) publish(ctx context.Context, events []notify.Event) {
	if s.sink == nil || len(events) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	for _, e := range events {
		if err := s.sink.Notify(ctx, e); err != nil {
			s.metrics.NotificationFailed(string(e.Type))
			s.log.Error("failed to deliver notification",
				slog.String("event_id", e.ID),
				slog.String("type", string(e.Type)),
				slog.Int64("order_id", e.OrderID),
				slog.Int64("stage_id", e.StageID),
				sl.Err(err),
			)
		}
	}
}

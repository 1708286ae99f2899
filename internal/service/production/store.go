package production

import (
	"context"

	"github.com/shopspring/decimal"

	"atelier/internal/storage"
)

// Store runs fn inside one database transaction. The transaction is committed
// when fn returns nil and rolled back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the storage surface of the production workflow. Lock* methods take a
// row lock held until the transaction ends; every mutation locks the order row
// first so that work on one order is serialised.
type Tx interface {
	ActiveStages(ctx context.Context) ([]storage.Stage, error)
	Stage(ctx context.Context, id int64) (storage.Stage, error)

	Order(ctx context.Context, id int64) (storage.Order, error)
	LockOrder(ctx context.Context, id int64) (storage.Order, error)
	// SaveOrderState writes status, progress, current stage and timestamps.
	// total_cost is only ever changed through AddOrderCost.
	SaveOrderState(ctx context.Context, order storage.Order) error
	AddOrderCost(ctx context.Context, orderID int64, amount decimal.Decimal) error
	BoardOrders(ctx context.Context) ([]storage.BoardOrder, error)

	OrderTracking(ctx context.Context, orderID int64) ([]storage.Tracking, error)
	Tracking(ctx context.Context, id int64) (storage.Tracking, error)
	LockTracking(ctx context.Context, id int64) (storage.Tracking, error)
	CreateTracking(ctx context.Context, t *storage.Tracking) error
	SaveTracking(ctx context.Context, t storage.Tracking) error

	Worker(ctx context.Context, id int64) (storage.Worker, error)
	LockWorker(ctx context.Context, id int64) (storage.Worker, error)
	SaveWorker(ctx context.Context, w storage.Worker) error
	WorkerStageRate(ctx context.Context, workerID, stageID int64) (decimal.NullDecimal, error)
	LockStation(ctx context.Context, id int64) (storage.Station, error)
	SaveStation(ctx context.Context, s storage.Station) error

	StageRequirements(ctx context.Context, orderID, stageID int64) ([]storage.MaterialRequirement, error)
	StageReservations(ctx context.Context, orderID, stageID int64) ([]storage.MaterialReservation, error)
	LockMaterial(ctx context.Context, id int64) (storage.Material, error)
	// CreateReservation inserts the reservation and raises the material's
	// reserved quantity by the same amount.
	CreateReservation(ctx context.Context, r storage.MaterialReservation) error
}

// Inventory reserves the materials a stage needs, inside the caller's
// transaction. A shortage is reported as a business-rule error.
type Inventory interface {
	ReserveForStage(ctx context.Context, tx Tx, orderID, stageID int64) error
}

// Metrics receives workflow counters.
type Metrics interface {
	StageEntered(stage string)
	StageCompleted(stage string)
	OrderCompleted()
	MaterialShortage()
	NotificationFailed(eventType string)
}

type noopMetrics struct{}

func (noopMetrics) StageEntered(string)       {}
func (noopMetrics) StageCompleted(string)     {}
func (noopMetrics) OrderCompleted()           {}
func (noopMetrics) MaterialShortage()         {}
func (noopMetrics) NotificationFailed(string) {}

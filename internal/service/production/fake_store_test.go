package production

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"atelier/internal/storage"
)

// fakeStore is an in-memory Store. Transactions are serialised and a failed
// transaction restores the state it started from.
type fakeStore struct {
	mu sync.Mutex

	stages       map[int64]storage.Stage
	orders       map[int64]storage.Order
	tracking     map[int64]storage.Tracking
	workers      map[int64]storage.Worker
	stations     map[int64]storage.Station
	materials    map[int64]storage.Material
	rates        map[[2]int64]decimal.Decimal
	requirements []storage.MaterialRequirement
	reservations []storage.MaterialReservation

	failOn map[string]error
	nextID int64
	txs    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stages:    map[int64]storage.Stage{},
		orders:    map[int64]storage.Order{},
		tracking:  map[int64]storage.Tracking{},
		workers:   map[int64]storage.Worker{},
		stations:  map[int64]storage.Station{},
		materials: map[int64]storage.Material{},
		rates:     map[[2]int64]decimal.Decimal{},
		failOn:    map[string]error{},
		nextID:    1000,
	}
}

type fakeSnapshot struct {
	stages       map[int64]storage.Stage
	orders       map[int64]storage.Order
	tracking     map[int64]storage.Tracking
	workers      map[int64]storage.Worker
	stations     map[int64]storage.Station
	materials    map[int64]storage.Material
	reservations []storage.MaterialReservation
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeStore) snapshot() fakeSnapshot {
	return fakeSnapshot{
		stages:       cloneMap(f.stages),
		orders:       cloneMap(f.orders),
		tracking:     cloneMap(f.tracking),
		workers:      cloneMap(f.workers),
		stations:     cloneMap(f.stations),
		materials:    cloneMap(f.materials),
		reservations: append([]storage.MaterialReservation(nil), f.reservations...),
	}
}

func (f *fakeStore) restore(s fakeSnapshot) {
	f.stages = s.stages
	f.orders = s.orders
	f.tracking = s.tracking
	f.workers = s.workers
	f.stations = s.stations
	f.materials = s.materials
	f.reservations = s.reservations
}

func (f *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txs++
	snap := f.snapshot()
	if err := fn(ctx, &fakeTx{f}); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// Helpers for assertions; they take the lock themselves.

func (f *fakeStore) order(id int64) storage.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

func (f *fakeStore) worker(id int64) storage.Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workers[id]
}

func (f *fakeStore) station(id int64) storage.Station {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stations[id]
}

func (f *fakeStore) material(id int64) storage.Material {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.materials[id]
}

func (f *fakeStore) rows(orderID int64) []storage.Tracking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderRows(orderID)
}

// row returns the order's row for stageID.
func (f *fakeStore) row(orderID, stageID int64) (storage.Tracking, bool) {
	for _, r := range f.rows(orderID) {
		if r.StageID == stageID {
			return r, true
		}
	}
	return storage.Tracking{}, false
}

func (f *fakeStore) inProgressCount(orderID int64) int {
	n := 0
	for _, r := range f.rows(orderID) {
		if r.Status == storage.TrackingInProgress {
			n++
		}
	}
	return n
}

func (f *fakeStore) reservationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations)
}

func (f *fakeStore) orderRows(orderID int64) []storage.Tracking {
	var rows []storage.Tracking
	for _, r := range f.tracking {
		if r.OrderID == orderID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

type fakeTx struct {
	f *fakeStore
}

func (t *fakeTx) fail(method string) error {
	return t.f.failOn[method]
}

func (t *fakeTx) ActiveStages(ctx context.Context) ([]storage.Stage, error) {
	if err := t.fail("ActiveStages"); err != nil {
		return nil, err
	}
	var out []storage.Stage
	for _, st := range t.f.stages {
		if st.IsActive {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderSequence < out[j].OrderSequence })
	return out, nil
}

func (t *fakeTx) Stage(ctx context.Context, id int64) (storage.Stage, error) {
	st, ok := t.f.stages[id]
	if !ok {
		return storage.Stage{}, storage.ErrStageNotFound
	}
	return st, nil
}

func (t *fakeTx) Order(ctx context.Context, id int64) (storage.Order, error) {
	o, ok := t.f.orders[id]
	if !ok {
		return storage.Order{}, storage.ErrOrderNotFound
	}
	return o, nil
}

func (t *fakeTx) LockOrder(ctx context.Context, id int64) (storage.Order, error) {
	if err := t.fail("LockOrder"); err != nil {
		return storage.Order{}, err
	}
	return t.Order(ctx, id)
}

func (t *fakeTx) SaveOrderState(ctx context.Context, order storage.Order) error {
	if err := t.fail("SaveOrderState"); err != nil {
		return err
	}
	cur, ok := t.f.orders[order.ID]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.TotalCost = cur.TotalCost
	t.f.orders[order.ID] = order
	return nil
}

func (t *fakeTx) AddOrderCost(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	cur, ok := t.f.orders[orderID]
	if !ok {
		return storage.ErrOrderNotFound
	}
	cur.TotalCost = cur.TotalCost.Add(amount)
	t.f.orders[orderID] = cur
	return nil
}

func (t *fakeTx) BoardOrders(ctx context.Context) ([]storage.BoardOrder, error) {
	ids := make([]int64, 0, len(t.f.orders))
	for id := range t.f.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]storage.BoardOrder, 0, len(ids))
	for _, id := range ids {
		o := t.f.orders[id]
		bo := storage.BoardOrder{
			ID:           o.ID,
			Reference:    o.Reference,
			CustomerName: o.CustomerName,
			Status:       o.Status,
			Priority:     o.Priority,
			DueDate:      o.DueDate,
			Progress:     o.Progress,
			TotalCost:    o.TotalCost,
		}
		for _, r := range t.f.orderRows(id) {
			if r.Status == storage.TrackingInProgress {
				stageID := r.StageID
				bo.InProgressStageID = &stageID
			}
		}
		out = append(out, bo)
	}
	return out, nil
}

func (t *fakeTx) OrderTracking(ctx context.Context, orderID int64) ([]storage.Tracking, error) {
	if err := t.fail("OrderTracking"); err != nil {
		return nil, err
	}
	return t.f.orderRows(orderID), nil
}

func (t *fakeTx) Tracking(ctx context.Context, id int64) (storage.Tracking, error) {
	r, ok := t.f.tracking[id]
	if !ok {
		return storage.Tracking{}, storage.ErrTrackingNotFound
	}
	return r, nil
}

func (t *fakeTx) LockTracking(ctx context.Context, id int64) (storage.Tracking, error) {
	return t.Tracking(ctx, id)
}

// checkRow mirrors the unique indexes of the tracking table.
func (t *fakeTx) checkRow(row storage.Tracking) error {
	for _, r := range t.f.tracking {
		if r.ID == row.ID || r.OrderID != row.OrderID {
			continue
		}
		if r.StageID == row.StageID {
			return storage.ErrTrackingExists
		}
		if r.Status == storage.TrackingInProgress && row.Status == storage.TrackingInProgress {
			return storage.ErrStageAlreadyRunning
		}
	}
	return nil
}

func (t *fakeTx) CreateTracking(ctx context.Context, row *storage.Tracking) error {
	if err := t.checkRow(*row); err != nil {
		return err
	}
	row.ID = t.f.id()
	t.f.tracking[row.ID] = *row
	return nil
}

func (t *fakeTx) SaveTracking(ctx context.Context, row storage.Tracking) error {
	if _, ok := t.f.tracking[row.ID]; !ok {
		return storage.ErrTrackingNotFound
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	t.f.tracking[row.ID] = row
	return nil
}

func (t *fakeTx) Worker(ctx context.Context, id int64) (storage.Worker, error) {
	w, ok := t.f.workers[id]
	if !ok {
		return storage.Worker{}, storage.ErrWorkerNotFound
	}
	return w, nil
}

func (t *fakeTx) LockWorker(ctx context.Context, id int64) (storage.Worker, error) {
	return t.Worker(ctx, id)
}

func (t *fakeTx) SaveWorker(ctx context.Context, w storage.Worker) error {
	t.f.workers[w.ID] = w
	return nil
}

func (t *fakeTx) WorkerStageRate(ctx context.Context, workerID, stageID int64) (decimal.NullDecimal, error) {
	rate, ok := t.f.rates[[2]int64{workerID, stageID}]
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(rate), nil
}

func (t *fakeTx) LockStation(ctx context.Context, id int64) (storage.Station, error) {
	st, ok := t.f.stations[id]
	if !ok {
		return storage.Station{}, storage.ErrStationNotFound
	}
	return st, nil
}

func (t *fakeTx) SaveStation(ctx context.Context, st storage.Station) error {
	t.f.stations[st.ID] = st
	return nil
}

func (t *fakeTx) StageRequirements(ctx context.Context, orderID, stageID int64) ([]storage.MaterialRequirement, error) {
	var out []storage.MaterialRequirement
	for _, r := range t.f.requirements {
		if r.OrderID == orderID && r.StageID == stageID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *fakeTx) StageReservations(ctx context.Context, orderID, stageID int64) ([]storage.MaterialReservation, error) {
	var out []storage.MaterialReservation
	for _, r := range t.f.reservations {
		if r.OrderID == orderID && r.StageID == stageID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *fakeTx) LockMaterial(ctx context.Context, id int64) (storage.Material, error) {
	m, ok := t.f.materials[id]
	if !ok {
		return storage.Material{}, storage.ErrMaterialNotFound
	}
	return m, nil
}

func (t *fakeTx) CreateReservation(ctx context.Context, r storage.MaterialReservation) error {
	for _, have := range t.f.reservations {
		if have.OrderID == r.OrderID && have.StageID == r.StageID && have.MaterialID == r.MaterialID {
			return errors.New("duplicate reservation")
		}
	}
	m, ok := t.f.materials[r.MaterialID]
	if !ok {
		return storage.ErrMaterialNotFound
	}
	m.ReservedQuantity = m.ReservedQuantity.Add(r.QuantityReserved)
	t.f.materials[m.ID] = m

	r.ID = t.f.id()
	t.f.reservations = append(t.f.reservations, r)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

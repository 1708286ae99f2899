package production

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"atelier/internal/lib/apperr"
	"atelier/internal/notify"
	"atelier/internal/storage"
)

const (
	orderID    int64 = 1
	otherOrder int64 = 2

	stageDesign  int64 = 1
	stageCutting int64 = 2
	stageSewing  int64 = 3

	workerAnna  int64 = 10
	workerBoris int64 = 11
	stationOne  int64 = 20
	fabricID    int64 = 30
)

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (s *recordingSink) Notify(ctx context.Context, e notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) types() []notify.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type countingMetrics struct {
	mu       sync.Mutex
	entered  map[string]int
	done     map[string]int
	orders   int
	shortage int
	failed   int
}

func (m *countingMetrics) StageEntered(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entered[stage]++
}

func (m *countingMetrics) StageCompleted(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[stage]++
}

func (m *countingMetrics) OrderCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders++
}

func (m *countingMetrics) MaterialShortage() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortage++
}

func (m *countingMetrics) NotificationFailed(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

type fixture struct {
	svc     *Service
	store   *fakeStore
	clock   *fakeClock
	sink    *recordingSink
	metrics *countingMetrics
}

// newFixture seeds three active stages (design, cutting, sewing with 2, 4 and
// 2 estimated hours), two pending orders, two workers and one station.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	for _, st := range []storage.Stage{
		{ID: stageDesign, Name: "design", OrderSequence: 1, EstimatedHours: decimal.NewFromInt(2), IsActive: true},
		{ID: stageCutting, Name: "cutting", OrderSequence: 2, EstimatedHours: decimal.NewFromInt(4), IsActive: true},
		{ID: stageSewing, Name: "sewing", OrderSequence: 3, EstimatedHours: decimal.NewFromInt(2), IsActive: true},
	} {
		store.stages[st.ID] = st
	}
	for _, id := range []int64{orderID, otherOrder} {
		store.orders[id] = storage.Order{
			ID:        id,
			Reference: "ORD-" + decimal.NewFromInt(id).String(),
			Status:    storage.OrderPending,
			Priority:  "normal",
			TotalCost: decimal.Zero,
		}
	}
	store.workers[workerAnna] = storage.Worker{
		ID: workerAnna, Name: "Anna", Status: storage.WorkerAvailable,
		HourlyRate: decimal.NewNullDecimal(decimal.NewFromInt(10)),
	}
	store.workers[workerBoris] = storage.Worker{
		ID: workerBoris, Name: "Boris", Status: storage.WorkerAvailable,
		HourlyRate: decimal.NewNullDecimal(decimal.NewFromInt(12)),
	}
	store.stations[stationOne] = storage.Station{ID: stationOne, Name: "Table 1", Status: storage.StationAvailable}

	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	sink := &recordingSink{}
	metrics := &countingMetrics{entered: map[string]int{}, done: map[string]int{}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := New(log, store, sink, WithClock(clock.Now), WithMetrics(metrics))

	return &fixture{svc: svc, store: store, clock: clock, sink: sink, metrics: metrics}
}

func (fx *fixture) addMaterial(t *testing.T, stock, costPerUnit string) {
	t.Helper()
	fx.store.materials[fabricID] = storage.Material{
		ID:               fabricID,
		Name:             "wool",
		Unit:             "m",
		CostPerUnit:      decimal.RequireFromString(costPerUnit),
		StockQuantity:    decimal.RequireFromString(stock),
		ReservedQuantity: decimal.Zero,
	}
}

func (fx *fixture) needMaterial(orderID, stageID int64, qty string) {
	fx.store.requirements = append(fx.store.requirements, storage.MaterialRequirement{
		OrderID:    orderID,
		StageID:    stageID,
		MaterialID: fabricID,
		Quantity:   decimal.RequireFromString(qty),
	})
}

func (fx *fixture) start(t *testing.T, workerID *int64) Transition {
	t.Helper()
	res, err := fx.svc.StartProduction(context.Background(), orderID, workerID)
	require.NoError(t, err)
	return res
}

func ptr[T any](v T) *T {
	return &v
}

func requireCode(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperr.As(err)
	require.Equal(t, kind, appErr.Kind, err.Error())
	require.Equal(t, code, appErr.Code, err.Error())
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

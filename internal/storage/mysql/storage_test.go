package mysql

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/lib/apperr"
	"atelier/internal/service/production"
	"atelier/internal/storage"
)

func TestActiveStages_OrderedBySequence(t *testing.T) {
	s := newTestStorage(t)
	sewing := createStage(t, "sewing", 30, true)
	design := createStage(t, "design", 10, true)
	createStage(t, "embroidery", 20, false)

	stages, err := s.ActiveStages(context.Background())
	require.NoError(t, err)

	require.Len(t, stages, 2)
	assert.Equal(t, design, stages[0].ID)
	assert.Equal(t, sewing, stages[1].ID)
	assert.True(t, decimal.NewFromInt(2).Equal(stages[0].EstimatedHours))
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	orderID := createOrder(t, "ORD-1", "pending")
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx production.Tx) error {
		if err := tx.AddOrderCost(ctx, orderID, decimal.NewFromInt(50)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.InTx(ctx, func(ctx context.Context, tx production.Tx) error {
		o, err := tx.Order(ctx, orderID)
		require.NoError(t, err)
		assert.True(t, o.TotalCost.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestLockOrder_NotFound(t *testing.T) {
	s := newTestStorage(t)

	err := s.InTx(context.Background(), func(ctx context.Context, tx production.Tx) error {
		_, err := tx.LockOrder(ctx, 404)
		return err
	})
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}

func TestTracking_UniqueIndexes(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	design := createStage(t, "design", 1, true)
	cutting := createStage(t, "cutting", 2, true)
	orderID := createOrder(t, "ORD-1", "in_progress")
	now := time.Now().UTC().Truncate(time.Second)

	err := s.InTx(ctx, func(ctx context.Context, tx production.Tx) error {
		first := storage.Tracking{OrderID: orderID, StageID: design, Status: storage.TrackingInProgress, StartedAt: &now}
		require.NoError(t, tx.CreateTracking(ctx, &first))
		assert.NotZero(t, first.ID)
		assert.Equal(t, now, *first.StartedAt)

		dup := storage.Tracking{OrderID: orderID, StageID: design, Status: storage.TrackingPending}
		assert.ErrorIs(t, tx.CreateTracking(ctx, &dup), storage.ErrTrackingExists)

		second := storage.Tracking{OrderID: orderID, StageID: cutting, Status: storage.TrackingPending}
		require.NoError(t, tx.CreateTracking(ctx, &second))

		second.Status = storage.TrackingInProgress
		assert.ErrorIs(t, tx.SaveTracking(ctx, second), storage.ErrStageAlreadyRunning)
		return nil
	})
	require.NoError(t, err)
}

func TestTracking_RoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	stage := createStage(t, "design", 1, true)
	orderID := createOrder(t, "ORD-1", "in_progress")
	workerID := createWorker(t, "Anna", "10")
	stationID := createStation(t, "Table 1")
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	done := started.Add(90 * time.Minute)
	score := 8
	notes := "hem redone"

	err := s.InTx(ctx, func(ctx context.Context, tx production.Tx) error {
		row := storage.Tracking{OrderID: orderID, StageID: stage, Status: storage.TrackingInProgress, StartedAt: &started}
		require.NoError(t, tx.CreateTracking(ctx, &row))

		row.Status = storage.TrackingCompleted
		row.WorkerID = &workerID
		row.StationID = &stationID
		row.CompletedAt = &done
		row.PausedMinutes = 15
		row.ActualHours = decimal.NewNullDecimal(decimal.RequireFromString("1.25"))
		row.QualityScore = &score
		row.Notes = &notes
		require.NoError(t, tx.SaveTracking(ctx, row))

		got, err := tx.LockTracking(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.TrackingCompleted, got.Status)
		assert.Equal(t, &workerID, got.WorkerID)
		assert.Equal(t, &stationID, got.StationID)
		assert.Equal(t, done, *got.CompletedAt)
		assert.Nil(t, got.PausedAt)
		assert.Equal(t, 15, got.PausedMinutes)
		assert.True(t, decimal.RequireFromString("1.25").Equal(got.ActualHours.Decimal))
		assert.Equal(t, &score, got.QualityScore)
		assert.Equal(t, &notes, got.Notes)

		ledger, err := tx.OrderTracking(ctx, orderID)
		require.NoError(t, err)
		assert.Len(t, ledger, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestResources_RatesAndLocks(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	stage := createStage(t, "cutting", 1, true)
	orderID := createOrder(t, "ORD-1", "in_progress")
	anna := createWorker(t, "Anna", "10.5")
	intern := createWorker(t, "Intern", "")
	station := createStation(t, "Table 1")
	_, err := testDB.Exec(`INSERT INTO worker_stage_rates (worker_id, production_stage_id, hourly_rate) VALUES (?, ?, ?)`, anna, stage, "14.25")
	require.NoError(t, err)

	err = s.InTx(ctx, func(ctx context.Context, tx production.Tx) error {
		rate, err := tx.WorkerStageRate(ctx, anna, stage)
		require.NoError(t, err)
		assert.True(t, rate.Valid)
		assert.True(t, decimal.RequireFromString("14.25").Equal(rate.Decimal))

		rate, err = tx.WorkerStageRate(ctx, intern, stage)
		require.NoError(t, err)
		assert.False(t, rate.Valid)

		w, err := tx.LockWorker(ctx, intern)
		require.NoError(t, err)
		assert.False(t, w.HourlyRate.Valid)

		w.Status = storage.WorkerBusy
		w.CurrentTaskID = &orderID
		require.NoError(t, tx.SaveWorker(ctx, w))

		st, err := tx.LockStation(ctx, station)
		require.NoError(t, err)
		st.Status = storage.StationInUse
		st.CurrentOrderID = &orderID
		require.NoError(t, tx.SaveStation(ctx, st))

		_, err = tx.LockStation(ctx, 404)
		assert.ErrorIs(t, err, storage.ErrStationNotFound)
		return nil
	})
	require.NoError(t, err)

	workers, err := s.Workers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "Anna", workers[0].Name)
	assert.Equal(t, storage.WorkerBusy, workers[1].Status)
	assert.Equal(t, &orderID, workers[1].CurrentTaskID)

	stations, err := s.Stations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, storage.StationInUse, stations[0].Status)

	util, err := s.ResourceUtilization(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.ResourceUtilization{WorkersTotal: 2, WorkersBusy: 1, StationsTotal: 1, StationsInUse: 1}, util)
}

func TestReservations_RaiseReservedQuantity(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	stage := createStage(t, "cutting", 1, true)
	orderID := createOrder(t, "ORD-1", "in_progress")
	wool := createMaterial(t, "wool", "12.5", "10")
	createRequirement(t, orderID, stage, wool, "4")

	err := s.InTx(ctx, func(ctx context.Context, tx production.Tx) error {
		reqs, err := tx.StageRequirements(ctx, orderID, stage)
		require.NoError(t, err)
		require.Len(t, reqs, 1)

		m, err := tx.LockMaterial(ctx, wool)
		require.NoError(t, err)

		return tx.CreateReservation(ctx, storage.MaterialReservation{
			OrderID:          orderID,
			StageID:          stage,
			MaterialID:       m.ID,
			QuantityReserved: reqs[0].Quantity,
		})
	})
	require.NoError(t, err)

	reservations, err := s.OrderReservations(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, "wool", reservations[0].MaterialName)
	assert.True(t, decimal.RequireFromString("12.5").Equal(reservations[0].CostPerUnit))
	assert.False(t, reservations[0].QuantityUsed.Valid)

	var reserved decimal.Decimal
	require.NoError(t, testDB.QueryRow(`SELECT reserved_quantity FROM materials WHERE id = ?`, wool).Scan(&reserved))
	assert.True(t, decimal.NewFromInt(4).Equal(reserved))

	_, err = s.OrderReservations(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}

func TestStatistics(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	design := createStage(t, "design", 1, true)
	createStage(t, "archive", 2, false)
	late := createOrder(t, "ORD-1", "in_progress")
	createOrder(t, "ORD-2", "pending")
	createOrder(t, "ORD-3", "completed")
	_, err := testDB.Exec(`UPDATE orders SET due_date = ? WHERE id = ?`, time.Now().Add(-48*time.Hour).UTC(), late)
	require.NoError(t, err)
	_, err = testDB.Exec(`INSERT INTO order_production_tracking (order_id, production_stage_id, status, actual_hours, quality_score) VALUES (?, ?, 'completed', 2.5, 8)`, late, design)
	require.NoError(t, err)

	counts, err := s.OrderStatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[storage.OrderStatus]int{
		storage.OrderInProgress: 1,
		storage.OrderPending:    1,
		storage.OrderCompleted:  1,
	}, counts)

	overdue, err := s.OverdueOrders(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, overdue)

	loads, err := s.StageLoads(ctx)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, design, loads[0].StageID)
	assert.Equal(t, 1, loads[0].Completed)
	assert.Equal(t, 0, loads[0].InProgress)
	assert.True(t, decimal.RequireFromString("2.5").Equal(loads[0].AvgActualHours))
	assert.True(t, decimal.NewFromInt(8).Equal(loads[0].AvgQualityScore))
}

// TestProductionFlow_MaterialShortageRollsBack drives the workflow against the
// real schema: a shortage on the target stage must leave no trace.
func TestProductionFlow_MaterialShortageRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	design := createStage(t, "design", 1, true)
	cutting := createStage(t, "cutting", 2, true)
	createStage(t, "sewing", 3, true)
	orderID := createOrder(t, "ORD-1", "pending")
	anna := createWorker(t, "Anna", "10")
	wool := createMaterial(t, "wool", "12.5", "3")
	createRequirement(t, orderID, cutting, wool, "5")

	svc := production.New(slog.New(slog.NewTextHandler(io.Discard, nil)), s, nil)

	started, err := svc.StartProduction(ctx, orderID, &anna)
	require.NoError(t, err)
	assert.Equal(t, 33, started.Order.Progress)

	_, err = svc.MoveToStage(ctx, production.MoveRequest{OrderID: orderID, TargetStageID: cutting})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeMaterialShortage, apperr.As(err).Code)

	views, err := svc.OrderTracking(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, design, views[0].StageID)
	assert.Equal(t, storage.TrackingInProgress, views[0].Status)
	assert.Equal(t, storage.TrackingPending, views[1].Status)

	board, err := svc.FlowBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, board.Buckets[1].Count)

	next, err := svc.MoveToNextStage(ctx, orderID, nil)
	require.Error(t, err)
	assert.Empty(t, next.Order.Reference)

	_, err = testDB.Exec(`UPDATE materials SET stock_quantity = 10 WHERE id = ?`, wool)
	require.NoError(t, err)

	next, err = svc.MoveToNextStage(ctx, orderID, nil)
	require.NoError(t, err)
	assert.Equal(t, cutting, next.Stage.ID)
	assert.Equal(t, 67, next.Order.Progress)

	report, err := svc.GenerateCostReport(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, report.AccruedTotal.Equal(next.Order.TotalCost))
}

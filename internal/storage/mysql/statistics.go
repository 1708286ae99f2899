package mysql

import (
	"context"
	"fmt"
	"time"

	"atelier/internal/storage"
)

func (s *Storage) OrderStatusCounts(ctx context.Context) (map[storage.OrderStatus]int, error) {
	const op = "storage.mysql.OrderStatusCounts"

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := make(map[storage.OrderStatus]int)
	for rows.Next() {
		var (
			status storage.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

// OverdueOrders counts open orders whose due date lies before now.
func (s *Storage) OverdueOrders(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.mysql.OverdueOrders"

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE due_date < ? AND status IN (?, ?)`,
		now, storage.OrderPending, storage.OrderInProgress,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// StageLoads reports, per active stage, how many ledger rows are running and
// done, with the average hours and quality score of finished work.
func (s *Storage) StageLoads(ctx context.Context) ([]storage.StageLoad, error) {
	const op = "storage.mysql.StageLoads"

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name,
		       COALESCE(SUM(t.status = 'in_progress'), 0),
		       COALESCE(SUM(t.status = 'completed'), 0),
		       COALESCE(AVG(CASE WHEN t.status = 'completed' THEN t.actual_hours END), 0),
		       COALESCE(AVG(t.quality_score), 0)
		FROM production_stages s
		LEFT JOIN order_production_tracking t ON t.production_stage_id = s.id
		WHERE s.is_active = 1
		GROUP BY s.id, s.name, s.order_sequence
		ORDER BY s.order_sequence`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var loads []storage.StageLoad
	for rows.Next() {
		var l storage.StageLoad
		if err := rows.Scan(&l.StageID, &l.StageName, &l.InProgress, &l.Completed, &l.AvgActualHours, &l.AvgQualityScore); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		l.AvgActualHours = l.AvgActualHours.Round(2)
		l.AvgQualityScore = l.AvgQualityScore.Round(2)
		loads = append(loads, l)
	}

	return loads, rows.Err()
}

func (s *Storage) ResourceUtilization(ctx context.Context) (storage.ResourceUtilization, error) {
	const op = "storage.mysql.ResourceUtilization"

	var u storage.ResourceUtilization
	err := s.db.QueryRowContext(ctx, `
		SELECT
		    (SELECT COUNT(*) FROM workers),
		    (SELECT COUNT(*) FROM workers WHERE status = ?),
		    (SELECT COUNT(*) FROM stations),
		    (SELECT COUNT(*) FROM stations WHERE status = ?)`,
		storage.WorkerBusy, storage.StationInUse,
	).Scan(&u.WorkersTotal, &u.WorkersBusy, &u.StationsTotal, &u.StationsInUse)
	if err != nil {
		return storage.ResourceUtilization{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

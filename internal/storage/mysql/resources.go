package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"atelier/internal/storage"
)

const (
	workerColumns  = `id, name, status, current_task_id, hourly_rate`
	stationColumns = `id, name, status, current_order_id`
)

func scanWorker(row scanner) (storage.Worker, error) {
	var w storage.Worker
	err := row.Scan(&w.ID, &w.Name, &w.Status, &w.CurrentTaskID, &w.HourlyRate)
	return w, err
}

func scanStation(row scanner) (storage.Station, error) {
	var st storage.Station
	err := row.Scan(&st.ID, &st.Name, &st.Status, &st.CurrentOrderID)
	return st, err
}

func workerByID(ctx context.Context, q querier, id int64, lock bool) (storage.Worker, error) {
	const op = "storage.mysql.workerByID"

	query := `SELECT ` + workerColumns + ` FROM workers WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	w, err := scanWorker(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Worker{}, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrWorkerNotFound)
	}
	if err != nil {
		return storage.Worker{}, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}

func (s *Storage) Workers(ctx context.Context) ([]storage.Worker, error) {
	const op = "storage.mysql.Workers"

	rows, err := s.db.QueryContext(ctx, `SELECT `+workerColumns+` FROM workers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var workers []storage.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		workers = append(workers, w)
	}

	return workers, rows.Err()
}

func (s *Storage) Stations(ctx context.Context) ([]storage.Station, error) {
	const op = "storage.mysql.Stations"

	rows, err := s.db.QueryContext(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var stations []storage.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		stations = append(stations, st)
	}

	return stations, rows.Err()
}

func (t *Tx) Worker(ctx context.Context, id int64) (storage.Worker, error) {
	return workerByID(ctx, t.tx, id, false)
}

func (t *Tx) LockWorker(ctx context.Context, id int64) (storage.Worker, error) {
	return workerByID(ctx, t.tx, id, true)
}

func (t *Tx) SaveWorker(ctx context.Context, w storage.Worker) error {
	const op = "storage.mysql.SaveWorker"

	_, err := t.tx.ExecContext(ctx, `UPDATE workers SET status = ?, current_task_id = ? WHERE id = ?`, w.Status, w.CurrentTaskID, w.ID)
	if err != nil {
		return fmt.Errorf("%s: id=%d: %w", op, w.ID, err)
	}
	return nil
}

// WorkerStageRate returns the worker's rate for the stage, or an invalid
// NullDecimal when none is set.
func (t *Tx) WorkerStageRate(ctx context.Context, workerID, stageID int64) (decimal.NullDecimal, error) {
	const op = "storage.mysql.WorkerStageRate"

	var rate decimal.NullDecimal
	err := t.tx.QueryRowContext(ctx,
		`SELECT hourly_rate FROM worker_stage_rates WHERE worker_id = ? AND production_stage_id = ?`,
		workerID, stageID,
	).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.NullDecimal{}, nil
	}
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", op, err)
	}
	return rate, nil
}

func (t *Tx) LockStation(ctx context.Context, id int64) (storage.Station, error) {
	const op = "storage.mysql.LockStation"

	st, err := scanStation(t.tx.QueryRowContext(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Station{}, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrStationNotFound)
	}
	if err != nil {
		return storage.Station{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

func (t *Tx) SaveStation(ctx context.Context, st storage.Station) error {
	const op = "storage.mysql.SaveStation"

	_, err := t.tx.ExecContext(ctx, `UPDATE stations SET status = ?, current_order_id = ? WHERE id = ?`, st.Status, st.CurrentOrderID, st.ID)
	if err != nil {
		return fmt.Errorf("%s: id=%d: %w", op, st.ID, err)
	}
	return nil
}

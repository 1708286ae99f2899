package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier/internal/storage"
)

const trackingColumns = `id, order_id, production_stage_id, status, worker_id, station_id, started_at,
	completed_at, paused_at, paused_minutes, actual_hours, quality_score, notes, created_at, updated_at`

const idxTrackingInProgress = "uq_tracking_in_progress"

func scanTracking(row scanner) (storage.Tracking, error) {
	var t storage.Tracking
	err := row.Scan(
		&t.ID,
		&t.OrderID,
		&t.StageID,
		&t.Status,
		&t.WorkerID,
		&t.StationID,
		&t.StartedAt,
		&t.CompletedAt,
		&t.PausedAt,
		&t.PausedMinutes,
		&t.ActualHours,
		&t.QualityScore,
		&t.Notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func trackingByID(ctx context.Context, q querier, id int64, lock bool) (storage.Tracking, error) {
	const op = "storage.mysql.trackingByID"

	query := `SELECT ` + trackingColumns + ` FROM order_production_tracking WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	t, err := scanTracking(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Tracking{}, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrTrackingNotFound)
	}
	if err != nil {
		return storage.Tracking{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// mapTrackingWriteErr turns unique violations of the ledger into sentinels.
func mapTrackingWriteErr(err error) error {
	switch {
	case duplicateKey(err, idxTrackingInProgress):
		return storage.ErrStageAlreadyRunning
	case duplicateKey(err, ""):
		return storage.ErrTrackingExists
	}
	return err
}

func (t *Tx) OrderTracking(ctx context.Context, orderID int64) ([]storage.Tracking, error) {
	const op = "storage.mysql.OrderTracking"

	rows, err := t.tx.QueryContext(ctx, `SELECT `+trackingColumns+` FROM order_production_tracking WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ledger []storage.Tracking
	for rows.Next() {
		row, err := scanTracking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ledger = append(ledger, row)
	}

	return ledger, rows.Err()
}

func (t *Tx) Tracking(ctx context.Context, id int64) (storage.Tracking, error) {
	return trackingByID(ctx, t.tx, id, false)
}

func (t *Tx) LockTracking(ctx context.Context, id int64) (storage.Tracking, error) {
	return trackingByID(ctx, t.tx, id, true)
}

func (t *Tx) CreateTracking(ctx context.Context, row *storage.Tracking) error {
	const op = "storage.mysql.CreateTracking"

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO order_production_tracking
		(order_id, production_stage_id, status, worker_id, station_id, started_at, completed_at, paused_at,
		 paused_minutes, actual_hours, quality_score, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.OrderID, row.StageID, row.Status, row.WorkerID, row.StationID, row.StartedAt, row.CompletedAt,
		row.PausedAt, row.PausedMinutes, row.ActualHours, row.QualityScore, row.Notes,
	)
	if err != nil {
		return fmt.Errorf("%s: order id=%d stage id=%d: %w", op, row.OrderID, row.StageID, mapTrackingWriteErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: last insert id: %w", op, err)
	}

	created, err := trackingByID(ctx, t.tx, id, false)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*row = created

	return nil
}

func (t *Tx) SaveTracking(ctx context.Context, row storage.Tracking) error {
	const op = "storage.mysql.SaveTracking"

	_, err := t.tx.ExecContext(ctx, `
		UPDATE order_production_tracking
		SET status = ?, worker_id = ?, station_id = ?, started_at = ?, completed_at = ?, paused_at = ?,
		    paused_minutes = ?, actual_hours = ?, quality_score = ?, notes = ?
		WHERE id = ?`,
		row.Status, row.WorkerID, row.StationID, row.StartedAt, row.CompletedAt, row.PausedAt,
		row.PausedMinutes, row.ActualHours, row.QualityScore, row.Notes, row.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: id=%d: %w", op, row.ID, mapTrackingWriteErr(err))
	}
	return nil
}

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier/internal/storage"
)

const stageColumns = `id, name, order_sequence, estimated_hours, is_active`

func scanStage(row scanner) (storage.Stage, error) {
	var st storage.Stage
	err := row.Scan(&st.ID, &st.Name, &st.OrderSequence, &st.EstimatedHours, &st.IsActive)
	return st, err
}

func activeStages(ctx context.Context, q querier) ([]storage.Stage, error) {
	const op = "storage.mysql.activeStages"

	rows, err := q.QueryContext(ctx, `SELECT `+stageColumns+` FROM production_stages WHERE is_active = 1 ORDER BY order_sequence`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var stages []storage.Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		stages = append(stages, st)
	}

	return stages, rows.Err()
}

func stageByID(ctx context.Context, q querier, id int64) (storage.Stage, error) {
	const op = "storage.mysql.stageByID"

	st, err := scanStage(q.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM production_stages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Stage{}, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrStageNotFound)
	}
	if err != nil {
		return storage.Stage{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// ActiveStages lists the active catalog ascending by sequence.
func (s *Storage) ActiveStages(ctx context.Context) ([]storage.Stage, error) {
	return activeStages(ctx, s.db)
}

func (t *Tx) ActiveStages(ctx context.Context) ([]storage.Stage, error) {
	return activeStages(ctx, t.tx)
}

func (t *Tx) Stage(ctx context.Context, id int64) (storage.Stage, error) {
	return stageByID(ctx, t.tx, id)
}

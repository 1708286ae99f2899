package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"atelier/internal/storage"
)

const orderColumns = `id, reference, customer_name, status, priority, due_date, total_cost,
	progress, current_stage_id, started_at, completed_at, created_at, updated_at`

func scanOrder(row scanner) (storage.Order, error) {
	var o storage.Order
	err := row.Scan(
		&o.ID,
		&o.Reference,
		&o.CustomerName,
		&o.Status,
		&o.Priority,
		&o.DueDate,
		&o.TotalCost,
		&o.Progress,
		&o.CurrentStageID,
		&o.StartedAt,
		&o.CompletedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

func orderByID(ctx context.Context, q querier, id int64, lock bool) (storage.Order, error) {
	const op = "storage.mysql.orderByID"

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Order{}, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrOrderNotFound)
	}
	if err != nil {
		return storage.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

func (t *Tx) Order(ctx context.Context, id int64) (storage.Order, error) {
	return orderByID(ctx, t.tx, id, false)
}

func (t *Tx) LockOrder(ctx context.Context, id int64) (storage.Order, error) {
	return orderByID(ctx, t.tx, id, true)
}

func (t *Tx) SaveOrderState(ctx context.Context, o storage.Order) error {
	const op = "storage.mysql.SaveOrderState"

	_, err := t.tx.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, progress = ?, current_stage_id = ?, started_at = ?, completed_at = ?
		WHERE id = ?`,
		o.Status, o.Progress, o.CurrentStageID, o.StartedAt, o.CompletedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: order id=%d: %w", op, o.ID, err)
	}
	return nil
}

func (t *Tx) AddOrderCost(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	const op = "storage.mysql.AddOrderCost"

	_, err := t.tx.ExecContext(ctx, `UPDATE orders SET total_cost = total_cost + ? WHERE id = ?`, amount, orderID)
	if err != nil {
		return fmt.Errorf("%s: order id=%d: %w", op, orderID, err)
	}
	return nil
}

// BoardOrders lists every order with the stage its ledger has in progress,
// most urgent first.
func (t *Tx) BoardOrders(ctx context.Context) ([]storage.BoardOrder, error) {
	const op = "storage.mysql.BoardOrders"

	rows, err := t.tx.QueryContext(ctx, `
		SELECT o.id, o.reference, o.customer_name, o.status, o.priority, o.due_date,
		       o.progress, o.total_cost, t.production_stage_id
		FROM orders o
		LEFT JOIN order_production_tracking t ON t.in_progress_order_id = o.id
		ORDER BY FIELD(o.priority, 'urgent', 'high', 'normal', 'low'), o.due_date IS NULL, o.due_date, o.id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []storage.BoardOrder
	for rows.Next() {
		var o storage.BoardOrder
		err := rows.Scan(
			&o.ID,
			&o.Reference,
			&o.CustomerName,
			&o.Status,
			&o.Priority,
			&o.DueDate,
			&o.Progress,
			&o.TotalCost,
			&o.InProgressStageID,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

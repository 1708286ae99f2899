package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier/internal/storage"
)

const reservationQuery = `
	SELECT r.id, r.order_id, r.production_stage_id, r.material_id, m.name,
	       r.quantity_reserved, r.quantity_used, m.cost_per_unit
	FROM material_reservations r
	JOIN materials m ON m.id = r.material_id`

func scanReservations(rows *sql.Rows) ([]storage.MaterialReservation, error) {
	var out []storage.MaterialReservation
	for rows.Next() {
		var r storage.MaterialReservation
		err := rows.Scan(
			&r.ID,
			&r.OrderID,
			&r.StageID,
			&r.MaterialID,
			&r.MaterialName,
			&r.QuantityReserved,
			&r.QuantityUsed,
			&r.CostPerUnit,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OrderReservations lists the materials held for an order across its stages.
func (s *Storage) OrderReservations(ctx context.Context, orderID int64) ([]storage.MaterialReservation, error) {
	const op = "storage.mysql.OrderReservations"

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)`, orderID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: id=%d: %w", op, orderID, storage.ErrOrderNotFound)
	}

	rows, err := s.db.QueryContext(ctx, reservationQuery+` WHERE r.order_id = ? ORDER BY r.production_stage_id, r.material_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reservations, err := scanReservations(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", op, err)
	}
	return reservations, nil
}

func (t *Tx) StageRequirements(ctx context.Context, orderID, stageID int64) ([]storage.MaterialRequirement, error) {
	const op = "storage.mysql.StageRequirements"

	rows, err := t.tx.QueryContext(ctx, `
		SELECT order_id, production_stage_id, material_id, quantity
		FROM material_requirements
		WHERE order_id = ? AND production_stage_id = ?
		ORDER BY material_id`, orderID, stageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var reqs []storage.MaterialRequirement
	for rows.Next() {
		var r storage.MaterialRequirement
		if err := rows.Scan(&r.OrderID, &r.StageID, &r.MaterialID, &r.Quantity); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		reqs = append(reqs, r)
	}

	return reqs, rows.Err()
}

func (t *Tx) StageReservations(ctx context.Context, orderID, stageID int64) ([]storage.MaterialReservation, error) {
	const op = "storage.mysql.StageReservations"

	rows, err := t.tx.QueryContext(ctx, reservationQuery+` WHERE r.order_id = ? AND r.production_stage_id = ? ORDER BY r.material_id`, orderID, stageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reservations, err := scanReservations(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: scan: %w", op, err)
	}
	return reservations, nil
}

func (t *Tx) LockMaterial(ctx context.Context, id int64) (storage.Material, error) {
	const op = "storage.mysql.LockMaterial"

	var m storage.Material
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, name, unit, cost_per_unit, stock_quantity, reserved_quantity
		FROM materials WHERE id = ? FOR UPDATE`, id,
	).Scan(&m.ID, &m.Name, &m.Unit, &m.CostPerUnit, &m.StockQuantity, &m.ReservedQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Material{}, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrMaterialNotFound)
	}
	if err != nil {
		return storage.Material{}, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

func (t *Tx) CreateReservation(ctx context.Context, r storage.MaterialReservation) error {
	const op = "storage.mysql.CreateReservation"

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO material_reservations (order_id, production_stage_id, material_id, quantity_reserved)
		VALUES (?, ?, ?, ?)`,
		r.OrderID, r.StageID, r.MaterialID, r.QuantityReserved,
	)
	if err != nil {
		return fmt.Errorf("%s: order id=%d stage id=%d material id=%d: %w", op, r.OrderID, r.StageID, r.MaterialID, err)
	}

	_, err = t.tx.ExecContext(ctx, `UPDATE materials SET reserved_quantity = reserved_quantity + ? WHERE id = ?`, r.QuantityReserved, r.MaterialID)
	if err != nil {
		return fmt.Errorf("%s: raise reserved quantity of material id=%d: %w", op, r.MaterialID, err)
	}

	return nil
}

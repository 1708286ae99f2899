package production

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"atelier/internal/storage"
)

const (
	moneyPlaces = 3
	hoursPlaces = 2
)

func (s *Service) materialCost(ctx context.Context, tx Tx, orderID, stageID int64) (decimal.Decimal, error) {
	reservations, err := tx.StageReservations(ctx, orderID, stageID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, r := range reservations {
		total = total.Add(r.Consumed().Mul(r.CostPerUnit))
	}
	return total.Round(moneyPlaces), nil
}

// laborRate resolves the hourly rate of a worker on a stage: the
// stage-specific rate, then the worker's own rate, then zero. A worker that no
// longer exists costs nothing.
func (s *Service) laborRate(ctx context.Context, tx Tx, workerID *int64, stageID int64) (decimal.Decimal, error) {
	if workerID == nil {
		return decimal.Zero, nil
	}

	rate, err := tx.WorkerStageRate(ctx, *workerID, stageID)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.Valid {
		return rate.Decimal, nil
	}

	w, err := tx.Worker(ctx, *workerID)
	if errors.Is(err, storage.ErrWorkerNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if w.HourlyRate.Valid {
		return w.HourlyRate.Decimal, nil
	}
	return decimal.Zero, nil
}

func laborCost(rate, hours decimal.Decimal) decimal.Decimal {
	return rate.Mul(hours).Round(moneyPlaces)
}

// stageCost adds the material and labor cost of a finished stage to the
// order's running total and returns the amount added.
func (s *Service) stageCost(ctx context.Context, tx Tx, orderID, stageID int64, workerID *int64, hours decimal.Decimal) (decimal.Decimal, error) {
	const op = "service.production.stageCost"

	material, err := s.materialCost(ctx, tx, orderID, stageID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: material cost: %w", op, err)
	}

	rate, err := s.laborRate(ctx, tx, workerID, stageID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: labor rate: %w", op, err)
	}

	total := material.Add(laborCost(rate, hours))
	if total.IsZero() {
		return total, nil
	}

	if err := tx.AddOrderCost(ctx, orderID, total); err != nil {
		return decimal.Zero, fmt.Errorf("%s: add order cost: %w", op, err)
	}
	return total, nil
}

// GenerateCostReport recomputes an order's cost per ledger row without
// writing anything. AccruedTotal is what stage exits have added so far.
func (s *Service) GenerateCostReport(ctx context.Context, orderID int64) (storage.CostReport, error) {
	const op = "service.production.GenerateCostReport"

	var report storage.CostReport
	err := s.inTx(ctx, op, func(ctx context.Context, tx Tx) error {
		order, err := tx.Order(ctx, orderID)
		if err != nil {
			return err
		}

		rows, err := tx.OrderTracking(ctx, orderID)
		if err != nil {
			return err
		}

		lines := make([]storage.StageCostLine, 0, len(rows))
		for _, row := range rows {
			stage, err := tx.Stage(ctx, row.StageID)
			if err != nil {
				return err
			}

			material, err := s.materialCost(ctx, tx, orderID, row.StageID)
			if err != nil {
				return err
			}
			rate, err := s.laborRate(ctx, tx, row.WorkerID, row.StageID)
			if err != nil {
				return err
			}

			hours := decimal.Zero
			if row.ActualHours.Valid {
				hours = row.ActualHours.Decimal
			}
			labor := laborCost(rate, hours)

			lines = append(lines, storage.StageCostLine{
				TrackingID:   row.ID,
				StageID:      stage.ID,
				StageName:    stage.Name,
				Sequence:     stage.OrderSequence,
				Status:       row.Status,
				WorkerID:     row.WorkerID,
				Hours:        hours,
				HourlyRate:   rate,
				MaterialCost: material,
				LaborCost:    labor,
				Total:        material.Add(labor),
			})
		}

		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Sequence < lines[j].Sequence })

		totals := storage.CostTotals{Material: decimal.Zero, Labor: decimal.Zero, Total: decimal.Zero}
		for _, l := range lines {
			totals.Material = totals.Material.Add(l.MaterialCost)
			totals.Labor = totals.Labor.Add(l.LaborCost)
			totals.Total = totals.Total.Add(l.Total)
		}

		report = storage.CostReport{
			OrderID:      order.ID,
			Reference:    order.Reference,
			Stages:       lines,
			Totals:       totals,
			AccruedTotal: order.TotalCost,
		}
		return nil
	})
	if err != nil {
		return storage.CostReport{}, err
	}
	return report, nil
}

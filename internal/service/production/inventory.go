package production

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"atelier/internal/lib/apperr"
	"atelier/internal/storage"
)

// StockReserver reserves material stock for the requirements recorded against
// an order's stage. Reservations already held for the stage are kept.
type StockReserver struct {
	metrics Metrics
}

func NewStockReserver(m Metrics) *StockReserver {
	if m == nil {
		m = noopMetrics{}
	}
	return &StockReserver{metrics: m}
}

func (r *StockReserver) ReserveForStage(ctx context.Context, tx Tx, orderID, stageID int64) error {
	const op = "service.production.ReserveForStage"

	reqs, err := tx.StageRequirements(ctx, orderID, stageID)
	if err != nil {
		return fmt.Errorf("%s: load requirements: %w", op, err)
	}
	if len(reqs) == 0 {
		return nil
	}

	held, err := tx.StageReservations(ctx, orderID, stageID)
	if err != nil {
		return fmt.Errorf("%s: load reservations: %w", op, err)
	}
	reserved := make(map[int64]bool, len(held))
	for _, h := range held {
		reserved[h.MaterialID] = true
	}

	// Lock in material id order so that concurrent orders never wait on each
	// other in opposite directions.
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].MaterialID < reqs[j].MaterialID })

	var (
		pending   []storage.MaterialReservation
		shortages []storage.Shortage
	)
	for _, req := range reqs {
		if reserved[req.MaterialID] || !req.Quantity.IsPositive() {
			continue
		}

		m, err := tx.LockMaterial(ctx, req.MaterialID)
		if err != nil {
			return fmt.Errorf("%s: lock material %d: %w", op, req.MaterialID, err)
		}

		if avail := m.Available(); avail.LessThan(req.Quantity) {
			shortages = append(shortages, storage.Shortage{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Required:     req.Quantity,
				Available:    decimal.Max(avail, decimal.Zero),
			})
			continue
		}

		pending = append(pending, storage.MaterialReservation{
			OrderID:          orderID,
			StageID:          stageID,
			MaterialID:       m.ID,
			MaterialName:     m.Name,
			QuantityReserved: req.Quantity,
			CostPerUnit:      m.CostPerUnit,
		})
	}

	if len(shortages) > 0 {
		r.metrics.MaterialShortage()
		return apperr.BusinessRule(apperr.CodeMaterialShortage, "insufficient material stock for stage").
			WithDetails(map[string]any{"shortages": shortages})
	}

	for _, p := range pending {
		if err := tx.CreateReservation(ctx, p); err != nil {
			return fmt.Errorf("%s: reserve material %d: %w", op, p.MaterialID, err)
		}
	}

	return nil
}

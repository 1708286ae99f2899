package storage

import "github.com/shopspring/decimal"

type Material struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	CostPerUnit      decimal.Decimal `json:"cost_per_unit"`
	StockQuantity    decimal.Decimal `json:"stock_quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
}

// Available is the stock not yet held by any reservation.
func (m Material) Available() decimal.Decimal {
	return m.StockQuantity.Sub(m.ReservedQuantity)
}

// MaterialRequirement is what one stage of an order consumes; written by order intake.
type MaterialRequirement struct {
	OrderID    int64           `json:"order_id"`
	StageID    int64           `json:"production_stage_id"`
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type MaterialReservation struct {
	ID               int64               `json:"id"`
	OrderID          int64               `json:"order_id"`
	StageID          int64               `json:"production_stage_id"`
	MaterialID       int64               `json:"material_id"`
	MaterialName     string              `json:"material_name"`
	QuantityReserved decimal.Decimal     `json:"quantity_reserved"`
	QuantityUsed     decimal.NullDecimal `json:"quantity_used"`
	CostPerUnit      decimal.Decimal     `json:"cost_per_unit"`
}

// Consumed is the used quantity when recorded, otherwise the reserved one.
func (r MaterialReservation) Consumed() decimal.Decimal {
	if r.QuantityUsed.Valid {
		return r.QuantityUsed.Decimal
	}
	return r.QuantityReserved
}

type Shortage struct {
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

package storage

import "github.com/shopspring/decimal"

type Stage struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	OrderSequence  int             `json:"order_sequence"`
	EstimatedHours decimal.Decimal `json:"estimated_hours"`
	IsActive       bool            `json:"is_active"`
}

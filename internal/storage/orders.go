package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether no further production moves are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type Order struct {
	ID             int64           `json:"id"`
	Reference      string          `json:"reference"`
	CustomerName   string          `json:"customer_name"`
	Status         OrderStatus     `json:"status"`
	Priority       string          `json:"priority"`
	DueDate        *time.Time      `json:"due_date"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Progress       int             `json:"progress"`
	CurrentStageID *int64          `json:"current_stage_id"`
	StartedAt      *time.Time      `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoardOrder is an order as shown on the flow board. InProgressStageID comes
// from the ledger, not from the order's pointer.
type BoardOrder struct {
	ID                int64           `json:"id"`
	Reference         string          `json:"reference"`
	CustomerName      string          `json:"customer_name"`
	Status            OrderStatus     `json:"status"`
	Priority          string          `json:"priority"`
	DueDate           *time.Time      `json:"due_date"`
	Progress          int             `json:"progress"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	InProgressStageID *int64          `json:"in_progress_stage_id"`
}

type BoardBucket struct {
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	StageID *int64       `json:"stage_id,omitempty"`
	Count   int          `json:"count"`
	Orders  []BoardOrder `json:"orders"`
}

type FlowBoard struct {
	Buckets []BoardBucket `json:"buckets"`
}

type StageLoad struct {
	StageID         int64           `json:"stage_id"`
	StageName       string          `json:"stage_name"`
	InProgress      int             `json:"in_progress"`
	Completed       int             `json:"completed"`
	AvgActualHours  decimal.Decimal `json:"avg_actual_hours"`
	AvgQualityScore decimal.Decimal `json:"avg_quality_score"`
}

type ResourceUtilization struct {
	WorkersTotal  int `json:"workers_total"`
	WorkersBusy   int `json:"workers_busy"`
	StationsTotal int `json:"stations_total"`
	StationsInUse int `json:"stations_in_use"`
}

type FlowStatistics struct {
	OrdersByStatus map[OrderStatus]int `json:"orders_by_status"`
	TotalOrders    int                 `json:"total_orders"`
	OverdueOrders  int                 `json:"overdue_orders"`
	Stages         []StageLoad         `json:"stages"`
	Resources      ResourceUtilization `json:"resources"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

type StageCostLine struct {
	TrackingID   int64           `json:"tracking_id"`
	StageID      int64           `json:"stage_id"`
	StageName    string          `json:"stage_name"`
	Sequence     int             `json:"order_sequence"`
	Status       TrackingStatus  `json:"status"`
	WorkerID     *int64          `json:"worker_id"`
	Hours        decimal.Decimal `json:"hours"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	MaterialCost decimal.Decimal `json:"material_cost"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	Total        decimal.Decimal `json:"total"`
}

type CostTotals struct {
	Material decimal.Decimal `json:"material"`
	Labor    decimal.Decimal `json:"labor"`
	Total    decimal.Decimal `json:"total"`
}

type CostReport struct {
	OrderID      int64           `json:"order_id"`
	Reference    string          `json:"reference"`
	Stages       []StageCostLine `json:"stages"`
	Totals       CostTotals      `json:"totals"`
	AccruedTotal decimal.Decimal `json:"accrued_total"`
}

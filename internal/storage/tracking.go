package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

type TrackingStatus string

const (
	TrackingPending    TrackingStatus = "pending"
	TrackingInProgress TrackingStatus = "in_progress"
	TrackingCompleted  TrackingStatus = "completed"
	TrackingPaused     TrackingStatus = "paused"
)

func (s TrackingStatus) Valid() bool {
	switch s {
	case TrackingPending, TrackingInProgress, TrackingCompleted, TrackingPaused:
		return true
	}
	return false
}

// Tracking is one row of the order production ledger, unique per (order, stage).
type Tracking struct {
	ID            int64               `json:"id"`
	OrderID       int64               `json:"order_id"`
	StageID       int64               `json:"production_stage_id"`
	Status        TrackingStatus      `json:"status"`
	WorkerID      *int64              `json:"worker_id"`
	StationID     *int64              `json:"station_id"`
	StartedAt     *time.Time          `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	PausedAt      *time.Time          `json:"paused_at"`
	PausedMinutes int                 `json:"paused_minutes"`
	ActualHours   decimal.NullDecimal `json:"actual_hours"`
	QualityScore  *int                `json:"quality_score"`
	Notes         *string             `json:"notes"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TrackingView is a ledger row joined with its stage, as listed for an order.
type TrackingView struct {
	Tracking
	StageName     string `json:"stage_name"`
	OrderSequence int    `json:"order_sequence"`
}

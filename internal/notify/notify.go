// Package notify delivers production events to interested parties. Delivery is
// best effort: callers log failures and carry on.
package notify

import (
	"context"
	"time"
)

type EventType string

const (
	StageStarted   EventType = "production.stage_started"
	StageCompleted EventType = "production.stage_completed"
	OrderCompleted EventType = "production.order_completed"
)

type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OrderID    int64     `json:"order_id"`
	StageID    int64     `json:"stage_id,omitempty"`
	StageName  string    `json:"stage_name,omitempty"`
	WorkerID   *int64    `json:"worker_id,omitempty"`
	StationID  *int64    `json:"station_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Sink interface {
	Notify(ctx context.Context, event Event) error
}

package storage

import "github.com/shopspring/decimal"

type WorkerStatus string

const (
	WorkerAvailable WorkerStatus = "available"
	WorkerBusy      WorkerStatus = "busy"
)

type StationStatus string

const (
	StationAvailable StationStatus = "available"
	StationInUse     StationStatus = "in_use"
)

type Worker struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Status        WorkerStatus        `json:"status"`
	CurrentTaskID *int64              `json:"current_task_id"`
	HourlyRate    decimal.NullDecimal `json:"hourly_rate"`
}

type Station struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Status         StationStatus `json:"status"`
	CurrentOrderID *int64        `json:"current_order_id"`
}

package storage

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrStageNotFound       = errors.New("production stage not found")
	ErrTrackingNotFound    = errors.New("tracking row not found")
	ErrWorkerNotFound      = errors.New("worker not found")
	ErrStationNotFound     = errors.New("station not found")
	ErrMaterialNotFound    = errors.New("material not found")
	ErrTrackingExists      = errors.New("tracking row already exists")
	ErrStageAlreadyRunning = errors.New("order already has a stage in progress")
)

package notify

import (
	"context"
	"log/slog"
)

// LogSink writes events to the service log. It is the default sink and never
// fails.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With(slog.String("component", "notify"))}
}

func (s *LogSink) Notify(ctx context.Context, e Event) error {
	attrs := []any{
		slog.String("event_id", e.ID),
		slog.String("type", string(e.Type)),
		slog.Int64("order_id", e.OrderID),
	}
	if e.StageID != 0 {
		attrs = append(attrs, slog.Int64("stage_id", e.StageID), slog.String("stage", e.StageName))
	}
	if e.WorkerID != nil {
		attrs = append(attrs, slog.Int64("worker_id", *e.WorkerID))
	}
	if e.StationID != nil {
		attrs = append(attrs, slog.Int64("station_id", *e.StationID))
	}

	s.log.InfoContext(ctx, "production event", attrs...)
	return nil
}

package notify

import (
	"fmt"
	"log/slog"

	"atelier/internal/config"
)

const (
	DriverLog   = "log"
	DriverKafka = "kafka"
)

// New builds the sink named by cfg.Driver. The returned close function
// releases the transport and is safe to call for every driver.
func New(cfg config.Notify, log *slog.Logger) (Sink, func() error, error) {
	switch cfg.Driver {
	case "", DriverLog:
		return NewLogSink(log), func() error { return nil }, nil
	case DriverKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, nil, fmt.Errorf("notify: kafka driver needs at least one broker")
		}
		sink := NewKafkaSink(cfg.Kafka, log)
		return sink, sink.Close, nil
	default:
		return nil, nil, fmt.Errorf("notify: unknown driver %q", cfg.Driver)
	}
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"atelier/internal/config"
)

var ErrUnavailable = errors.New("notification transport unavailable")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events as JSON to one topic, keyed by order id so that
// an order's events stay in order. A circuit breaker stops calling a broker
// that keeps failing.
type KafkaSink struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

func NewKafkaSink(cfg config.Kafka, log *slog.Logger) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		Async:        false,
	}
	return newKafkaSink(w, cfg.BreakerFailures, cfg.BreakerOpenDelay, log)
}

func newKafkaSink(w messageWriter, failures uint32, openDelay time.Duration, log *slog.Logger) *KafkaSink {
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        "kafka-notify",
		MaxRequests: 1,
		Timeout:     openDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &KafkaSink{
		writer:  w,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

func (s *KafkaSink) Notify(ctx context.Context, e Event) error {
	const op = "notify.KafkaSink.Notify"

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: marshal event: %w", op, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.OrderID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(e.ID)},
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: e.OccurredAt,
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.writer.WriteMessages(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, ev OrderEvent) error

// OrderLog appends one human-friendly line per event to <dir>/orders.log.
type OrderLog struct {
	mu   sync.Mutex
	path string
}

func NewOrderLog(dir string) (*OrderLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &OrderLog{path: filepath.Join(dir, "orders.log")}, nil
}

// Handle satisfies Handler.
func (l *OrderLog) Handle(_ context.Context, ev OrderEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev OrderEvent) string {
	at := ev.OccurredAt.UTC().Format(time.RFC3339)
	switch ev.Type {
	case EventOrderPlaced:
		return fmt.Sprintf("[%s] Order placed | order_id=%d | user_id=%d | status=%s | payment=%s | items=%d | total=%s\n",
			at, ev.OrderID, ev.UserID, ev.Status, ev.PaymentMethod, ev.ItemCount, ev.Total)
	case EventOrderStatusChanged:
		return fmt.Sprintf("[%s] Order status changed | order_id=%d | user_id=%d | status=%s\n",
			at, ev.OrderID, ev.UserID, ev.Status)
	default:
		return fmt.Sprintf("[%s] %s | order_id=%d | user_id=%d | status=%s\n",
			at, ev.Type, ev.OrderID, ev.UserID, ev.Status)
	}
}

// decode unmarshals a message body.
func decode(body []byte) (OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return OrderEvent{}, fmt.Errorf("unmarshal: %w", err)
	}
	return ev, nil
}

// ConsumeAMQP declares the durable queue and feeds every delivery to h until
// ctx is cancelled.  Broken connections are re-dialled with exponential
// backoff capped at 30s.  A message that h rejects is nacked without
// requeue to avoid tight redelivery loops.
func ConsumeAMQP(ctx context.Context, url, queue string, h Handler, log zerolog.Logger) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("order-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeAMQP(ctx, conn, queue, h, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("order-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeAMQP(ctx context.Context, conn *amqp.Connection, queue string, h Handler, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("order-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleBody(ctx, d.Body, h); err != nil {
				log.Error().Err(err).Msg("order-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// ConsumeKafka reads the topic with a consumer group and feeds every message
// to h until ctx is cancelled.  Offsets are committed by the reader.
func ConsumeKafka(ctx context.Context, brokers []string, topic, groupID string, h Handler, log zerolog.Logger) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer r.Close()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("order-consumer: error reading message")
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}
		if err := handleBody(ctx, msg.Value, h); err != nil {
			log.Error().Err(err).Str("key", string(msg.Key)).Msg("order-consumer: handle message failed")
		}
	}
}

func handleBody(ctx context.Context, body []byte, h Handler) error {
	ev, err := decode(body)
	if err != nil {
		return err
	}
	return h(ctx, ev)
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

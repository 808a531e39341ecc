package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iliyamo/shop-backend/internal/config"
)

// NewPublisher builds the publisher selected by cfg.Driver.
func NewPublisher(cfg config.EventsConfig, log zerolog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case config.EventsRabbitMQ:
		return &AMQPPublisher{URL: cfg.AMQPURL, Queue: cfg.Queue, Log: log}, nil
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log), nil
	case config.EventsNone, "":
		return NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown EVENTS_DRIVER %q", cfg.Driver)
	}
}

// AMQPPublisher publishes each event as a persistent message on a durable
// queue via the default exchange.  A connection is dialled per publish so a
// broker restart never leaves the API holding a dead channel.
type AMQPPublisher struct {
	URL   string
	Queue string
	Log   zerolog.Logger
}

// Publish sends ev.  Errors are logged and returned so the caller can
// choose to ignore them.
func (p *AMQPPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		p.Log.Error().Err(err).Str("queue", p.Queue).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		MessageId:    ev.Key(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.Log.Error().Err(err).Str("event", ev.Key()).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() error { return nil }

// KafkaPublisher writes events to a topic keyed by "<type>.<order id>".
type KafkaPublisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{}, // same order -> same partition
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
		},
		log: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Key()), Value: body}); err != nil {
		p.log.Error().Err(err).Str("event", ev.Key()).Msg("kafka: publish failed")
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

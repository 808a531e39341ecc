// Command worker consumes order events and appends them to orders.log.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/shop-backend/internal/config"
	"github.com/iliyamo/shop-backend/internal/logging"
	"github.com/iliyamo/shop-backend/internal/queue"
)

func main() {
	_ = godotenv.Load()
	log := logging.New(config.LoadLogConfig())
	cfg := config.LoadEventsConfig()

	orderLog, err := queue.NewOrderLog(cfg.LogDir)
	if err != nil {
		log.Fatal().Err(err).Msg("open order log")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("driver", cfg.Driver).Str("dir", cfg.LogDir).Msg("worker started")
	switch cfg.Driver {
	case config.EventsRabbitMQ:
		err = queue.ConsumeAMQP(ctx, cfg.AMQPURL, cfg.Queue, orderLog.Handle, log)
	case config.EventsKafka:
		err = queue.ConsumeKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, orderLog.Handle, log)
	default:
		log.Fatal().Str("driver", cfg.Driver).Msg("worker needs EVENTS_DRIVER rabbitmq or kafka")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("consume")
	}
	log.Info().Msg("worker stopped")
}

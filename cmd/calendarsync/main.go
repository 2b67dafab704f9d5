package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	bookingrepo "bookable/internal/bookings/repository"
	"bookable/internal/calendar"
	calendarrepo "bookable/internal/calendar/repository"
	"bookable/pkg/config"
	"bookable/pkg/kafka"
	kafka_config "bookable/pkg/kafka/config"
)

const ServiceName = "calendarsync"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.Client.GracefulShutdown(cfg.Log)

	cfg.Log.Info("Starting Calendar sync worker")

	events := calendarrepo.NewMongoEventRepository(cfg)
	bookings := bookingrepo.NewMongoBookingRepository(cfg)
	source := calendar.NewSource(bookings, events, cfg.Client.Redis, cfg)
	ingestor := calendar.NewIngestor(events, source, cfg)

	kafkaCfg := kafka_config.Load()
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.CalendarSyncTopic,
		cfg.CalendarSyncGroupID,
		cfg.EventsDLQTopic,
		ingestor.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Warn("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Calendar sync worker stopped")
}

package main

import (
	"bookable/internal/availability"
	"bookable/internal/bookings/events"
	bookinghandler "bookable/internal/bookings/handler"
	bookingrepo "bookable/internal/bookings/repository"
	bookingservice "bookable/internal/bookings/service"
	bookingvalidator "bookable/internal/bookings/validator"
	"bookable/internal/calendar"
	calendarrepo "bookable/internal/calendar/repository"
	linkrepo "bookable/internal/links/repository"
	linkservice "bookable/internal/links/service"
	linkvalidator "bookable/internal/links/validator"
	"bookable/pkg/app"
	"bookable/pkg/config"
	"bookable/pkg/kafka"
	kafka_config "bookable/pkg/kafka/config"
	"bookable/pkg/sealer"
)

const ServiceName = "booking"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.Client.GracefulShutdown(cfg.Log)

	cfg.Log.Info("Starting Booking service")

	handler := initHandler(cfg)
	serverApp := app.NewApplication(cfg, handler)
	serverApp.Run()
}

func initHandler(cfg *config.Config) *bookinghandler.BookingHandler {
	tokenSealer, err := sealer.New(cfg.TokenSealKey)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize token sealer", "error", err)
	}

	links := linkrepo.NewMongoLinkRepository(cfg)
	linkSvc := linkservice.NewLinkService(links, linkvalidator.NewLinkValidator(cfg.Log), tokenSealer, cfg)

	bookings := bookingrepo.NewMongoBookingRepository(cfg)
	locks := bookingrepo.NewBookingLockRepository(cfg)
	calendarEvents := calendarrepo.NewMongoEventRepository(cfg)

	commitments := calendar.NewSource(bookings, calendarEvents, cfg.Client.Redis, cfg)
	availSvc := availability.NewAvailabilityService(linkSvc, commitments, cfg)

	publisher := events.NewPublisher(nil, cfg)
	if producer := initProducer(cfg); producer != nil {
		publisher = events.NewPublisher(producer, cfg)
	}

	bookingSvc := bookingservice.NewBookingService(
		bookings,
		locks,
		links,
		linkSvc,
		availSvc,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookinghandler.NewBookingHandler(bookingSvc, availSvc, linkSvc, cfg.Log)
}

// initProducer returns nil on failure. Lifecycle events are best effort and
// must never block bookings.
func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.EventsDLQTopic)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, lifecycle events disabled", "error", err)
		return nil
	}
	return producer
}

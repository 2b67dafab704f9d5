package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "bookable"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort = "8080"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotGranularityMin = 30
	DefaultDurationMin        = 30
	DefaultStartOfDayValue    = "09:00"
	DefaultEndOfDayValue      = "17:00"

	DefaultCalendarCacheTTL = 5 * time.Minute
	DefaultLockTTL          = 10 * time.Second

	DefaultBookingEventsTopic  = "bookable.booking-events"
	DefaultCalendarSyncTopic   = "bookable.calendar-events"
	DefaultCalendarSyncGroupID = "bookable-calendar-sync"
	DefaultEventsDLQTopic      = "bookable.events-dlq"

	DefaultPaginationLimit = 100
)

package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvTokenSealKey = "TOKEN_SEAL_KEY"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotGranularityMin  = "SLOT_GRANULARITY_MIN"
	EnvDefaultDurationMin  = "DEFAULT_DURATION_MIN"
	EnvDefaultStartOfDay   = "DEFAULT_START_OF_DAY"
	EnvDefaultEndOfDay     = "DEFAULT_END_OF_DAY"
	EnvCalendarCacheTTL    = "CALENDAR_CACHE_TTL"
	EnvLockTTL             = "BOOKING_LOCK_TTL"
	EnvBookingEventsTopic  = "BOOKING_EVENTS_TOPIC"
	EnvCalendarSyncTopic   = "CALENDAR_SYNC_TOPIC"
	EnvCalendarSyncGroupID = "CALENDAR_SYNC_GROUP_ID"
	EnvEventsDLQTopic      = "EVENTS_DLQ_TOPIC"
)

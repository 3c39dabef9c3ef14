package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Device pairing protocol
const (
	PairingCodeTTL      = 10 * time.Minute
	PairingPollInterval = 5 * time.Second
	PairingMaxAttempts  = 5
	// Expired records are kept this long for debugging before the cleanup
	// job deletes them. Correctness never depends on the sweep.
	PairingRetention = 24 * time.Hour
)

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Default rate limiting
const (
	DefaultRateLimitPerMin  = 60
	PairRequestLimitPerMin  = 10
	PollLimitPerMin         = 30
	ActivateAttemptLimitMin = 5
)

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
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Auth code settings
const (
	CodeLookupLimit  = 50
	CodeLimitWindow  = 10 * time.Minute
	AuthIPLimit      = 30
	ProfileListLimit = 100
)

// Message history
const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
	MaxMessageLength    = 4000
)

// Default rate limiting
const DefaultRateLimitPerMin = 60

// Streaming connections
const (
	StreamSendBuffer   = 64
	StreamWriteTimeout = 10 * time.Second
	StreamPingInterval = 30 * time.Second
	StreamMaxFrameSize = 64 << 10
)

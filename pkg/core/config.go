package core

import (
	"time"
)

// TimeoutConfig configures timeouts for various operations.
type TimeoutConfig struct {
	// ComponentMount bounds Mount() calls.
	ComponentMount time.Duration `koanf:"component_mount"`

	// ComponentEvent bounds HandleEvent() calls.
	ComponentEvent time.Duration `koanf:"component_event"`

	// WebSocketRead is the read timeout for WebSocket connections.
	WebSocketRead time.Duration `koanf:"websocket_read"`

	// WebSocketWrite is the write timeout for WebSocket connections.
	WebSocketWrite time.Duration `koanf:"websocket_write"`

	// SessionCleanup is the idle time after which a live socket is dropped.
	SessionCleanup time.Duration `koanf:"session_cleanup"`

	// GracefulShutdown is the timeout for graceful shutdown.
	GracefulShutdown time.Duration `koanf:"graceful_shutdown"`
}

// DefaultTimeoutConfig returns default timeouts.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ComponentMount:   5 * time.Second,
		ComponentEvent:   3 * time.Second,
		WebSocketRead:    60 * time.Second,
		WebSocketWrite:   10 * time.Second,
		SessionCleanup:   5 * time.Minute,
		GracefulShutdown: 30 * time.Second,
	}
}

// SecurityConfig configures origin checks for the live socket and CORS.
type SecurityConfig struct {
	// AllowedOrigins for WebSocket and CORS. Empty means same-origin only.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// InsecureDevMode disables origin checks (ONLY for development!).
	InsecureDevMode bool `koanf:"insecure_dev_mode"`
}

// LimitsConfig bounds what one client can cost the server. A value below
// zero disables that limit.
type LimitsConfig struct {
	// ConnectionsPerIP caps live sockets from one client address.
	ConnectionsPerIP int `koanf:"connections_per_ip"`

	// EventRate is the sustained number of events per second per socket.
	EventRate float64 `koanf:"event_rate"`

	// EventBurst is how many events a socket may send at once.
	EventBurst int `koanf:"event_burst"`
}

// DefaultLimitsConfig returns default limits.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		ConnectionsPerIP: 32,
		EventRate:        20,
		EventBurst:       40,
	}
}

// Config combines the runtime settings of the live server.
type Config struct {
	Timeouts TimeoutConfig  `koanf:"timeouts"`
	Security SecurityConfig `koanf:"security"`
	Limits   LimitsConfig   `koanf:"limits"`

	Address string `koanf:"address"`
	Debug   bool   `koanf:"debug"`

	MaxMessageSize int64 `koanf:"max_message_size"`
	MaxConnections int   `koanf:"max_connections"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeouts:       DefaultTimeoutConfig(),
		Limits:         DefaultLimitsConfig(),
		Address:        ":3000",
		MaxMessageSize: 64 * 1024,
		MaxConnections: 10000,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}
	if c.MaxMessageSize <= 0 {
		return ErrInvalidMaxMessageSize
	}
	if c.MaxConnections < 0 {
		return ErrInvalidMaxConnections
	}
	if c.Limits.EventRate > 0 && c.Limits.EventBurst < 1 {
		return ErrInvalidEventBurst
	}
	return nil
}

// Configuration errors.
var (
	ErrAddressRequired       = configError("address is required")
	ErrInvalidMaxMessageSize = configError("max_message_size must be positive")
	ErrInvalidMaxConnections = configError("max_connections must not be negative")
	ErrInvalidEventBurst     = configError("limits.event_burst must be at least 1 when event_rate is set")
)

type configError string

func (e configError) Error() string { return string(e) }

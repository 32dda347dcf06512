package server

import (
	"net/http"
	"net/url"
	"time"
)

// Config holds HTTP server settings.
type Config struct {
	// Address is the listen address (default ":8080").
	Address string

	// CheckOrigin validates WebSocket origins (default SameOriginCheck).
	CheckOrigin func(r *http.Request) bool

	// MetricsPath serves MetricsHandler when both are set.
	MetricsPath    string
	MetricsHandler http.Handler

	// ReadLimit caps the size of a navigation stream message.
	ReadLimit int64

	// PingInterval is how often stream clients are pinged.
	PingInterval time.Duration

	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		CheckOrigin:       SameOriginCheck,
		ReadLimit:         4096,
		PingInterval:      30 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.ReadLimit == 0 {
		out.ReadLimit = d.ReadLimit
	}
	if out.PingInterval == 0 {
		out.PingInterval = d.PingInterval
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	return &out
}

// SameOriginCheck accepts WebSocket requests without an Origin header or
// whose Origin host equals the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}

package dispatch

import (
	"github.com/rs/zerolog"

	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

// Option configures the dispatcher
type Option func(*Config)

// Config holds dispatcher configuration
type Config struct {
	Layout      codec.Layout
	Policy      capability.Policy
	MaxLineSize int
	Metrics     *Metrics
	// Transcript, when set, records every request line and reply.
	Transcript *zerolog.Logger
}

// DefaultConfig returns the registry's default layout with the declarative
// policy.
func DefaultConfig() Config {
	return Config{
		Layout:      codec.NewRegistry().Default(),
		Policy:      capability.PolicyDeclarative,
		MaxLineSize: codec.DefaultMaxLineSize,
	}
}

// WithLayout sets the protocol layout
func WithLayout(layout codec.Layout) Option {
	return func(c *Config) {
		c.Layout = layout
	}
}

// WithPolicy sets the capability policy used to answer feature queries
func WithPolicy(policy capability.Policy) Option {
	return func(c *Config) {
		c.Policy = policy
	}
}

// WithMaxLineSize limits the accepted line length
func WithMaxLineSize(n int) Option {
	return func(c *Config) {
		c.MaxLineSize = n
	}
}

// WithMetrics enables metrics collection
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithTranscript records the conversation to a separate logger
func WithTranscript(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Transcript = &log
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/compose-network/spi-annotator/log"
	"github.com/compose-network/spi-annotator/server/api"
	"github.com/compose-network/spi-annotator/x/analyzer/catalog"
	"github.com/compose-network/spi-annotator/x/analyzer/startstop"
	"github.com/compose-network/spi-annotator/x/capability"
	"github.com/compose-network/spi-annotator/x/codec"
)

// EnvPrefix prefixes environment overrides, e.g. ANNOTATOR_LOG_LEVEL.
const EnvPrefix = "ANNOTATOR"

// Config holds the complete application configuration
type Config struct {
	Analyzer AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer"`
	Protocol ProtocolConfig `mapstructure:"protocol" yaml:"protocol"`
	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
	API      api.Config     `mapstructure:"api"      yaml:"api"`
}

// AnalyzerConfig selects the built-in analyzer
type AnalyzerConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	// Label is the bubble text of the startstop analyzer.
	Label string `mapstructure:"label" yaml:"label"`
}

// ProtocolConfig holds line protocol settings. Empty layout and policy fall
// back to what the selected analyzer is written for.
type ProtocolConfig struct {
	Layout           string `mapstructure:"layout"            yaml:"layout"`
	CapabilityPolicy string `mapstructure:"capability_policy" yaml:"capability_policy"`
	MaxLineSize      int    `mapstructure:"max_line_size"     yaml:"max_line_size"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
	// File redirects logs from standard error to a file.
	File string `mapstructure:"file" yaml:"file"`
	// Transcript records every request and reply to a file.
	Transcript string `mapstructure:"transcript" yaml:"transcript"`
	// StatsInterval logs session counters periodically. Zero disables it.
	StatsInterval time.Duration `mapstructure:"stats_interval" yaml:"stats_interval"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled  bool `mapstructure:"enabled"  yaml:"enabled"`
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Load reads configuration from an optional file and the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("analyzer.name", d.Analyzer.Name)
	v.SetDefault("analyzer.label", d.Analyzer.Label)

	v.SetDefault("protocol.layout", d.Protocol.Layout)
	v.SetDefault("protocol.capability_policy", d.Protocol.CapabilityPolicy)
	v.SetDefault("protocol.max_line_size", d.Protocol.MaxLineSize)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.transcript", d.Log.Transcript)
	v.SetDefault("log.stats_interval", d.Log.StatsInterval.String())

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.compress", d.Metrics.Compress)

	v.SetDefault("api.listen_addr", d.API.ListenAddr)
	v.SetDefault("api.read_header_timeout", d.API.ReadHeaderTimeout.String())
	v.SetDefault("api.read_timeout", d.API.ReadTimeout.String())
	v.SetDefault("api.write_timeout", d.API.WriteTimeout.String())
	v.SetDefault("api.idle_timeout", d.API.IdleTimeout.String())
	v.SetDefault("api.max_header_bytes", d.API.MaxHeaderBytes)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAnalyzer(); err != nil {
		return err
	}
	if err := c.validateProtocol(); err != nil {
		return err
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	return c.validateAPI()
}

func (c *Config) validateAnalyzer() error {
	if _, err := catalog.Lookup(c.Analyzer.Name); err != nil {
		return fmt.Errorf("analyzer.name: %w", err)
	}
	return nil
}

func (c *Config) validateProtocol() error {
	if c.Protocol.Layout != "" {
		layouts := codec.NewRegistry()
		if _, ok := layouts.Get(c.Protocol.Layout); !ok {
			return fmt.Errorf("protocol.layout: unknown layout %q (available: %v)", c.Protocol.Layout, layouts.Names())
		}
	}
	if c.Protocol.CapabilityPolicy != "" {
		if _, err := capability.ParsePolicy(c.Protocol.CapabilityPolicy); err != nil {
			return fmt.Errorf("protocol.capability_policy: %w", err)
		}
	}
	if c.Protocol.MaxLineSize <= 0 {
		return fmt.Errorf("protocol.max_line_size must be positive, got %d", c.Protocol.MaxLineSize)
	}
	return nil
}

func (c *Config) validateLog() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.File != "" && c.Log.File == c.Log.Transcript {
		return errors.New("log.file and log.transcript must differ")
	}
	if c.Log.StatsInterval < 0 {
		return errors.New("log.stats_interval must not be negative")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if strings.TrimSpace(c.API.ListenAddr) == "" {
		return errors.New("api.listen_addr is required when metrics are enabled")
	}
	if c.API.ReadHeaderTimeout <= 0 {
		return errors.New("api.read_header_timeout must be positive")
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Name:  catalog.NoopName,
			Label: startstop.DefaultLabel,
		},
		Protocol: ProtocolConfig{
			MaxLineSize: codec.DefaultMaxLineSize,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		API: api.DefaultConfig(),
	}
}


package flowcore

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// ============================================================================
// CONFIG — runtime tunables, loaded the way adred-codev-ws_poc/ws's config.go
// does: an optional .env file followed by environment variables via struct
// tags, env vars always winning. ToolchainConfig is the external INI contract
// of §6 (cc/cflags/ldflags/libs); the core never parses it, it is a plain
// struct any cmd/ entrypoint may fill in from its own build tooling.
// ============================================================================

// RuntimeConfig holds the tunables that shape how a Topology's channels and
// worker pools are sized, and how its logger behaves.
type RuntimeConfig struct {
	ChannelBufferSize  int           `env:"FLOWCORE_CHANNEL_BUFFER" envDefault:"64"`
	PartitionWorkers   int           `env:"FLOWCORE_PARTITION_WORKERS" envDefault:"4"`
	PartitionQueueSize int           `env:"FLOWCORE_PARTITION_QUEUE" envDefault:"256"`
	SynchronizedStart  bool          `env:"FLOWCORE_SYNCHRONIZED_START" envDefault:"false"`
	MetricsInterval    time.Duration `env:"FLOWCORE_METRICS_INTERVAL" envDefault:"15s"`
	LogLevel           string        `env:"FLOWCORE_LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"FLOWCORE_LOG_FORMAT" envDefault:"json"`
}

// LoadRuntimeConfig loads a .env file if present (missing is not an error),
// then parses RuntimeConfig fields from the environment, validating the
// result. Priority: real env vars > .env file > envDefault tags.
func LoadRuntimeConfig(logger *zerolog.Logger) (*RuntimeConfig, error) {
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Info().Msg("no .env file found, using environment variables only")
	}

	cfg := &RuntimeConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse runtime config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("runtime config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects nonsensical tunables before they reach a Topology.
func (c *RuntimeConfig) Validate() error {
	if c.ChannelBufferSize < 1 {
		return fmt.Errorf("FLOWCORE_CHANNEL_BUFFER must be > 0, got %d", c.ChannelBufferSize)
	}
	if c.PartitionWorkers < 1 {
		return fmt.Errorf("FLOWCORE_PARTITION_WORKERS must be > 0, got %d", c.PartitionWorkers)
	}
	if c.PartitionQueueSize < 1 {
		return fmt.Errorf("FLOWCORE_PARTITION_QUEUE must be > 0, got %d", c.PartitionQueueSize)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("FLOWCORE_LOG_LEVEL must be one of debug, info, warn, error (got %s)", c.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "pretty": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("FLOWCORE_LOG_FORMAT must be one of json, pretty (got %s)", c.LogFormat)
	}
	return nil
}

// ZerologLevel maps LogLevel to its zerolog.Level equivalent.
func (c *RuntimeConfig) ZerologLevel() zerolog.Level {
	switch c.LogLevel {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ToolchainConfig is the external build-toolchain contract of §6: an INI
// file naming the C compiler and flags used to compile generated operator
// code. flowcore never parses or interprets this itself — it is a plain
// struct so a cmd/ entrypoint or code generator consuming the contract has
// somewhere to put the values it reads.
type ToolchainConfig struct {
	CC      string `env:"FLOWCORE_TOOLCHAIN_CC"`
	CFlags  string `env:"FLOWCORE_TOOLCHAIN_CFLAGS"`
	LDFlags string `env:"FLOWCORE_TOOLCHAIN_LDFLAGS"`
	Libs    string `env:"FLOWCORE_TOOLCHAIN_LIBS"`
}

// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"github.com/soundprediction/tempograph/pkg/analyzer"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Graph configuration
	Graph GraphConfig `mapstructure:"graph"`

	// Traversal defaults
	Traversal TraversalConfig `mapstructure:"traversal"`

	// Analyzer configuration
	Analyzer analyzer.Config `mapstructure:"analyzer"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// GraphConfig holds graph store configuration
type GraphConfig struct {
	// LayerDays is the layer index bucket width in days.
	LayerDays int `mapstructure:"layer_days"`
}

// TraversalConfig holds default traversal bounds
type TraversalConfig struct {
	TimeWindowDays int `mapstructure:"time_window_days"`
	MaxHops        int `mapstructure:"max_hops"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Graph defaults
	viper.SetDefault("graph.layer_days", 7)

	// Traversal defaults
	viper.SetDefault("traversal.time_window_days", 30)
	viper.SetDefault("traversal.max_hops", 10)

	// Analyzer defaults
	def := analyzer.DefaultConfig()
	viper.SetDefault("analyzer.chunk_size_days", def.ChunkSizeDays)
	viper.SetDefault("analyzer.max_carryover_events", def.MaxCarryoverEvents)
	viper.SetDefault("analyzer.max_carryover_entities", def.MaxCarryoverEntities)
	viper.SetDefault("analyzer.max_carryover_chains", def.MaxCarryoverChains)
	viper.SetDefault("analyzer.importance_threshold", def.ImportanceThreshold)
	viper.SetDefault("analyzer.weights.connectivity", def.Weights.Connectivity)
	viper.SetDefault("analyzer.weights.attention", def.Weights.Attention)
	viper.SetDefault("analyzer.weights.recency", def.Weights.Recency)
	viper.SetDefault("analyzer.workers", def.Workers)

	// Telemetry defaults
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.tempograph/telemetry", home))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if days := os.Getenv("TEMPOGRAPH_LAYER_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Graph.LayerDays = d
		}
	}
	if days := os.Getenv("TEMPOGRAPH_CHUNK_SIZE_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Analyzer.ChunkSizeDays = d
		}
	}
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}

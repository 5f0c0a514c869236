// Package config provides structures and utilities for managing the
// CallScope application configuration.
package config

import (
	storageconfig "github.com/callscope/callscope/pkg/bulk/adapter/storage/config"
)

// EmbeddedConfig holds the content of the configuration file, typically
// passed from main.go when the YAML is compiled into the binary.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// RemoteConfig configures the HTTP invoker that calls the analysis service.
type RemoteConfig struct {
	// Endpoint is the base URL of the analysis API.
	Endpoint string `yaml:"endpoint"`
	// APIKey authenticates requests; masked in logs.
	APIKey string `yaml:"api_key"`
	// TimeoutSeconds bounds each invocation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// OperationTuning overrides the batching parameters of one operation.
type OperationTuning struct {
	// BatchSize is the number of items invoked concurrently per batch.
	BatchSize int `yaml:"batch_size"`
	// DelayMs is the pause between batches in milliseconds.
	DelayMs int `yaml:"delay_ms"`
}

// BulkConfig holds bulk-run tuning.
type BulkConfig struct {
	// Operations maps operation type to its tuning override.
	Operations map[string]OperationTuning `yaml:"operations"`
}

// ExportConfig configures the export pipeline.
type ExportConfig struct {
	// StorageRef names the storage connection exports are written to.
	StorageRef string `yaml:"storage_ref"`
	// OutputBaseDir prefixes Parquet object names.
	OutputBaseDir string `yaml:"output_base_dir"`
	// Compression is the Parquet codec (SNAPPY, GZIP, NONE).
	Compression string `yaml:"compression"`
}

// TracingConfig configures the OpenTelemetry tracer.
type TracingConfig struct {
	// Enabled turns span export on.
	Enabled bool `yaml:"enabled"`
	// Exporter selects the OTLP transport: "grpc" or "http".
	Exporter string `yaml:"exporter"`
	// Endpoint is the OTLP collector address.
	Endpoint string `yaml:"endpoint"`
	// SampleRatio is the trace sampling ratio in [0,1].
	SampleRatio float64 `yaml:"sample_ratio"`
}

// MetricsConfig configures metric recording and tracing.
type MetricsConfig struct {
	// Enabled turns metric recording on.
	Enabled bool `yaml:"enabled"`
	// Backend selects the recorder: "prometheus" (default) or "otlp".
	Backend string `yaml:"backend"`
	// Endpoint is the OTLP collector address for the otlp backend.
	Endpoint string `yaml:"endpoint"`
	// Exporter selects the OTLP transport for the otlp backend: "grpc" or
	// "http".
	Exporter string `yaml:"exporter"`
	// Tracing is the OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// DatabaseConfig configures one named GORM connection.
type DatabaseConfig struct {
	// Driver selects the dialector: "sqlite", "mysql", or "postgres".
	Driver string `yaml:"driver"`
	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn"`
	// Migrate runs the embedded schema migrations on connect.
	Migrate bool `yaml:"migrate"`
}

// CallscopeConfig holds all configuration under the "callscope" top-level key.
type CallscopeConfig struct {
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Remote configures the analysis service client.
	Remote RemoteConfig `yaml:"remote"`
	// Bulk contains bulk-run tuning.
	Bulk BulkConfig `yaml:"bulk"`
	// Export configures the export pipeline.
	Export ExportConfig `yaml:"export"`
	// Metrics configures observability.
	Metrics MetricsConfig `yaml:"metrics"`
	// Storage maps connection names to storage backends.
	Storage map[string]storageconfig.StorageConfig `yaml:"storage"`
	// Database maps connection names to GORM connections.
	Database map[string]DatabaseConfig `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Callscope contains the top-level application configuration.
	Callscope CallscopeConfig `yaml:"callscope"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new Config populated with defaults. YAML and
// environment variables layer on top of these.
func NewConfig() *Config {
	return &Config{
		Callscope: CallscopeConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Remote: RemoteConfig{
				TimeoutSeconds: 30,
			},
			Bulk: BulkConfig{
				Operations: map[string]OperationTuning{},
			},
			Export: ExportConfig{
				StorageRef:    "exports",
				OutputBaseDir: "callscope",
				Compression:   "SNAPPY",
			},
			Metrics: MetricsConfig{
				Backend:  "prometheus",
				Exporter: "grpc",
				Tracing: TracingConfig{
					Exporter:    "grpc",
					SampleRatio: 1.0,
				},
			},
			Storage:  map[string]storageconfig.StorageConfig{},
			Database: map[string]DatabaseConfig{},
		},
	}
}

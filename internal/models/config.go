// Package models - service configuration and operational settings.
// Hierarchical configuration with per-section validation and defaults that
// work out of the box; every section can be overridden from YAML or the
// GATEKEEPER_* environment variables.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Admission     AdmissionConfig     `yaml:"admission" json:"admission"`         // Admission policy
	Storage       StorageConfig       `yaml:"storage" json:"storage"`             // Decision audit persistence
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Prometheus metrics endpoint
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing and service identity
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
	CORS         CORSConfig    `yaml:"cors" json:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" json:"max_age"`
}

// AdmissionConfig holds the admission policy. The four limits are fixed at
// construction; MaintenanceInterval drives the background purge of stale
// per-client entries.
type AdmissionConfig struct {
	PerClientCooldown    time.Duration `yaml:"per_client_cooldown" json:"per_client_cooldown"`
	GlobalMaxTokens      int           `yaml:"global_max_tokens" json:"global_max_tokens"`
	GlobalRefillInterval time.Duration `yaml:"global_refill_interval" json:"global_refill_interval"`
	StaleEntryTTL        time.Duration `yaml:"stale_entry_ttl" json:"stale_entry_ttl"`
	MaintenanceInterval  time.Duration `yaml:"maintenance_interval" json:"maintenance_interval"`
}

type StorageConfig struct {
	Type string `yaml:"type" json:"type"`
	Path string `yaml:"path" json:"path"`

	// Retention bounds the age of audit records; older records are purged
	// in the background. Zero disables the purge.
	Retention time.Duration  `yaml:"retention" json:"retention"`
	Database  DatabaseConfig `yaml:"database" json:"database"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"dsn" json:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" json:"max_idle_conns"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // "stdout" or "otlp"
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
// The admission limits mirror the reference policy: 3 shared tokens refilled
// in full every 60s, 5s per-client cooldown, 60s stale-entry TTL.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"*"},
				MaxAge:         86400,
			},
		},
		Admission: AdmissionConfig{
			PerClientCooldown:    5 * time.Second,
			GlobalMaxTokens:      3,
			GlobalRefillInterval: 60 * time.Second,
			StaleEntryTTL:        60 * time.Second,
			MaintenanceInterval:  60 * time.Second,
		},
		Storage: StorageConfig{
			Type:      StorageTypeMemory,
			Retention: 24 * time.Hour,
			Database: DatabaseConfig{
				MaxOpenConns: 25,
				MaxIdleConns: 5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "gatekeeper",
			Tracing: TracingConfig{
				Enabled:      false,
				Exporter:     "stdout",
				OTLPEndpoint: "localhost:4317",
				SampleRate:   1.0,
			},
		},
	}
}

// Validate checks the complete configuration for correctness.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Admission.Validate(); err != nil {
		return fmt.Errorf("admission config: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}
	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port < 1 || sc.Port > 65535 {
		return fmt.Errorf("invalid port: %d", sc.Port)
	}
	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if sc.TLSEnabled && (sc.TLSCertFile == "" || sc.TLSKeyFile == "") {
		return errors.New("tls_cert_file and tls_key_file are required when TLS is enabled")
	}
	return nil
}

func (ac *AdmissionConfig) Validate() error {
	if ac.PerClientCooldown <= 0 {
		return errors.New("per_client_cooldown must be positive")
	}
	if ac.GlobalMaxTokens < 1 {
		return errors.New("global_max_tokens must be at least 1")
	}
	if ac.GlobalRefillInterval <= 0 {
		return errors.New("global_refill_interval must be positive")
	}
	if ac.StaleEntryTTL <= 0 {
		return errors.New("stale_entry_ttl must be positive")
	}
	if ac.MaintenanceInterval <= 0 {
		return errors.New("maintenance_interval must be positive")
	}
	return nil
}

func (stc *StorageConfig) Validate() error {
	if stc.Retention < 0 {
		return errors.New("retention must not be negative")
	}
	switch stc.Type {
	case StorageTypeMemory:
		return nil
	case StorageTypeSQLite:
		if stc.Path == "" && stc.Database.DSN == "" {
			return errors.New("path or dsn is required for sqlite storage")
		}
		return nil
	case StorageTypePostgres:
		if stc.Database.DSN == "" {
			return errors.New("dsn is required for postgres storage")
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage type: %s", stc.Type)
	}
}

func (lc *LoggingConfig) Validate() error {
	switch lc.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}
	switch lc.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}
	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file_path is required when output is file")
	}
	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}
	if mc.Port < 1 || mc.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", mc.Port)
	}
	if mc.Path == "" {
		return errors.New("metrics path is required when metrics are enabled")
	}
	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if oc.Tracing.Enabled {
		switch oc.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			return fmt.Errorf("unsupported trace exporter: %s", oc.Tracing.Exporter)
		}
		if oc.Tracing.Exporter == "otlp" && oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp_endpoint is required for the otlp exporter")
		}
	}
	return nil
}

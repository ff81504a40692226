// Package config loads service configuration. Precedence, lowest to highest:
// built-in defaults, YAML file, GATEKEEPER_* environment variables. The
// merged result is validated before use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gatekeeper/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*models.Config, error) {
	config := models.NewDefaultConfig()

	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment overrides configuration from environment variables.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("GATEKEEPER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("GATEKEEPER_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("GATEKEEPER_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("GATEKEEPER_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("GATEKEEPER_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("GATEKEEPER_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("GATEKEEPER_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("GATEKEEPER_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Admission policy
	if cooldown := os.Getenv("GATEKEEPER_PER_CLIENT_COOLDOWN"); cooldown != "" {
		if d, err := time.ParseDuration(cooldown); err == nil {
			config.Admission.PerClientCooldown = d
		}
	}

	if tokens := os.Getenv("GATEKEEPER_GLOBAL_MAX_TOKENS"); tokens != "" {
		if n, err := strconv.Atoi(tokens); err == nil {
			config.Admission.GlobalMaxTokens = n
		}
	}

	if interval := os.Getenv("GATEKEEPER_GLOBAL_REFILL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Admission.GlobalRefillInterval = d
		}
	}

	if ttl := os.Getenv("GATEKEEPER_STALE_ENTRY_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Admission.StaleEntryTTL = d
		}
	}

	if interval := os.Getenv("GATEKEEPER_MAINTENANCE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Admission.MaintenanceInterval = d
		}
	}

	// Storage configuration
	if storageType := os.Getenv("GATEKEEPER_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}

	if storagePath := os.Getenv("GATEKEEPER_STORAGE_PATH"); storagePath != "" {
		config.Storage.Path = storagePath
	}

	if retention := os.Getenv("GATEKEEPER_STORAGE_RETENTION"); retention != "" {
		if d, err := time.ParseDuration(retention); err == nil {
			config.Storage.Retention = d
		}
	}

	if dsn := os.Getenv("GATEKEEPER_DATABASE_DSN"); dsn != "" {
		config.Storage.Database.DSN = dsn
	}

	if maxOpen := os.Getenv("GATEKEEPER_DATABASE_MAX_OPEN_CONNS"); maxOpen != "" {
		if conns, err := strconv.Atoi(maxOpen); err == nil {
			config.Storage.Database.MaxOpenConns = conns
		}
	}

	if maxIdle := os.Getenv("GATEKEEPER_DATABASE_MAX_IDLE_CONNS"); maxIdle != "" {
		if conns, err := strconv.Atoi(maxIdle); err == nil {
			config.Storage.Database.MaxIdleConns = conns
		}
	}

	// Logging configuration
	if level := os.Getenv("GATEKEEPER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("GATEKEEPER_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("GATEKEEPER_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("GATEKEEPER_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("GATEKEEPER_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("GATEKEEPER_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("GATEKEEPER_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if name := os.Getenv("GATEKEEPER_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if tracing := os.Getenv("GATEKEEPER_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("GATEKEEPER_TRACE_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("GATEKEEPER_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}

	if rate := os.Getenv("GATEKEEPER_TRACE_SAMPLE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = r
		}
	}
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Admission.PerClientCooldown)
	assert.Equal(t, 3, cfg.Admission.GlobalMaxTokens)
	assert.Equal(t, 60*time.Second, cfg.Admission.GlobalRefillInterval)
	assert.Equal(t, 60*time.Second, cfg.Admission.StaleEntryTTL)
	assert.Equal(t, StorageTypeMemory, cfg.Storage.Type)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Retention)
	assert.Equal(t, "gatekeeper", cfg.Observability.ServiceName)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server config"},
		{"tls without cert", func(c *Config) { c.Server.TLSEnabled = true }, "server config"},
		{"zero cooldown", func(c *Config) { c.Admission.PerClientCooldown = 0 }, "admission config"},
		{"zero tokens", func(c *Config) { c.Admission.GlobalMaxTokens = 0 }, "admission config"},
		{"negative refill", func(c *Config) { c.Admission.GlobalRefillInterval = -time.Second }, "admission config"},
		{"zero ttl", func(c *Config) { c.Admission.StaleEntryTTL = 0 }, "admission config"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "etcd" }, "storage config"},
		{"negative retention", func(c *Config) { c.Storage.Retention = -time.Hour }, "storage config"},
		{"zero retention disables purge", func(c *Config) { c.Storage.Retention = 0 }, ""},
		{"sqlite without path", func(c *Config) { c.Storage.Type = StorageTypeSQLite }, "storage config"},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = StorageTypePostgres }, "storage config"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging config"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging config"},
		{"file output without path", func(c *Config) { c.Logging.Output = "file" }, "logging config"},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = -1 }, "metrics config"},
		{"metrics disabled skips port check", func(c *Config) { c.Metrics.Enabled = false; c.Metrics.Port = -1 }, ""},
		{"empty service name", func(c *Config) { c.Observability.ServiceName = "" }, "observability config"},
		{"bad trace exporter", func(c *Config) {
			c.Observability.Tracing.Enabled = true
			c.Observability.Tracing.Exporter = "jaeger"
		}, "observability config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

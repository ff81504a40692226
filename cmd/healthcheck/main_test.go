package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeURL_Default(t *testing.T) {
	t.Setenv("GATEKEEPER_PORT", "")
	assert.Equal(t, "http://localhost:8080/health", probeURL())
}

func TestProbeURL_PortOverride(t *testing.T) {
	t.Setenv("GATEKEEPER_PORT", "9999")
	assert.Equal(t, "http://localhost:9999/health", probeURL())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "hangart", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sandbox", cfg.MomoTargetEnvironment)
	assert.Equal(t, "EUR", cfg.MomoCurrency)
	assert.Equal(t, "hangart.rw", cfg.MomoCallbackHost)
	assert.Zero(t, cfg.SimWarmup)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MOMO_CALLBACK_HOST", "callbacks.example.rw")
	t.Setenv("MOMO_WEBHOOK_SECRET", "topsecret")
	t.Setenv("SIM_WARMUP", "30s")

	cfg := Load()
	assert.Equal(t, "callbacks.example.rw", cfg.MomoCallbackHost)
	assert.Equal(t, "topsecret", cfg.MomoWebhookSecret)
	assert.Equal(t, 30*time.Second, cfg.SimWarmup)
}

func TestLoadIgnoresInvalidWarmup(t *testing.T) {
	t.Setenv("SIM_WARMUP", "soon")
	assert.Equal(t, time.Duration(0), Load().SimWarmup)
}

// Package config loads process configuration from the environment.
package config

import (
	"os"
	"time"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	// DatabaseDSN selects the postgres store; empty means in-memory.
	DatabaseDSN string

	MomoBaseURL           string
	MomoSubscriptionKey   string
	MomoAPIUser           string
	MomoAPIKey            string
	MomoTargetEnvironment string
	MomoCallbackHost      string
	MomoCurrency          string
	MomoWebhookSecret     string

	// SimWarmup is how long the simulated gateway reports PENDING before a
	// payment succeeds.
	SimWarmup time.Duration
}

func Load() Config {
	return Config{
		ServiceName: getenv("SERVICE_NAME", "hangart"),
		Env:         getenv("ENV", "dev"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		MomoBaseURL:           os.Getenv("MOMO_BASE_URL"),
		MomoSubscriptionKey:   os.Getenv("MOMO_SUBSCRIPTION_KEY"),
		MomoAPIUser:           os.Getenv("MOMO_API_USER"),
		MomoAPIKey:            os.Getenv("MOMO_API_KEY"),
		MomoTargetEnvironment: getenv("MOMO_TARGET_ENVIRONMENT", "sandbox"),
		MomoCallbackHost:      getenv("MOMO_CALLBACK_HOST", "hangart.rw"),
		MomoCurrency:          getenv("MOMO_CURRENCY", "EUR"),
		MomoWebhookSecret:     os.Getenv("MOMO_WEBHOOK_SECRET"),

		SimWarmup: getenvDuration("SIM_WARMUP", 0),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

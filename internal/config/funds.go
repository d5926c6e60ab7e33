package config

import (
	"os"
	"strconv"
	"time"
)

type FundsConfig struct {
	// DeleteOnZero removes a reservation row when an adjustment lands it
	// exactly on zero. Off by default: a zero envelope stays visible in the
	// app until the user deletes it.
	DeleteOnZero       bool
	MaxFundsPerAccount int
	QRRequestTTL       time.Duration
}

func LoadFundsConfig() *FundsConfig {
	return &FundsConfig{
		DeleteOnZero:       getEnvAsBool("FUNDS_DELETE_ON_ZERO", false),
		MaxFundsPerAccount: getEnvAsInt("FUNDS_MAX_PER_ACCOUNT", 50),
		QRRequestTTL:       getEnvAsDuration("QR_REQUEST_TTL", 15*time.Minute),
	}
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

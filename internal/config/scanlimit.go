package config

import (
	"os"
	"strconv"
	"time"
)

// ScanLimitConfig bounds how often a single account may attempt code scans.
// The limit protects the consume path from brute-forcing secrets.
type ScanLimitConfig struct {
	MaxScansPerWindow int
	Window            time.Duration
}

func LoadScanLimitConfig() *ScanLimitConfig {
	return &ScanLimitConfig{
		MaxScansPerWindow: getEnvAsInt("SCAN_MAX_PER_WINDOW", 30),
		Window:            getEnvAsDuration("SCAN_RATE_WINDOW", 1*time.Hour),
	}
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

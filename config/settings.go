package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds process-level configuration read from the environment.
type Settings struct {
	Port             string
	CORSOrigins      []string
	OperationTimeout time.Duration
	BookingRateLimit float64
}

func EnvOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := EnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("warning: invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}

func envFloat(key string, def float64) float64 {
	raw := EnvOrDefault(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		log.Printf("warning: invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return f
}

func parseCorsOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func LoadSettings() Settings {
	return Settings{
		Port:             EnvOrDefault("PORT", "8080"),
		CORSOrigins:      parseCorsOrigins(EnvOrDefault("CORS_ORIGINS", "")),
		OperationTimeout: envDuration("OPERATION_TIMEOUT", 5*time.Second),
		BookingRateLimit: envFloat("BOOKING_RATE_LIMIT", 5),
	}
}

package config

import (
	"os"
	"strconv"
	"time"
)

// MessagingConfig tunes the WhatsApp bridge transport and the outbound
// pacing of the notifier.
type MessagingConfig struct {
	BridgeURL       string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	ConnectRetries  int
	RetryInterval   time.Duration
	BulkBaseDelay   time.Duration
	BulkMaxJitter   time.Duration
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func LoadMessagingConfig() *MessagingConfig {
	return &MessagingConfig{
		BridgeURL:       getEnv("WA_BRIDGE_URL", "http://localhost:3001"),
		RequestTimeout:  getEnvAsDuration("WA_REQUEST_TIMEOUT", 30*time.Second),
		PollInterval:    getEnvAsDuration("WA_POLL_INTERVAL", 2*time.Second),
		ConnectRetries:  getEnvAsInt("WA_CONNECT_RETRIES", 10),
		RetryInterval:   getEnvAsDuration("WA_RETRY_INTERVAL", 30*time.Second),
		BulkBaseDelay:   getEnvAsDuration("NOTIFY_BULK_BASE_DELAY", 2*time.Second),
		BulkMaxJitter:   getEnvAsDuration("NOTIFY_BULK_MAX_JITTER", 3*time.Second),
		RateLimitMax:    getEnvAsInt("NOTIFY_RATE_LIMIT_MAX", 20),
		RateLimitWindow: getEnvAsDuration("NOTIFY_RATE_LIMIT_WINDOW", 1*time.Hour),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
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

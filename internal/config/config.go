package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL string

	OfficeTimezone string

	UseMemoryQueue bool
	WorkerCount    int

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	InboundQueueURL     string

	RedisAddr     string
	RedisPassword string

	GeminiAPIKey  string
	GeminiModelID string

	TranscriptionAPIKey  string
	TranscriptionBaseURL string
	MediaDir             string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	HistoryMaxMessages int
	HistoryMaxAge      time.Duration

	SlotOpeningHour    int
	SlotClosingHour    int
	SlotIntervalMins   int
	SlotClosedWeekdays []time.Weekday

	SlotLockTTL time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		OfficeTimezone: getEnv("OFFICE_TIMEZONE", "America/Sao_Paulo"),

		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		InboundQueueURL:     getEnv("INBOUND_QUEUE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		TranscriptionAPIKey:  getEnv("TRANSCRIPTION_API_KEY", ""),
		TranscriptionBaseURL: getEnv("TRANSCRIPTION_BASE_URL", "https://api.openai.com/v1"),
		MediaDir:             getEnv("MEDIA_DIR", os.TempDir()),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),

		HistoryMaxMessages: getEnvAsInt("HISTORY_MAX_MESSAGES", 10),
		HistoryMaxAge:      getEnvAsDuration("HISTORY_MAX_AGE", 24*time.Hour),

		SlotOpeningHour:    getEnvAsInt("SLOT_OPENING_HOUR", 9),
		SlotClosingHour:    getEnvAsInt("SLOT_CLOSING_HOUR", 18),
		SlotIntervalMins:   getEnvAsInt("SLOT_INTERVAL_MINS", 60),
		SlotClosedWeekdays: getEnvAsWeekdays("SLOT_CLOSED_WEEKDAYS", []time.Weekday{time.Sunday}),

		SlotLockTTL: getEnvAsDuration("SLOT_LOCK_TTL", 10*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// getEnvAsWeekdays parses a comma-separated list of weekday names, e.g.
// "Sunday" or "Saturday,Sunday". Unknown names fall back to the default.
func getEnvAsWeekdays(key string, defaultValue []time.Weekday) []time.Weekday {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var days []time.Weekday
	for _, part := range strings.Split(valueStr, ",") {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return defaultValue
		}
		days = append(days, day)
	}
	return days
}

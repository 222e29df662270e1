package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Business parameters for the booking flow. All overridable via
	// environment so the salon can retune hours without a rebuild.
	BusinessTimezone  string
	BusinessOpenHour  int
	BusinessCloseHour int
	ClosedWeekday     time.Weekday
	SearchHorizonDays int
	SearchStep        time.Duration

	// NLU oracle
	OpenAIAPIKey  string
	OpenAIModel   string
	OracleTimeout time.Duration

	// Calendar backend
	GoogleCalendarID       string
	GoogleCredentialsJSON  string
	CalendarRequestTimeout time.Duration

	// Session persistence
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Optional transcript archive
	DatabaseURL string

	// Transport
	TwilioWebhookSecret string

	// Dispatch
	UseMemoryQueue       bool
	WorkerCount          int
	ConversationQueueURL string
	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	AWSEndpointOverride  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		BusinessTimezone:  getEnv("BUSINESS_TIMEZONE", "Atlantic/Canary"),
		BusinessOpenHour:  getEnvAsInt("BUSINESS_OPEN_HOUR", 9),
		BusinessCloseHour: getEnvAsInt("BUSINESS_CLOSE_HOUR", 19),
		ClosedWeekday:     time.Weekday(getEnvAsInt("CLOSED_WEEKDAY", int(time.Sunday))),
		SearchHorizonDays: getEnvAsInt("SEARCH_HORIZON_DAYS", 14),
		SearchStep:        getEnvAsDuration("SEARCH_STEP", 30*time.Minute),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OracleTimeout: getEnvAsDuration("ORACLE_TIMEOUT", 15*time.Second),

		GoogleCalendarID:       getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleCredentialsJSON:  getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		CalendarRequestTimeout: getEnvAsDuration("CALENDAR_REQUEST_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),

		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		ConversationQueueURL: getEnv("CONVERSATION_QUEUE_URL", ""),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),
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

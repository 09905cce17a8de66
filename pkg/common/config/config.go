package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers        []string
	KafkaGroupID        string
	PatientSyncTopic    string
	ProtocolSyncTopic   string
	MergeEventsTopic    string
	MergeEventsDLQTopic string
	ConsumerMaxRetries  int
	ConsumerRetryDelay  time.Duration

	// Merge
	MergeLockTTL time.Duration

	// Search
	FuzzySearchV2Enabled bool
	SearchResultLimit    int
	FuzzyMatchThreshold  float64

	// Protocols
	DefaultDrugsPath string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 4*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "clinic"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "clinic123"),
		PostgresDB:       getEnv("POSTGRES_DB", "clinic"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:        getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "clinic-sync"),
		PatientSyncTopic:    getEnv("PATIENT_SYNC_TOPIC", "patient-sync"),
		ProtocolSyncTopic:   getEnv("PROTOCOL_SYNC_TOPIC", "protocol-sync"),
		MergeEventsTopic:    getEnv("MERGE_EVENTS_TOPIC", "merge-events"),
		MergeEventsDLQTopic: getEnv("MERGE_EVENTS_DLQ_TOPIC", ""),
		ConsumerMaxRetries:  getIntEnv("CONSUMER_MAX_RETRIES", 5),
		ConsumerRetryDelay:  getDuration("CONSUMER_RETRY_DELAY", 200*time.Millisecond),

		MergeLockTTL: getDuration("MERGE_LOCK_TTL", 2*time.Minute),

		FuzzySearchV2Enabled: getBoolEnv("FUZZY_SEARCH_V2_ENABLED", false),
		SearchResultLimit:    getIntEnv("SEARCH_RESULT_LIMIT", 100),
		FuzzyMatchThreshold:  getFloatEnv("FUZZY_MATCH_THRESHOLD", 0.85),

		DefaultDrugsPath: getEnv("DEFAULT_DRUGS_PATH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

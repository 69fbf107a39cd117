package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

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
	KafkaBrokers     []string
	ImportEventTopic string

	// PHIO data feed
	FeedPackageURL  string
	DownloadTimeout time.Duration

	// Cache
	CacheDir                string
	ProductXMLCacheMode     string
	ProductFundCacheMode    string
	ProductSegmentCacheMode string
	SearchCacheTTL          time.Duration

	// Reference data
	HealthServicesPath string
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "phealth"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "phealth123"),
		PostgresDB:       getEnv("POSTGRES_DB", "phealth"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", nil),
		ImportEventTopic: getEnv("IMPORT_EVENT_TOPIC", "phealth.import"),

		FeedPackageURL: getEnv("FEED_PACKAGE_URL",
			"https://data.gov.au/api/3/action/package_show?id=private-health-insurance"),
		DownloadTimeout: getDuration("DOWNLOAD_TIMEOUT", 10*time.Minute),

		CacheDir:                getEnv("CACHE_DIR", "cache"),
		ProductXMLCacheMode:     getEnv("PRODUCT_XML_CACHE", "none"),
		ProductFundCacheMode:    getEnv("PRODUCT_FUND_CACHE", "none"),
		ProductSegmentCacheMode: getEnv("PRODUCT_SEGMENT_CACHE", "none"),
		SearchCacheTTL:          getDuration("SEARCH_CACHE_TTL", 15*time.Minute),

		HealthServicesPath: getEnv("HEALTH_SERVICES_PATH", ""),
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

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
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

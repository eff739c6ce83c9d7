package cfg

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	MinioBucket      string
	MaxFileSizeBytes int64
	RedisAddr        string
	RedisPassword    string
	RateLimitCount   int
	RateLimitSeconds int
	KafkaBrokers     string
	KafkaTopic       string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment variables")
	}

	cfg := Config{
		HTTPPort:       os.Getenv("HTTP_PORT"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    os.Getenv("MINIO_BUCKET"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:   os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:     os.Getenv("KAFKA_TOPIC"),
	}

	// MINIO_USE_SSL optional
	if os.Getenv("MINIO_USE_SSL") == "true" || os.Getenv("MINIO_USE_SSL") == "1" {
		cfg.MinioUseSSL = true
	}

	// MAX_FILE_SIZE optional, default 5MB
	if maxStr := os.Getenv("MAX_FILE_SIZE"); maxStr != "" {
		if v, err := strconv.ParseInt(maxStr, 10, 64); err == nil {
			cfg.MaxFileSizeBytes = v
		}
	}
	if cfg.MaxFileSizeBytes == 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024 // 5 MB
	}

	// RATE_LIMIT_COUNT / RATE_LIMIT_SECONDS optional, лимитер включается
	// только вместе с REDIS_ADDR
	cfg.RateLimitCount = intEnv("RATE_LIMIT_COUNT", 10)
	cfg.RateLimitSeconds = intEnv("RATE_LIMIT_SECONDS", 60)

	return cfg
}

func intEnv(name string, fallback int) int {
	if str := os.Getenv(name); str != "" {
		if v, err := strconv.Atoi(str); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

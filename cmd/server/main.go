package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Oniqq60/request_intake/internal/cfg"
	"github.com/Oniqq60/request_intake/internal/intake"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	conf := cfg.LoadConfig()
	logger := log.New(os.Stdout, "[intake] ", log.LstdFlags|log.Lmicroseconds)

	db := mustConnectDB(conf)
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("failed to access sql DB: %v", err)
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(&intake.RequestRecord{}); err != nil {
		logger.Fatalf("failed to migrate requests table: %v", err)
	}

	storage, err := intake.NewMinioStorage(
		conf.MinioEndpoint,
		conf.MinioAccessKey,
		conf.MinioSecretKey,
		conf.MinioUseSSL,
		conf.MinioBucket,
	)
	if err != nil {
		logger.Fatalf("failed to init minio: %v", err)
	}

	var redisClient *redis.Client
	if conf.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatalf("failed to connect redis: %v", err)
		}
	}

	var producer intake.EventProducer
	brokers := splitCSV(conf.KafkaBrokers)
	if len(brokers) > 0 && conf.KafkaTopic != "" {
		producer = intake.NewKafkaProducer(brokers, conf.KafkaTopic)
		defer producer.Close()
	}

	repo := intake.NewRepository(db)
	service := intake.NewService(repo, storage, producer, conf.MaxFileSizeBytes)
	handler := intake.NewHandler(service, conf.MaxFileSizeBytes)

	limiter := intake.NewRateLimiter(
		redisClient,
		conf.RateLimitCount,
		time.Duration(conf.RateLimitSeconds)*time.Second,
	)

	// Запас в мегабайт сверх лимита файла — на остальные поля формы и
	// multipart-разделители.
	httpHandler := intake.SecurityHeadersMiddleware(
		intake.CORSMiddleware(
			limiter.Middleware(
				intake.RequestSizeLimitMiddleware(conf.MaxFileSizeBytes + 1<<20)(handler.Routes()),
			),
		),
	)

	httpServer := &http.Server{
		Addr:    ":" + pickPort(conf.HTTPPort, "5000"),
		Handler: httpHandler,
	}

	go func() {
		logger.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown error: %v", err)
	}
	logger.Println("intake service stopped")
}

func mustConnectDB(conf cfg.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		conf.DBHost,
		conf.DBPort,
		conf.DBUser,
		conf.DBPassword,
		conf.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to init sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func pickPort(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

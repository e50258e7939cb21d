package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/atelierworks/storefront/internal/models"
)

type Config struct {
	Port        string
	LogLevel    string
	DatabaseURL string
	JWTSecret   []byte

	KafkaBrokers string

	ESURL      string
	ESUser     string
	ESPassword string

	StripeSecretKey string
	Currency        string
	SuccessURL      string
	CancelURL       string
}

func must(v, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found, using system environment")
	}

	return &Config{
		Port:        getenv("SERVER_PORT", "8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DatabaseURL: must(os.Getenv("DATABASE_URL"), "DATABASE_URL"),
		JWTSecret:   []byte(must(os.Getenv("JWT_SECRET"), "JWT_SECRET")),

		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Currency:        getenv("CURRENCY", "gbp"),
		SuccessURL:      getenv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:       getenv("CHECKOUT_CANCEL_URL", "http://localhost:3000/cart"),
	}
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// InitDB opens the datastore handle, tunes the pool, verifies connectivity
// and runs migrations. The handle is injected into the repo layer; nothing
// else holds a database reference.
func InitDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

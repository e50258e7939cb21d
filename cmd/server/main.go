package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/atelierworks/storefront/internal/config"
	"github.com/atelierworks/storefront/internal/es"
	"github.com/atelierworks/storefront/internal/events"
	"github.com/atelierworks/storefront/internal/httpserver"
	"github.com/atelierworks/storefront/internal/payment"
	"github.com/atelierworks/storefront/internal/repo"
	"github.com/atelierworks/storefront/internal/service"
	"github.com/atelierworks/storefront/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	repository := repo.NewGormRepo(db)

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway, err = payment.NewStripeGateway(payment.StripeConfig{
			SecretKey:  cfg.StripeSecretKey,
			Currency:   cfg.Currency,
			SuccessURL: cfg.SuccessURL,
			CancelURL:  cfg.CancelURL,
		})
		if err != nil {
			log.Fatalf("stripe init error: %v", err)
		}
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout will not create payment sessions")
	}

	catalogSvc := &service.CatalogService{Repo: repository}
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(es.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
		})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		catalogSvc.ES = esClient
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	producer := events.NewProducer(cfg.KafkaBrokers)
	if !producer.Enabled() {
		logger.Warn("KAFKA_BROKERS not set, event publishing disabled")
	}

	identitySvc := &service.IdentityService{Repo: repository, JWTSecret: cfg.JWTSecret}
	cartSvc := &service.CartService{Repo: repository}
	checkoutSvc := &service.CheckoutService{Repo: repository}

	httpserver.Register(e, &httpserver.Deps{
		Identity: identitySvc,
		Auth:     &httpserver.AuthHTTP{Svc: identitySvc},
		Cart:     &httpserver.CartHTTP{Svc: cartSvc, Producer: producer},
		Checkout: &httpserver.CheckoutHTTP{Svc: checkoutSvc, Gateway: gateway, Producer: producer},
		Catalog:  &httpserver.CatalogHTTP{Svc: catalogSvc},
	})

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Error("producer close", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server stopped")
}

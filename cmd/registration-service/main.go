package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-registration/internal/config"
	"ms-registration/internal/confirmation"
	"ms-registration/internal/database/migrations"
	"ms-registration/internal/events"
	eventsapi "ms-registration/internal/events/api"
	eventsdb "ms-registration/internal/events/db"
	"ms-registration/internal/inventory"
	"ms-registration/internal/inventory/redislock"
	genkafka "ms-registration/internal/kafka"
	"ms-registration/internal/logger"
	paymenthandler "ms-registration/internal/payment/handler"
	"ms-registration/internal/payment/storage"
	"ms-registration/internal/pricing/tiers"
	"ms-registration/internal/registration"
	"ms-registration/internal/registration/api"
	regdb "ms-registration/internal/registration/db"
	regkafka "ms-registration/internal/registration/kafka"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	appLogger := logger.NewLogger()
	ctx := context.Background()

	// --- PostgreSQL Setup ---
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatalf("❌ Failed to connect to Postgres: %v", err)
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	// Run migrations
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.Run(); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	log.Println("🔗 Connecting to Redis...")
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	// --- Kafka Setup ---
	var regProducer *regkafka.Producer
	var paymentProducer *genkafka.Producer
	if cfg.Kafka.Enabled {
		topics := []string{
			cfg.Kafka.Topics.RegistrationCreated,
			cfg.Kafka.Topics.RegistrationCancelled,
			cfg.Kafka.Topics.PaymentEvents,
		}
		if err := genkafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			appLogger.Warn("KAFKA", fmt.Sprintf("Failed to ensure topics: %v", err))
		}
		regProducer = regkafka.NewProducer(cfg.Kafka.Brokers,
			cfg.Kafka.Topics.RegistrationCreated, cfg.Kafka.Topics.RegistrationCancelled)
		defer regProducer.Close()
		paymentProducer = genkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentEvents)
		defer paymentProducer.Close()
	}

	// --- Stripe Setup ---
	registration.InitStripe()

	// --- Initialize Dependencies ---
	ledger := inventory.NewLedger(bunDB, appLogger)
	dbLayer := &regdb.DB{Bun: bunDB, Tables: ledger}
	redisLock := redislock.NewRedis(redisClient)
	tierService := tiers.NewService(bunDB, appLogger)

	log.Println("📦 Initializing Registration Service...")
	var publisher registration.KafkaPublisher
	if regProducer != nil {
		publisher = regProducer
	}
	service := registration.NewRegistrationService(dbLayer, redisLock, publisher, tierService, ledger, appLogger)

	qrSecret := os.Getenv("QR_SECRET")
	if qrSecret == "" {
		qrSecret = "festival-registration-secret"
	}
	qrGen := confirmation.NewQRGenerator(qrSecret)

	regHandler := api.NewHandler(service, qrGen)

	eventService := events.NewEventService(&eventsdb.DB{Bun: bunDB}, appLogger)
	eventHandler := eventsapi.NewHandler(eventService, tierService)

	paymentStore, err := storage.NewPostgreSQLStoreWithDB(sqldb, appLogger)
	if err != nil {
		log.Fatalf("❌ Failed to initialize payment storage: %v", err)
	}
	webhookHandler := paymenthandler.NewStripeWebhookHandler(
		paymentStore, paymentProducer, dbLayer, cfg.Stripe.WebhookSecret, appLogger)

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/registrations", regHandler.CreateRegistration)
		r.Post("/registrations/quote", regHandler.Quote)
		r.Get("/registrations/{registrationId}", regHandler.GetRegistration)
		r.Delete("/registrations/{registrationId}", regHandler.DeleteRegistration)
		r.Post("/registrations/{registrationId}/payment-intent", regHandler.CreatePaymentIntent)
		r.Get("/registrations/{registrationId}/badge", regHandler.GetBadge)
		r.Get("/availability/{kind}/{resourceId}", regHandler.GetAvailability)

		r.Post("/events", eventHandler.CreateEvent)
		r.Get("/events", eventHandler.ListEvents)
		r.Get("/events/{eventId}", eventHandler.GetEvent)
		r.Put("/events/{eventId}", eventHandler.UpdateEvent)
		r.Post("/events/{eventId}/current", eventHandler.SetCurrent)
		r.Post("/events/{eventId}/workshops", eventHandler.CreateWorkshop)
		r.Get("/events/{eventId}/workshops", eventHandler.ListWorkshops)
		r.Post("/events/{eventId}/milongas", eventHandler.CreateMilonga)
		r.Get("/events/{eventId}/milongas", eventHandler.ListMilongas)
		r.Post("/events/{eventId}/tables", eventHandler.CreateTable)
		r.Get("/events/{eventId}/tables", eventHandler.ListTables)
		r.Post("/events/{eventId}/addons", eventHandler.CreateAddon)
		r.Get("/events/{eventId}/addons", eventHandler.ListAddons)
		r.Post("/events/{eventId}/pricing-tiers", eventHandler.CreatePricingTier)
		r.Get("/events/{eventId}/pricing-tiers", eventHandler.ListPricingTiers)
		r.Get("/events/{eventId}/pricing-tiers/active", eventHandler.GetActiveTier)
		r.Put("/events/{eventId}/package-config", eventHandler.SavePackageConfig)
		r.Post("/events/{eventId}/accommodation-rates", eventHandler.CreateAccommodationRate)

		r.Post("/payments/webhook", webhookHandler.HandleWebhook)
		r.Get("/payments", webhookHandler.ListPayments)
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("🚀 Registration Service running on %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("📦 Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}

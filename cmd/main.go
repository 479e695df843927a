/**
 * @description
 * This is the main entry point for the ramp-service. It is responsible for
 * initializing all components of the service, including configuration, database connection,
 * the idempotency key store, message brokers, repositories, the core application service,
 * and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client backing the idempotency key store.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 * - pkg/wallet: Transfer address derivation.
 */

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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/duniapay/ramp-service/internal/api"
	"github.com/duniapay/ramp-service/internal/app"
	"github.com/duniapay/ramp-service/internal/config"
	"github.com/duniapay/ramp-service/internal/store"
	rmrabbit "github.com/duniapay/ramp-service/pkg/rabbitmq"
	"github.com/duniapay/ramp-service/pkg/wallet"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.SessionJWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"session secret must be configured\" env=SESSION_JWT_SECRET")
	}
	if strings.TrimSpace(cfg.SenderPrivateKey) == "" || strings.TrimSpace(cfg.ReceiverPrivateKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"wallet key material must be configured\" env=SENDER_PRIVATE_KEY,RECEIVER_PRIVATE_KEY")
	}

	log.Printf("level=info component=bootstrap msg=\"starting ramp-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Configure connection pool for high-traffic scenarios
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Connect Redis for the idempotency key store. The key store treats cache
	// errors as "key not available", so a missing Redis is fatal here rather
	// than silently degrading every initiation to the replay path.
	redisOptions, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"redis url parse failed\" err=%v", err)
	}
	redisClient := redis.NewClient(redisOptions)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"redis ping failed\" err=%v", pingErr)
	}
	defer redisClient.Close()
	log.Println("level=info component=bootstrap msg=\"redis connected\"")

	// Initialize the RabbitMQ producer to publish transfer lifecycle events.
	// This service only publishes, so no consumer is wired.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	keyStore := app.NewRedisKeyStore(redisClient, cfg.RedisIdempotencyPrefix)
	deriver := wallet.NewKeccakDeriver()

	// Initialize the core application service with its dependencies.
	rampService := app.NewService(
		repository,
		keyStore,
		deriver,
		producer,
		cfg.SenderPrivateKey,
		cfg.ReceiverPrivateKey,
		app.ExpiredQuotePolicy(cfg.OnExpiredQuote),
		app.MissingFeePolicy(cfg.MissingFeeEntry),
	)
	rampService.SetEventExchange(cfg.TransferEventExchange)

	// Consume KYC review decisions published by the compliance tooling. The
	// ramp stays useful without them, so a missing broker only logs a warning.
	kycConsumer := rampService.KycReviewConsumer()
	rabbitConsumer, err := rmrabbit.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq consumer unavailable; kyc review updates disabled\" err=%v", err)
	} else {
		defer rabbitConsumer.Close()
		reviewBindings := map[string]func([]byte) bool{
			"kyc.review.approved": kycConsumer.HandleMessage,
			"kyc.review.denied":   kycConsumer.HandleMessage,
			"kyc.review.expired":  kycConsumer.HandleMessage,
		}
		if err := rabbitConsumer.ConsumeWithBindings(cfg.TransferEventExchange, cfg.KycReviewQueue, reviewBindings); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"kyc review consumer start failed\" err=%v", err)
		}
		log.Println("level=info component=bootstrap msg=\"kyc review consumer started\"")
	}

	// Initialize the API handlers and router.
	rampHandlers := api.NewRampHandlers(rampService)
	router := api.RampRoutes(
		rampHandlers,
		cfg.SessionJWTSecret,
		api.ClientAuthStrategy(cfg.ClientAuthStrategy),
		cfg.ClientAPIKey,
	)

	// Start the HTTP server, binding to all interfaces.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}

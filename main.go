package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-rsvp/internal/auth"
	"ms-rsvp/internal/chat"
	"ms-rsvp/internal/config"
	"ms-rsvp/internal/events"
	eventdb "ms-rsvp/internal/events/db"
	"ms-rsvp/internal/events/event_api"
	"ms-rsvp/internal/kafka"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/reconcile"
	"ms-rsvp/internal/rsvp"
	rediswrap "ms-rsvp/internal/rsvp/redis"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting RSVP engine initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Bot.UserID == "" {
		log.Fatal("CONFIG", "BOT_USER_ID not set")
	}

	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if err := eventdb.Migrate(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}

	store := &eventdb.DB{Bun: bunDB}
	eventLock := rediswrap.NewRedis(redisClient)

	httpClient := &http.Client{
		Timeout: cfg.Chat.Timeout,
	}
	chatClient := chat.NewGatewayClient(cfg.Chat.GatewayURL, cfg.Chat.Token, httpClient, log)

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		requiredTopics := []string{
			cfg.Kafka.Topics.ReactionSignals,
			cfg.Kafka.Topics.DeleteSignals,
			cfg.Kafka.Topics.EventCreated,
			cfg.Kafka.Topics.EventDeleted,
			cfg.Kafka.Topics.RSVPUpdated,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}

		producer = kafka.NewProducer(cfg.Kafka.Brokers, kafka.Topics{
			EventCreated: cfg.Kafka.Topics.EventCreated,
			EventDeleted: cfg.Kafka.Topics.EventDeleted,
			RSVPUpdated:  cfg.Kafka.Topics.RSVPUpdated,
		})
		defer producer.Close()
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	eventService := events.NewEventService(store, chatClient, publisherOrNil(producer), log, cfg.Bot.AttendEmoji, cfg.Bot.DeclineEmoji)
	rsvpService := rsvp.NewRSVPService(store, eventLock, eventService, rsvpPublisherOrNil(producer), log, cfg.Bot.UserID)
	reconciler := reconcile.NewReconciler(store, chatClient, eventLock, eventService, log, cfg.Bot.UserID, cfg.Bot.AttendEmoji, cfg.Bot.SignalTimeout)

	// Heal stored participant sets before accepting any live signal.
	log.Info("APP", "Running startup reconciliation")
	if err := reconciler.ReconcileAll(ctx); err != nil {
		log.Fatal("RECONCILE", fmt.Sprintf("Startup reconciliation failed: %v", err))
	}

	consumerCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()

	if cfg.Kafka.Enabled {
		reactionConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ReactionSignals, cfg.Kafka.GroupID)
		defer reactionConsumer.Close()
		go reactionConsumer.StartReactionSignals(consumerCtx, func(signal models.ReactionSignal) {
			sigCtx, cancel := context.WithTimeout(ctx, cfg.Bot.SignalTimeout)
			defer cancel()
			if signal.Emoji != "" && signal.Emoji != cfg.Bot.AttendEmoji {
				return
			}
			if err := rsvpService.HandleReaction(sigCtx, signal); err != nil {
				log.Error("RSVP", fmt.Sprintf("Reaction signal for message %s failed: %v", signal.MessageID, err))
			}
		})

		deleteConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.DeleteSignals, cfg.Kafka.GroupID)
		defer deleteConsumer.Close()
		go deleteConsumer.StartDeleteSignals(consumerCtx, func(signal models.DeleteSignal) {
			sigCtx, cancel := context.WithTimeout(ctx, cfg.Bot.SignalTimeout)
			defer cancel()
			if err := eventService.Delete(sigCtx, signal.MessageID, signal.UserID, signal.IsPrivileged); err != nil {
				log.Error("EVENT", fmt.Sprintf("Delete signal for message %s failed: %v", signal.MessageID, err))
			}
		})
	}

	handler := &event_api.Handler{
		Lifecycle:  eventService,
		RSVP:       rsvpService,
		Reconciler: reconciler,
		Configs:    store,
		Logger:     log,
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		handler.RegisterRoutes(r)
	})
	log.Info("ROUTER", "Event routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("RSVP engine running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopConsumers()

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "RSVP engine shutdown complete")
	}
}

func publisherOrNil(p *kafka.Producer) events.KafkaPublisher {
	if p == nil {
		return nil
	}
	return p
}

func rsvpPublisherOrNil(p *kafka.Producer) rsvp.KafkaPublisher {
	if p == nil {
		return nil
	}
	return p
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maapaap/api/internal/application/cleanup"
	"github.com/maapaap/api/internal/config"
	"github.com/maapaap/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/maapaap/api/internal/infrastructure/jwt"
	redisinfra "github.com/maapaap/api/internal/infrastructure/redis"
	"github.com/maapaap/api/internal/infrastructure/smtp"
	"github.com/maapaap/api/internal/infrastructure/sns"
	transporthttp "github.com/maapaap/api/internal/transport/http"
	"github.com/maapaap/api/internal/transport/http/handler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	// Redis is the advisory OTP shadow cache. An unreachable cache is a
	// warning, not a startup failure: every lookup falls back to the
	// durable store.
	rdb, err := redisinfra.NewClient(context.Background(), cfg)
	if err != nil {
		log.Printf("WARN: redis not reachable, OTP cache degraded: %v", err)
	}
	otpCache := redisinfra.NewOTPCache(rdb)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	otpRepo := dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs)
	sessionRepo := dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)

	deps := &transporthttp.Deps{
		Users:       dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoTables.UserIdentifiers),
		Sessions:    sessionRepo,
		OTPs:        otpRepo,
		OTPCache:    otpCache,
		Mailer:      mailer,
		SMSSender:   smsSender,
		JWTProvider: jwtProvider,
		Pinger: handler.PingerFunc(func(ctx context.Context) error {
			return dynamo.Ping(ctx, dynamoClient)
		}),
	}

	router := transporthttp.NewRouter(cfg, deps)

	// Recurring sweep for expired OTP and session rows. Native table TTL is
	// the backstop; the sweep keeps scans cheap between TTL passes.
	sweeper := cleanup.NewSweeper(otpRepo, sessionRepo)
	if err := sweeper.Start(cfg.CleanupSchedule); err != nil {
		log.Fatalf("cleanup schedule %q: %v", cfg.CleanupSchedule, err)
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

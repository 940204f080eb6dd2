package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/user-management-api/internal/auth"
	"github.com/vasiliy-maslov/user-management-api/internal/config"
	"github.com/vasiliy-maslov/user-management-api/internal/db"
	userHttp "github.com/vasiliy-maslov/user-management-api/internal/handler/http"
	"github.com/vasiliy-maslov/user-management-api/internal/redis"
	"github.com/vasiliy-maslov/user-management-api/internal/user"
)

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "user-service").Logger()
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)

	log.Info().Msg("User service starting...")

	ctx := context.Background()

	if cfg.Postgres.Migrate {
		if err := db.Migrate(cfg.Postgres); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	dbConn, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	var redisClient *goredis.Client
	var tokenStore auth.TokenStore
	switch cfg.Auth.TokenStore {
	case config.TokenStoreRedis:
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisClient.Close()
		tokenStore = auth.NewRedisTokenStore(redisClient)
	default:
		tokenStore = auth.NewPostgresTokenStore(dbConn.Pool)
	}
	log.Info().Str("token_store", cfg.Auth.TokenStore).Msg("Token store selected")

	codec, err := auth.NewJWTCodec(cfg.Auth.TokenSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build token codec")
	}

	hasher := user.NewBcryptHasher(cfg.Auth.BcryptCost)
	userRepository := user.NewRepository(dbConn.Pool)

	if cfg.App.SeedDemo {
		created, err := user.SeedDemoUsers(ctx, userRepository, hasher)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed demo users")
		}
		log.Info().Int("created", created).Msg("Demo users seeded")
	}

	router := userHttp.NewRouter(userHttp.RouterDeps{
		Users:  user.NewService(userRepository, hasher),
		Auth:   auth.NewService(userRepository, tokenStore, codec, hasher, cfg.Auth.TokenTTL),
		Health: dbConn,
		Debug:  cfg.App.Debug,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("User service stopped gracefully")
}

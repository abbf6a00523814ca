package main

import (
	"chat-hub/auth"
	"chat-hub/gateway"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"chat-hub/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and serves until SIGINT/SIGTERM.
// Deferred closes run before main decides the exit code.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Stores (badger + bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = blugeWriter.Close()
	}()

	users, err := repositories.NewUserRepository(db)
	if err != nil {
		return err
	}
	defer users.Close()
	conversations, err := repositories.NewConversationRepository(db, log)
	if err != nil {
		return err
	}
	defer conversations.Close()
	messages, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return err
	}
	defer messages.Close()
	index := repositories.NewMessageIndex(blugeWriter, log)

	attachments, err := storage.NewDiskStorage(config.UploadDir, log)
	if err != nil {
		return fmt.Errorf("upload directory: %w", err)
	}

	// 3. Fan-out
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, sup, registry,
		runtime.NewLocalBus(log, config.BusBufferSize), config.SinkTimeout)
	if config.BusKind == "redis" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer client.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", config.RedisAddr, err)
		}
		orchestrator.WithRedis(client, config.PublishTimeout)
	}

	// 4. Services
	messaging := services.NewMessagingService(conversations, messages, index, users, attachments,
		orchestrator.Publisher(), services.MessagingConfig{
			AutoJoin:         config.AutoJoin,
			MaxContentLength: config.MaxContentLength,
			MaxUploadSize:    config.MaxUploadSize,
			DefaultPageSize:  config.DefaultPageSize,
			MaxPageSize:      config.MaxPageSize,
		}, log)
	moderator, err := buildModerator(config, log)
	if err != nil {
		return err
	}
	if moderator != nil {
		messaging.WithModerator(moderator)
	}
	groups := services.NewGroupService(conversations, users, log)
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	accounts := services.NewAuthService(users, issuer)

	// 5. Transport
	socket := gateway.NewSocketHandler(messaging, orchestrator, users, gateway.SocketConfig{
		BufferSize:      config.ConnectionBufferSize,
		InflightTimeout: config.InflightTimeout,
	}, log)
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = config.MaxUploadSize
	gateway.NewAPI(accounts, messaging, groups, users, issuer, socket, config.MaxUploadSize, log).
		RegisterRoutes(router)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go orchestrator.Start(ctx)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "bus", config.BusKind, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	log.Info("Program stopped cleanly")
	return nil
}

// buildModerator returns nil when no censored word is configured.
func buildModerator(config Config, log *slog.Logger) (*moderation.Moderator, error) {
	loader := moderation.NewCensoredLoader(nil)
	dir := "."
	if config.CensoredDir != "" {
		loader = moderation.NewCensoredLoader(os.DirFS(config.CensoredDir))
	}
	data, err := loader.LoadAll(dir, config.InlineCensoredWords()...)
	if err != nil {
		return nil, fmt.Errorf("censored words: %w", err)
	}
	if len(data.Words) == 0 {
		log.Info("Moderation disabled, no censored word configured")
		return nil, nil
	}
	char, err := config.CharacterRune()
	if err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "words", len(data.Words), "languages", data.Languages)
	return moderation.NewModerator(data.Words, char, log)
}

package main

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/dispatch"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/presence"
	"chat-relay/repositories"
	"chat-relay/server"
	"chat-relay/services"
	"chat-relay/workers"
	"chat-relay/ws"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
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

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Returning the error instead of exiting keeps
// every defer (database close, socket teardown) on the path out.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Presence registry
	registry, err := buildRegistry(ctx, config, log)
	if err != nil {
		return err
	}

	// 5. Realtime core: local table -> dispatcher -> transition notifier
	hub := ws.NewHub(log)
	dispatcher := dispatch.NewDispatcher(registry, hub, log, config.PushTimeout)
	notifier := presence.NewNotifier(registry, dispatcher, log)

	// 6. Auth
	tokens := auth.NewTokens(config.JWTSecret, config.AuthTokenDuration)
	authenticator := auth.NewAuthenticator(tokens, log)

	// 7. Repositories & moderation
	userRepository := repositories.NewUserRepository(db)
	conversationRepository := repositories.NewConversationRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)

	moderator, err := buildModerator(config, log)
	if err != nil {
		return err
	}

	// 8. Services
	authService := services.NewAuthService(userRepository, tokens)
	connectionService := services.NewConnectionService(authenticator, registry, notifier, log)
	conversationService := services.NewConversationService(conversationRepository, dispatcher, log)
	messageService := services.NewMessageService(messageRepository, conversationRepository, dispatcher, moderator, log)

	// 9. Background workers
	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewReporter(log, registry, hub, config.ReportInterval),
		workers.NewStorageGC(log, db, config.StorageGCInterval),
	)
	go sup.Run(ctx)

	// 10. HTTP surface
	handlers := server.NewHandlers(authService, conversationService, messageService, connectionService, authenticator, log)
	wsHandler := server.NewWSHandler(connectionService, hub, config.ConnectionBufferSize, log)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := server.NewHTTPServer(address, server.Routes(handlers, wsHandler))

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(httpServer, log); err != nil {
			errChan <- err
		}
	}()

	// 11. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 12. Final Cleanup
	server.Shutdown(httpServer, log)
	hub.CloseAll()
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// buildRegistry selects the presence backing store. A Redis that is down at
// boot is not fatal: the registry degrades until the store comes back.
func buildRegistry(ctx context.Context, config internal.Config, log *slog.Logger) (contract.IRegistry, error) {
	switch config.PresenceStore {
	case "memory":
		log.Info("Using in-memory presence registry")
		return presence.NewMemoryRegistry(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable at boot, presence degraded until it recovers", "addr", config.RedisAddr, "error", err)
		}
		return presence.NewRedisRegistry(client, log), nil
	default:
		return nil, fmt.Errorf("unknown presence store %q", config.PresenceStore)
	}
}

// buildModerator returns nil when no word list is configured, which disables
// censoring entirely.
func buildModerator(config internal.Config, log *slog.Logger) (*moderation.Moderator, error) {
	words := config.CensoredWordList()
	if len(words) == 0 {
		return nil, nil
	}
	char, err := internal.CharacterRune(config.CensoredChar)
	if err != nil {
		return nil, err
	}
	log.Info("Moderation enabled", "words", len(words))
	return moderation.NewModerator(words, char)
}

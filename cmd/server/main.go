package main

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-hub/auth"
	"chat-hub/gateway"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/repositories"
	"chat-hub/server"
	"chat-hub/services"
	"chat-hub/storage"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

//go:embed censored/*
var censoredFolder embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and the relay.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	auth.SetSigningKey([]byte(config.SessionSigningKey))

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Full-text index (Bluge)
	index, err := repositories.OpenMessageIndex(config.IndexFilepath)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 4. Repositories & Storage
	users := repositories.NewUserRepository(db)
	conversations := repositories.NewConversationRepository(db)
	requests := repositories.NewRequestRepository(db)
	messages := repositories.NewMessageRepository(db, index, log)

	blobs, err := storage.NewBlobStore(config.UploadsDir, config.PublicURL, log)
	if err != nil {
		return fmt.Errorf("blob store setup failed: %w", err)
	}

	// 5. Moderation
	loader := moderation.NewDictionaryLoader(censoredFolder)
	dictionary, err := loader.LoadAll("censored")
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d unique censored words loaded [%s]",
		len(dictionary.Words), strings.Join(dictionary.Languages, ", ")))

	moderator, err := moderation.NewModerator(dictionary.Words, config.ModerationCharReplacement, log)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	// 6. Realtime gateway
	resolver := services.NewSessionResolver(users)
	registry := gateway.NewRegistry()
	presence := gateway.NewPresence()
	dispatcher := gateway.NewDispatcher(registry, log)
	relay := gateway.NewRelay(dispatcher, messages, moderator, log)
	gw := gateway.New(log, resolver, registry, presence, dispatcher, relay)

	// 7. Services & Handlers
	monitor, err := observability.NewMonitor()
	if err != nil {
		log.Warn("Process monitoring unavailable", "err", err)
	}

	authService := services.NewAuthService(users)
	chatService := services.NewChatService(conversations, messages, users, blobs, index, dispatcher, relay)
	userService := services.NewUserService(users, requests, conversations, chatService, dispatcher)
	adminService := services.NewAdminService(config.AdminSecretKey, users, conversations, messages, monitor)

	router := server.New(
		gw,
		resolver,
		server.NewUserHandlers(authService, userService, blobs),
		server.NewChatHandlers(chatService),
		server.NewAdminHandlers(adminService),
		blobs,
		config.AdminSecretKey,
	)

	// 8. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 9. HTTP Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv := &http.Server{
		Addr:    address,
		Handler: router,
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 10. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 11. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "err", err)
	}
	relay.Close()
	log.Info("Program stopped cleanly")

	return nil
}

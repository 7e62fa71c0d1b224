package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"remarks/auth"
	"remarks/credentials"
	"remarks/moderation"
	"remarks/observability"
	"remarks/refresh"
	"remarks/repositories"
	"remarks/server"
	"remarks/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Credential configuration, loaded once and read-only thereafter
	creds, err := credentials.Load(config.CredentialsPath)
	if err != nil {
		return fmt.Errorf("credential config: %w", err)
	}
	issuer, err := auth.NewTokenIssuer(creds.Cookie.Key, creds.Cookie.Expiry())
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	// 3. Message store (SQLite). The feed must be creatable up front:
	// failing here is fatal, failing later only fails the operation.
	messages, err := repositories.NewMessageRepository(config.DatabasePath, config.SizeLimitMb, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing message store...")
		_ = messages.Close()
	}()

	// 4. Optional moderation
	var moderator *moderation.Moderator
	if config.CensoredWordsPath != "" {
		words, err := moderation.LoadWords(config.CensoredWordsPath)
		if err != nil {
			return fmt.Errorf("censored words: %w", err)
		}
		mask := []rune(config.ModerationMask)
		if len(mask) != 1 {
			return fmt.Errorf("MODERATION_MASK must be a single character, got %q", config.ModerationMask)
		}
		if moderator, err = moderation.NewModerator(words, mask[0]); err != nil {
			return fmt.Errorf("moderator: %w", err)
		}
		log.Info("Moderation enabled", "words", len(words))
	}

	// 5. Services & HTTP surface
	monitor := observability.NewMonitor()
	srv := server.New(
		services.NewAuthService(creds, issuer, log),
		services.NewBoardService(messages, moderator, log),
		refresh.NewController(config.DebounceWindow),
		monitor,
		server.Config{Cookie: creds.Cookie, PollInterval: config.PollInterval},
		log,
	)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting board server", "address", address, "at", time.Now().UTC())
		if err := srv.Listen(address); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

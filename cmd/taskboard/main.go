package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/config"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/logger"
	"github.com/taskboard-dev/taskboard/internal/mail"
	"github.com/taskboard-dev/taskboard/internal/mq"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/router"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile string
	var migrateOnly bool

	flagSet := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "load environment variables from this file if it exists")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "create missing tables and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	gdb, err := db.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	if err := db.MigrateDatabase(gdb); err != nil {
		return err
	}

	if migrateOnly {
		log.Info().Msg("migrations applied")
		return nil
	}

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.JWTAccessTTL,
		RefreshTTL: cfg.JWTRefreshTTL,
		VerifyTTL:  cfg.VerifyTokenTTL,
	})
	if err != nil {
		return err
	}

	sender, closeSender, err := mailSender(cfg, log)
	if err != nil {
		return err
	}
	defer closeSender()

	repo := store.New(gdb)
	accounts := services.NewAccounts(repo, tokens, sender, cfg.PublicURL, log)
	manager := services.NewManager(repo, log)
	hub := realtime.NewHub(cfg.Origins(), log)

	h := handlers.New(accounts, manager, hub, handlers.CookieConfig{
		Domain: cfg.CookieDomain,
		Secure: strings.HasPrefix(cfg.PublicURL, "https://"),
		MaxAge: int(cfg.JWTAccessTTL.Seconds()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(h, accounts, router.Options{AllowedOrigins: cfg.Origins(), Logger: log, DB: repo}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("taskboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// mailSender publishes to RabbitMQ when it is configured and otherwise logs
// outgoing mail.
func mailSender(cfg config.App, log zerolog.Logger) (mail.Sender, func(), error) {
	if cfg.RabbitURL == "" {
		log.Warn().Msg("RABBIT_URL not set, verification mail will only be logged")
		return mail.NewLogSender(log), func() {}, nil
	}

	pub, err := mq.NewPublisher(cfg.RabbitURL, cfg.MailExchange)
	if err != nil {
		return nil, nil, err
	}

	return mail.NewQueueSender(pub, cfg.MailRoutingKey), func() { _ = pub.Close() }, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/taskboard-dev/taskboard/internal/config"
	"github.com/taskboard-dev/taskboard/internal/logger"
	"github.com/taskboard-dev/taskboard/internal/mail"
	"github.com/taskboard-dev/taskboard/internal/mq"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile string
	var prefetch int

	flagSet := pflag.NewFlagSet("taskboard-mailer", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "load environment variables from this file if it exists")
	flagSet.IntVar(&prefetch, "prefetch", 8, "unacknowledged deliveries held at once")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := config.LoadMailer()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	var sender mail.Sender = mail.NewLogSender(log)
	if cfg.SMTPAddr != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Addr:     cfg.SMTPAddr,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		log.Warn().Msg("SMTP_ADDR not set, mail will only be logged")
	}

	consumer, err := mq.NewConsumer(cfg.RabbitURL, cfg.MailExchange, cfg.MailQueue, []string{cfg.MailRoutingKey}, prefetch)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deliveries, err := consumer.Deliveries(ctx, "taskboard-mailer")
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.MailQueue, err)
	}

	log.Info().Str("queue", cfg.MailQueue).Msg("mailer consuming")

	worker := mail.NewWorker(sender, log)
	worker.MaxAttempts = cfg.MaxAttempts
	worker.Backoff = cfg.RetryBackoff

	return worker.Run(ctx, deliveries)
}

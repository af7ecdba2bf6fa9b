package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/config"
	"github.com/xavierca1/lead-marketplace/internal/infra/logger"
	"github.com/xavierca1/lead-marketplace/internal/infra/mail"
	"github.com/xavierca1/lead-marketplace/internal/infra/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.RabbitMQURL == "" || cfg.MailHost == "" {
		log.Fatal("RABBITMQ_URL and MAIL_HOST are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitMQ.Close()

	if err := rabbitMQ.Ch.Qos(1, 0, false); err != nil {
		log.Fatal("failed to set prefetch", zap.Error(err))
	}

	sender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
	worker := queue.NewWorker(rabbitMQ.Ch, sender, log)

	if err := worker.Start(ctx, queue.QueueName); err != nil {
		log.Error("worker stopped", zap.Error(err))
		return
	}
	log.Info("worker stopped")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tazhibayda/mytinerary/internal/config"
	applog "github.com/tazhibayda/mytinerary/internal/log"
	"github.com/tazhibayda/mytinerary/internal/mail"
	"github.com/tazhibayda/mytinerary/internal/queue"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := applog.Init(cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.Exchange, cfg.Queue, cfg.BindKey, logger)
	if err != nil {
		logger.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	sender := mail.NewSender(logger.Named("mail"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("notifier up",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue),
		zap.String("key", cfg.BindKey),
		zap.Int("workers", cfg.Concurrency),
	)

	if err := cons.Consume(ctx, cfg.Concurrency, sender.HandleEvent); err != nil {
		logger.Fatal("consumer stopped", zap.Error(err))
	}
	logger.Info("notifier stopped")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"reportdesk/internal/bootstrap"
	"reportdesk/internal/core/config"
	"reportdesk/internal/core/queue"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := bootstrap.Logger(cfg, cfg.App.Name+"-consumer")
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := bootstrap.QueueOptions(cfg.RabbitMQ)
	log.Info("report consumer starting", zap.String("queue", opts.Queue), zap.String("exchange", opts.Exchange))

	c := queue.NewConsumer(opts, queue.LogReportCreated(log), log)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("report consumer stopped with error", zap.Error(err))
		return
	}
	log.Info("report consumer stopped")
}

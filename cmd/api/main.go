package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reportdesk/internal/bootstrap"
	"reportdesk/internal/core/config"
	"reportdesk/internal/core/database"
	"reportdesk/internal/core/queue"
	"reportdesk/internal/core/server"
	"reportdesk/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := bootstrap.Logger(cfg, cfg.App.Name+"-api")
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	c := bootstrap.Cache(*cfg)
	defer func() { _ = c.Close() }()

	qopts := bootstrap.QueueOptions(cfg.RabbitMQ)
	pub := queue.NewPublisher(qopts, log)
	defer func() { _ = pub.Close() }()

	svc := bootstrap.NewServices(cfg, db, c, pub, log)
	r := router.NewAPIEngine(router.APIDeps{
		Log:     log,
		JWT:     svc.JWT,
		Auth:    svc.Auth,
		Tokens:  svc.Tokens,
		Reports: svc.Reports,
		Checks:  svc.Checks,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("report api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
		zap.Bool("cache", c != nil),
		zap.Bool("invalidate_on_write", cfg.Cache.InvalidateOnWrite),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Serve(gctx, srv, log, 10*time.Second) })
	if cfg.RabbitMQ.ConsumerInProcess {
		consumer := queue.NewConsumer(qopts, queue.LogReportCreated(log), log)
		g.Go(func() error {
			if err := consumer.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("report api stopped with error", zap.Error(err))
		return
	}
	log.Info("report api stopped gracefully")
}

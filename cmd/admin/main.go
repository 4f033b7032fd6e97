package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"reportdesk/internal/bootstrap"
	"reportdesk/internal/core/config"
	"reportdesk/internal/core/database"
	"reportdesk/internal/core/server"
	"reportdesk/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := bootstrap.Logger(cfg, cfg.App.Name+"-admin")
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	// Role administration never touches the report cache or the broker.
	svc := bootstrap.NewServices(cfg, db, nil, nil, log)

	if login := cfg.Admin.BootstrapLogin; login != "" {
		if err := svc.Roles.EnsureAdmin(ctx, login); err != nil {
			log.Fatal("bootstrap admin", zap.String("login", login), zap.Error(err))
		}
		log.Info("bootstrap admin ensured", zap.String("login", login))
	}

	r := router.NewAdminEngine(router.AdminDeps{
		Log:    log,
		JWT:    svc.JWT,
		Roles:  svc.Roles,
		Checks: svc.Checks,
	})
	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)
	log.Info("admin api starting", zap.String("addr", addr), zap.String("admin_v1", "http://"+addr+"/admin/v1"))

	if err := server.Serve(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("admin api stopped with error", zap.Error(err))
		return
	}
	log.Info("admin api stopped gracefully")
}

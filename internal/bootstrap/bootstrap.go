// Package bootstrap builds the shared runtime pieces from configuration.
package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"reportdesk/internal/core/auth"
	"reportdesk/internal/core/cache"
	"reportdesk/internal/core/config"
	"reportdesk/internal/core/database"
	"reportdesk/internal/core/logger"
	"reportdesk/internal/core/queue"
	"reportdesk/internal/repo"
	"reportdesk/internal/service"
	"reportdesk/internal/transport/http/router"
)

// Logger builds the process logger for service and routes the std log
// package into it.
func Logger(cfg *config.Config, service string) (*zap.Logger, func()) {
	opt := logger.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Service: service,
		Env:     cfg.App.Env,
	}
	if cfg.Log.File != "" {
		opt.Rotate = &logger.FileRotate{
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
	}
	l, cleanup := logger.Build(opt)
	undo := logger.RedirectStdLog(l, zapcore.InfoLevel)
	return l, func() {
		undo()
		cleanup()
	}
}

// OpenDB connects, then migrates and seeds when auto-migrate is on.
func OpenDB(ctx context.Context, cfg config.DB, l *zap.Logger) (*gorm.DB, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.Driver,
		DSN:                cfg.DSN,
		Username:           cfg.Username,
		Password:           cfg.Password,
		MaxOpenConns:       cfg.MaxOpenConns,
		MaxIdleConns:       cfg.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.ConnMaxLifetimeMin,
		LogLevel:           cfg.LogLevel,
		SlowThreshold:      time.Duration(cfg.SlowQueryMs) * time.Millisecond,
		Log:                l,
	})
	if err != nil {
		return nil, err
	}
	l.Info("database connected", zap.String("driver", cfg.Driver))

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
		if err := database.Seed(ctx, db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
		l.Info("automigrate done")
	}
	return db, nil
}

// Cache returns nil when caching is disabled; a nil cache loads through.
func Cache(cfg config.Config) *cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	return cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.Prefix)
}

func JWT(cfg config.JWT) *auth.JWTer {
	return &auth.JWTer{
		Secret:   []byte(cfg.Secret),
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		TTL:      cfg.AccessTTL(),
		Leeway:   time.Duration(cfg.LeewaySec) * time.Second,
	}
}

func QueueOptions(cfg config.RabbitMQ) queue.Options {
	return queue.Options{
		URL:                cfg.URL,
		Exchange:           cfg.Exchange,
		RoutingKey:         cfg.RoutingKey,
		Queue:              cfg.Queue,
		DeadLetterExchange: cfg.DeadLetterExchange,
		Prefetch:           cfg.Prefetch,
	}
}

// Services is the wired application layer shared by both HTTP binaries.
type Services struct {
	Store   *repo.Store
	Auth    *service.AuthService
	Tokens  *service.TokenService
	Roles   *service.RoleService
	Reports *service.ReportService
	JWT     *auth.JWTer
	Checks  map[string]router.Check
}

// NewServices wires the use cases. pub may be nil, in which case report
// events are not published.
func NewServices(cfg *config.Config, db *gorm.DB, c *cache.Cache, pub service.EventPublisher, l *zap.Logger) *Services {
	store := repo.NewStore(db)
	j := JWT(cfg.JWT)
	tokens := service.NewTokenService(store, j, cfg.JWT.RefreshTTL(), l)

	checks := map[string]router.Check{"db": store.Ping}
	if c != nil {
		checks["cache"] = c.Ping
	}
	return &Services{
		Store:  store,
		Auth:   service.NewAuthService(store, tokens, l),
		Tokens: tokens,
		Roles:  service.NewRoleService(store, l),
		Reports: service.NewReportService(store, c, service.ReportCacheOptions{
			TTL:               cfg.Cache.TTL(),
			InvalidateOnWrite: cfg.Cache.InvalidateOnWrite,
		}, pub, l),
		JWT:    j,
		Checks: checks,
	}
}

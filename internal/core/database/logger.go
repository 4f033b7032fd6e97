package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var queryDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Latency of SQL statements issued through gorm",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"},
)

func init() { prometheus.MustRegister(queryDuration) }

func parseLogLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// gormLogger sends gorm output to zap. Failed statements log at error, slow
// ones at warn and everything else at debug when the level is info.
type gormLogger struct {
	l     *zap.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(l *zap.Logger, level logger.LogLevel, slow time.Duration) logger.Interface {
	return &gormLogger{l: l.Named("gorm").WithOptions(zap.AddCallerSkip(3)), level: level, slow: slow}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Info {
		g.l.Info(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Warn {
		g.l.Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Error {
		g.l.Error(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	if failed {
		queryDuration.WithLabelValues("error").Observe(elapsed.Seconds())
	} else {
		queryDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	}
	if g.level <= logger.Silent {
		return
	}

	switch {
	case failed && g.level >= logger.Error:
		sql, rows := fc()
		g.l.Error("query failed", zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case g.slow > 0 && elapsed > g.slow && g.level >= logger.Warn:
		sql, rows := fc()
		g.l.Warn("slow query", zap.Duration("elapsed", elapsed), zap.Duration("threshold", g.slow), zap.Int64("rows", rows), zap.String("sql", sql))
	case g.level >= logger.Info:
		sql, rows := fc()
		g.l.Debug("query", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}

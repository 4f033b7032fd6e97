package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

type Opts struct {
	Driver             string // postgres / mysql / sqlite
	DSN                string
	Username           string // mysql only, overrides the DSN user
	Password           string // mysql only, overrides the DSN password
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string // silent / error / warn / info
	SlowThreshold      time.Duration
	Log                *zap.Logger
}

// NewGorm opens a pool for o.Driver. Multi-statement writes are expected to
// go through an explicit transaction, so the implicit per-write one is off.
func NewGorm(o Opts) (*gorm.DB, error) {
	l := o.Log
	if l == nil {
		l = zap.NewNop()
	}
	dial, err := dialector(o, l)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:                 newGormLogger(l, parseLogLevel(o.LogLevel), o.SlowThreshold),
		TranslateError:         true,
		SkipDefaultTransaction: true,
		PrepareStmt:            o.Driver != "sqlite",
		CreateBatchSize:        200,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetimeMin > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	}
	return db, nil
}

func dialector(o Opts, l *zap.Logger) (gorm.Dialector, error) {
	switch o.Driver {
	case "postgres":
		return postgres.Open(o.DSN), nil
	case "mysql":
		cfg, err := mysqlConfig(o.DSN, o.Username, o.Password)
		if err != nil {
			return nil, err
		}
		l.Info("mysql target", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBName), zap.String("user", cfg.User))
		return mysql.Open(cfg.FormatDSN()), nil
	case "sqlite":
		return sqlite.Open(o.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mysqlConfig accepts a native driver DSN, a mysql:// URL or a JDBC URL and
// returns a driver config with parseTime forced on. Non-empty user and pass
// replace whatever the DSN carries.
func mysqlConfig(raw, user, pass string) (*mysqldrv.Config, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "jdbc:")
	if raw == "" {
		return nil, errors.New("database: empty mysql dsn")
	}

	var (
		cfg *mysqldrv.Config
		err error
	)
	if strings.HasPrefix(raw, "mysql://") {
		cfg, err = mysqlConfigFromURL(raw)
	} else {
		cfg, err = mysqldrv.ParseDSN(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("database: mysql dsn: %w", err)
	}
	if user != "" {
		cfg.User = user
	}
	if pass != "" {
		cfg.Passwd = pass
	}
	cfg.ParseTime = true
	return cfg, nil
}

func mysqlConfigFromURL(raw string) (*mysqldrv.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	cfg := mysqldrv.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	q := u.Query()
	if v := q.Get("user"); v != "" {
		cfg.User = v
	}
	if v := q.Get("password"); v != "" {
		cfg.Passwd = v
	}
	switch strings.ToLower(q.Get("useSSL")) {
	case "":
	case "true", "1":
		cfg.TLSConfig = "true"
	case "skip-verify", "preferred":
		cfg.TLSConfig = strings.ToLower(q.Get("useSSL"))
	default:
		cfg.TLSConfig = "false"
	}
	if tz := q.Get("serverTimezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
		cfg.Loc = loc
	}
	return cfg, nil
}

// Package repotest opens throwaway migrated databases for tests.
package repotest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reportdesk/internal/core/database"
)

var ErrInjected = errors.New("injected failure")

// NewDB returns a migrated and seeded SQLite database in t's temp dir. The
// pool holds a single connection, so code under test must not query outside
// an open transaction.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "reportdesk.db") + "?_pragma=busy_timeout(5000)",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	Prepare(t, db)
	return db
}

// Prepare migrates and seeds db.
func Prepare(t testing.TB, db *gorm.DB) {
	t.Helper()
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(context.Background(), db))
}

// FailCreatesOn makes every insert into table fail with ErrInjected until
// the returned func is called.
func FailCreatesOn(t testing.TB, db *gorm.DB, table string) func() {
	t.Helper()
	name := "repotest:fail_create_" + table
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == table {
			_ = tx.AddError(ErrInjected)
		}
	})
	require.NoError(t, err)
	var once sync.Once
	restore := func() { once.Do(func() { _ = db.Callback().Create().Remove(name) }) }
	t.Cleanup(restore)
	return restore
}

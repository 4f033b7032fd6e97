package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Store groups the repositories over one gorm handle. Inside Tx every
// repository shares the transaction.
type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *gorm.DB         { return s.db }
func (s *Store) Users() *UserRepo     { return NewUserRepo(s.db) }
func (s *Store) Roles() *RoleRepo     { return NewRoleRepo(s.db) }
func (s *Store) Tokens() *TokenRepo   { return NewTokenRepo(s.db) }
func (s *Store) Reports() *ReportRepo { return NewReportRepo(s.db) }

// Tx runs fn in a transaction. Any error returned by fn rolls back every
// write made through the Store passed to it and is returned unchanged.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsDuplicateKey reports a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/identity-server/internal/model"
)

const uniqueViolation = "23505"

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ model.Store = (*Store)(nil)

// Store exposes the identity and credential repositories over one handle,
// either the pool or an open transaction.
type Store struct {
	db DBTX
}

// NewStore creates a Store backed by the connection pool.
func NewStore(db *Connection) *Store {
	return &Store{db: db}
}

func (s *Store) Identities() model.IdentityStore { return NewIdentityRepository(s.db) }

func (s *Store) Credentials() model.CredentialStore { return NewCredentialRepository(s.db) }

func (s *Store) Profiles() model.ProfileQuery { return NewProfileRepository(s.db) }

// WithinTx runs fn inside a transaction. Nested calls use a savepoint.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx model.Store) error) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, &Store{db: tx})
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

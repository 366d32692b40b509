package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresRevocationStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRevocationStore implements RevocationStore using campus.revoked_tokens.
type PostgresRevocationStore struct {
	db    DB
	table string
}

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewPostgresRevocationStore creates a Postgres-backed revocation store in schema.
// An empty schema means "campus".
func NewPostgresRevocationStore(db DB, schema string) (*PostgresRevocationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "campus"
	}
	if !pgIdentRe.MatchString(schema) {
		return nil, fmt.Errorf("session: invalid schema identifier")
	}
	return &PostgresRevocationStore{
		db:    db,
		table: pgx.Identifier{schema, "revoked_tokens"}.Sanitize(),
	}, nil
}

// Record inserts a revocation row. Duplicates are allowed.
func (s *PostgresRevocationStore) Record(ctx context.Context, raw string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO `+s.table+` (token) VALUES ($1)`, raw)
	return err
}

// IsRevoked reports whether raw was ever recorded.
func (s *PostgresRevocationStore) IsRevoked(ctx context.Context, raw string) (bool, error) {
	var revoked bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+s.table+` WHERE token = $1)`,
		raw,
	).Scan(&revoked)
	if err != nil {
		return false, err
	}
	return revoked, nil
}

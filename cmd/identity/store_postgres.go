package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"campus/cmd/identity/ids"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by the Postgres stores.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store over PostgreSQL.
//
// The pool is owned by the caller; this store must NOT close it.
// Schema/table identifiers are quoted to avoid SQL injection via identifiers.
type PostgresStore struct {
	db     DB
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultSchema is the schema created by the bundled migrations.
const DefaultSchema = "campus"

// WithSchema sets the Postgres schema used by the identity store (default "campus").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db DB, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		db:     db,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.db == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `id, username, email, password_hash, role, is_verified, created_at, updated_at`

func (s *PostgresStore) users() string { return pgIdent(s.schema, "users") }

func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	in, err := prepareCreate(op, in)
	if err != nil {
		return User{}, err
	}

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return User{}, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO `+s.users()+` (
		     id, username, email, email_norm, password_hash, role, is_verified, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		id,
		in.Username,
		in.Email,
		NormalizeEmail(in.Email),
		in.PasswordHash,
		string(in.Role),
		in.IsVerified,
		in.Now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return User{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		IsVerified:   in.IsVerified,
		CreatedAt:    in.Now,
		UpdatedAt:    in.Now,
	}, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"
	if !ids.Valid(id) {
		return User{}, userNotFound(op)
	}
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM `+s.users()+` WHERE id = $1`, id)
	return scanUserOne(op, row)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"
	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, userNotFound(op)
	}
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM `+s.users()+` WHERE email_norm = $1`, norm)
	return scanUserOne(op, row)
}

func (s *PostgresStore) FindUserByLogin(ctx context.Context, identifier string) (User, error) {
	const op = "identity.FindUserByLogin"
	email := NormalizeEmail(identifier)
	name := NormalizeUsername(identifier)
	if name == "" {
		return User{}, userNotFound(op)
	}
	row := s.db.QueryRow(ctx,
		`SELECT `+userColumns+`
		   FROM `+s.users()+`
		  WHERE email_norm = $1 OR username = $2
		  ORDER BY (email_norm = $1) DESC, created_at ASC, id ASC
		  LIMIT 1`,
		email, name,
	)
	return scanUserOne(op, row)
}

func (s *PostgresStore) ListUsers(ctx context.Context, f ListFilter) ([]User, int, error) {
	skip, limit := f.Bounds()

	var (
		where []string
		args  []any
	)
	if v := NormalizeUsername(f.Username); v != "" {
		args = append(args, v)
		where = append(where, fmt.Sprintf("username = $%d", len(args)))
	}
	if v := NormalizeEmail(f.Email); v != "" {
		args = append(args, v)
		where = append(where, fmt.Sprintf("email_norm = $%d", len(args)))
	}
	if v := strings.TrimSpace(f.Role); v != "" {
		args = append(args, v)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM `+s.users()+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageArgs := append(append([]any(nil), args...), limit, skip)
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM `+s.users()+cond+
			fmt.Sprintf(` ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		pageArgs...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id string, p UserPatch, now time.Time) (User, error) {
	const op = "identity.UpdateUser"
	p, err := preparePatch(op, p)
	if err != nil {
		return User{}, err
	}
	if !ids.Valid(id) {
		return User{}, userNotFound(op)
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Username != nil {
		set("username", *p.Username)
	}
	if p.Email != nil {
		set("email", *p.Email)
		set("email_norm", NormalizeEmail(*p.Email))
	}
	if p.PasswordHash != nil {
		set("password_hash", *p.PasswordHash)
	}
	if p.Role != nil {
		set("role", string(*p.Role))
	}
	if p.IsVerified != nil {
		set("is_verified", *p.IsVerified)
	}
	set("updated_at", now)
	args = append(args, id)

	row := s.db.QueryRow(ctx,
		`UPDATE `+s.users()+` SET `+strings.Join(sets, ", ")+
			fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args))+userColumns,
		args...,
	)
	u, err := scanUserOne(op, row)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"
	if !ids.Valid(id) {
		return userNotFound(op)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM `+s.users()+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return userNotFound(op)
	}
	return nil
}

func scanUserOne(op string, row pgx.Row) (User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, userNotFound(op)
	}
	return u, err
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}

// pgIdentIsValid checks if a string is a safe Postgres identifier.
func pgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// pgClassifyUniqueViolation maps a unique_violation to a logical field name.
func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}

	// Prefer stable schema constraint names. Fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "uq_users_email_norm":
		return "email", true
	default:
		switch {
		case strings.Contains(c, "email"):
			return "email", true
		case strings.Contains(c, "username"):
			return "username", true
		case strings.Contains(c, "name"):
			return "name", true
		default:
			return "unique", true
		}
	}
}

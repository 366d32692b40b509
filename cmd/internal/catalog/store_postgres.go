package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists faculties and programs in PostgreSQL.
type PostgresStore struct {
	db     DB
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "campus").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentIsValid(schema) {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db DB, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{db: db, schema: "campus"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.db == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

func (s *PostgresStore) faculties() string { return pgIdent(s.schema, "faculties") }
func (s *PostgresStore) programs() string  { return pgIdent(s.schema, "programs") }

func (s *PostgresStore) CreateFaculty(ctx context.Context, f Faculty) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO `+s.faculties()+` (id, name, created_at) VALUES ($1, $2, $3)`,
		f.ID, f.Name, f.CreatedAt,
	)
	if pgIsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *PostgresStore) ListFaculties(ctx context.Context) ([]Faculty, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, created_at FROM `+s.faculties()+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Faculty{}
	for rows.Next() {
		var f Faculty
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetFaculty(ctx context.Context, id string) (Faculty, error) {
	var f Faculty
	err := s.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM `+s.faculties()+` WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Faculty{}, ErrNotFound
	}
	if err != nil {
		return Faculty{}, err
	}
	return f, nil
}

func (s *PostgresStore) RenameFaculty(ctx context.Context, id, name string) (Faculty, error) {
	var f Faculty
	err := s.db.QueryRow(ctx,
		`UPDATE `+s.faculties()+` SET name = $2 WHERE id = $1 RETURNING id, name, created_at`,
		id, name,
	).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Faculty{}, ErrNotFound
	}
	if err != nil {
		return Faculty{}, err
	}
	return f, nil
}

func (s *PostgresStore) DeleteFaculty(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM `+s.faculties()+` WHERE id = $1`, id)
	if err != nil {
		if pgIsForeignKeyViolation(err) {
			return ErrFacultyInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateProgram(ctx context.Context, p Program) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO `+s.programs()+` (id, name, faculty_id, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.FacultyID, p.CreatedAt,
	)
	switch {
	case err == nil:
		return nil
	case pgIsForeignKeyViolation(err):
		return ErrFacultyNotFound
	case pgIsUniqueViolation(err):
		return ErrConflict
	default:
		return err
	}
}

func (s *PostgresStore) ListPrograms(ctx context.Context) ([]Program, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, faculty_id, created_at FROM `+s.programs()+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Program{}
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Name, &p.FacultyID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetProgram(ctx context.Context, id string) (Program, error) {
	var p Program
	err := s.db.QueryRow(ctx,
		`SELECT id, name, faculty_id, created_at FROM `+s.programs()+` WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.FacultyID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Program{}, ErrNotFound
	}
	if err != nil {
		return Program{}, err
	}
	return p, nil
}

func (s *PostgresStore) UpdateProgram(ctx context.Context, id string, patch ProgramPatch) (Program, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.FacultyID != nil {
		args = append(args, *patch.FacultyID)
		sets = append(sets, fmt.Sprintf("faculty_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return Program{}, ErrInvalidInput
	}
	args = append(args, id)

	var p Program
	err := s.db.QueryRow(ctx,
		`UPDATE `+s.programs()+` SET `+strings.Join(sets, ", ")+
			fmt.Sprintf(` WHERE id = $%d RETURNING id, name, faculty_id, created_at`, len(args)),
		args...,
	).Scan(&p.ID, &p.Name, &p.FacultyID, &p.CreatedAt)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return Program{}, ErrNotFound
	case pgIsForeignKeyViolation(err):
		return Program{}, ErrFacultyNotFound
	default:
		return Program{}, err
	}
}

func (s *PostgresStore) DeleteProgram(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM `+s.programs()+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"signup/internal/profile/models"
	"signup/internal/profile/rules"
	"signup/pkg/domain"
	"signup/pkg/platform/sentinel"
	txcontext "signup/pkg/platform/tx"
)

// Postgres error codes the store translates.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists profiles in PostgreSQL. The unique indexes on
// username and email are the authority on uniqueness.
type PostgresStore struct {
	db *sql.DB
	tx *txcontext.Runner
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: txcontext.NewRunner(db, 0)}
}

func (s *PostgresStore) conn(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const insertProfile = `
	INSERT INTO profiles (id, username, email, password_hash, age, biography, category, rating, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

func (s *PostgresStore) Insert(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("insert profile: %w", sentinel.ErrInvalidState)
	}
	_, err := s.conn(ctx).ExecContext(ctx, insertProfile,
		uuid.UUID(p.ID), p.Username, p.Email, p.PasswordHash, p.Age,
		p.Biography, string(p.Category), p.Rating, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return translate(err, p)
	}
	return nil
}

// InsertMany writes all profiles in one transaction. An ambient transaction
// from the context is reused; otherwise a new one is opened and committed.
func (s *PostgresStore) InsertMany(ctx context.Context, profiles []*models.Profile) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.insertAll(ctx, profiles)
	})
}

func (s *PostgresStore) insertAll(ctx context.Context, profiles []*models.Profile) error {
	for _, p := range profiles {
		if err := s.Insert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

const selectProfile = `
	SELECT id, username, email, password_hash, age, biography, category, rating, created_at, updated_at
	FROM profiles
`

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	row := s.conn(ctx).QueryRowContext(ctx, selectProfile+` WHERE username = $1`, username)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile by username: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	row := s.conn(ctx).QueryRowContext(ctx, selectProfile+` WHERE email = $1`, email)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile by email: %w", err)
	}
	return p, nil
}

// List returns all profiles oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Profile, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, selectProfile+` ORDER BY created_at, username`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM profiles`)
	if err != nil {
		return 0, fmt.Errorf("delete profiles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete profiles: %w", err)
	}
	return int(n), nil
}

// Health pings the database.
func (s *PostgresStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*models.Profile, error) {
	var (
		p        models.Profile
		id       uuid.UUID
		category string
	)
	if err := row.Scan(&id, &p.Username, &p.Email, &p.PasswordHash, &p.Age,
		&p.Biography, &category, &p.Rating, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = domain.ProfileID(id)
	p.Category = domain.Category(category)
	return &p, nil
}

// translate maps Postgres constraint failures onto store errors.
func translate(err error, p *models.Profile) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("insert profile: %w", err)
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		field := fieldOf(pgErr.ConstraintName)
		if field == "id" {
			return fmt.Errorf("insert profile %s: %w", p.ID, sentinel.ErrConflict)
		}
		return &DuplicateKeyError{Index: pgErr.ConstraintName, Field: field, Value: valueOf(p, field)}
	case pgCheckViolation:
		return &SchemaError{Field: fieldOf(pgErr.ConstraintName), Err: err}
	case pgNotNullViolation:
		return &SchemaError{Field: columnField(pgErr.ColumnName), Err: err}
	default:
		return fmt.Errorf("insert profile: %w", err)
	}
}

// fieldOf derives the field from a constraint name such as
// profiles_email_key or profiles_age_check.
func fieldOf(constraint string) string {
	name := strings.TrimPrefix(constraint, "profiles_")
	for _, suffix := range []string{"_key", "_check", "_pkey"} {
		name = strings.TrimSuffix(name, suffix)
	}
	if name == "" || name == "pkey" {
		return "id"
	}
	return columnField(name)
}

func columnField(column string) string {
	if column == "password_hash" {
		return rules.FieldPassword
	}
	return column
}

func valueOf(p *models.Profile, field string) string {
	switch field {
	case rules.FieldUsername:
		return p.Username
	case rules.FieldEmail:
		return p.Email
	}
	return ""
}

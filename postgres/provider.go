package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	silentauth "github.com/silentauth/silentauth"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// Provider is a [silentauth.UserProvider] backed by a Postgres users table.
type Provider struct {
	db *sql.DB
}

// Open connects to databaseURL, verifies the connection, and creates the
// users table if it does not exist.
func Open(databaseURL string) (*Provider, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err = db.Ping(); err != nil {
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP WITHOUT TIME ZONE NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// NewProvider wraps an existing connection pool. The users table must
// already exist.
func NewProvider(db *sql.DB) *Provider {
	return &Provider{db: db}
}

// Close releases the underlying connection pool.
func (p *Provider) Close() error {
	return p.db.Close()
}

// GetUserByEmail looks an account up by its unique email.
func (p *Provider) GetUserByEmail(ctx context.Context, email string) (silentauth.UserRecord, error) {
	return p.getUser(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email)
}

// GetUserByID looks an account up by its UUID primary key.
func (p *Provider) GetUserByID(ctx context.Context, id string) (silentauth.UserRecord, error) {
	return p.getUser(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (p *Provider) getUser(ctx context.Context, query, arg string) (silentauth.UserRecord, error) {
	var user silentauth.UserRecord

	row := p.db.QueryRowContext(ctx, query, arg)
	if err := row.Scan(&user.UserID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return silentauth.UserRecord{}, silentauth.ErrUserNotFound
		}
		return silentauth.UserRecord{}, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// CreateUser inserts a new account with a generated UUID. A unique
// constraint breach on email maps to [silentauth.ErrEmailExists].
func (p *Provider) CreateUser(ctx context.Context, input silentauth.CreateUserInput) (silentauth.UserRecord, error) {
	user := silentauth.UserRecord{
		UserID:       uuid.NewString(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.UserID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return silentauth.UserRecord{}, fmt.Errorf("%w: %s", silentauth.ErrEmailExists, input.Email)
		}
		return silentauth.UserRecord{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

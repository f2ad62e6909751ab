package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
	// ErrSessionNotFound signals that no session matches the refresh token.
	ErrSessionNotFound = errors.New("auth: session not found")
)

// Repository handles data access for authentication.
type Repository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID string) (User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	// ResetPassword updates the digest, advances the reset version and
	// deletes every session of the user in one transaction. It fails with
	// ErrInvalidToken when the stored reset version no longer equals version.
	ResetPassword(ctx context.Context, userID, passwordHash string, version int64) error
	// SetStatus changes the account status; leaving ACTIVE also deletes all
	// of the user's sessions.
	SetStatus(ctx context.Context, userID string, status Status) (User, error)

	CreateSession(ctx context.Context, params CreateSessionParams) (Session, error)
	GetSessionByToken(ctx context.Context, refreshToken string) (Session, error)
	DeleteSessionByToken(ctx context.Context, refreshToken string) error
}

// CreateUserParams contains write parameters for creating users.
type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         Role
}

type CreateSessionParams struct {
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	IPAddress    string
	UserAgent    string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password, phone, avatar, role, status, password_changed_at, reset_version, created_at, updated_at`

// CreateUser inserts the user and its role profile row (clients or
// professionals) in one transaction.
func (r *PGRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("auth: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insertSQL := `
		INSERT INTO users (email, name, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(tx.QueryRow(ctx, insertSQL, params.Email, params.Name, params.PasswordHash, params.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("auth: create user: %w", err)
	}

	switch user.Role {
	case RoleClient:
		_, err = tx.Exec(ctx, `INSERT INTO clients (user_id) VALUES ($1)`, user.ID)
	case RoleProfessional:
		_, err = tx.Exec(ctx, `INSERT INTO professionals (user_id) VALUES ($1)`, user.ID)
	}
	if err != nil {
		return User{}, fmt.Errorf("auth: create %s profile: %w", user.Role, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("auth: commit create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	selectSQL := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *PGRepository) GetUserByID(ctx context.Context, userID string) (User, error) {
	selectSQL := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: get user by id: %w", err)
	}

	return user, nil
}

func (r *PGRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password = $2, password_changed_at = now(), reset_version = reset_version + 1, updated_at = now()
		WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PGRepository) ResetPassword(ctx context.Context, userID, passwordHash string, version int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET password = $2, password_changed_at = now(), reset_version = reset_version + 1, updated_at = now()
		WHERE id = $1 AND reset_version = $3
	`, userID, passwordHash, version)
	if err != nil {
		return fmt.Errorf("auth: reset password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidToken
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("auth: revoke sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("auth: commit reset password: %w", err)
	}
	return nil
}

func (r *PGRepository) SetStatus(ctx context.Context, userID string, status Status) (User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("auth: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updateSQL := `
		UPDATE users SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(tx.QueryRow(ctx, updateSQL, userID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: set status: %w", err)
	}

	if status != StatusActive {
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
			return User{}, fmt.Errorf("auth: revoke sessions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("auth: commit set status: %w", err)
	}
	return user, nil
}

func (r *PGRepository) CreateSession(ctx context.Context, params CreateSessionParams) (Session, error) {
	const insertSQL = `
		INSERT INTO sessions (user_id, refresh_token, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING id, user_id, refresh_token, expires_at, ip_address, user_agent, created_at
	`
	s, err := scanSession(r.pool.QueryRow(ctx, insertSQL,
		params.UserID, params.RefreshToken, params.ExpiresAt, params.IPAddress, params.UserAgent))
	if err != nil {
		return Session{}, fmt.Errorf("auth: create session: %w", err)
	}
	return s, nil
}

func (r *PGRepository) GetSessionByToken(ctx context.Context, refreshToken string) (Session, error) {
	const selectSQL = `
		SELECT id, user_id, refresh_token, expires_at, ip_address, user_agent, created_at
		FROM sessions
		WHERE refresh_token = $1
	`
	s, err := scanSession(r.pool.QueryRow(ctx, selectSQL, refreshToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("auth: get session: %w", err)
	}
	return s, nil
}

// DeleteSessionByToken removes matching sessions. Deleting nothing is not an error.
func (r *PGRepository) DeleteSessionByToken(ctx context.Context, refreshToken string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Phone,
		&user.Avatar,
		&user.Role,
		&user.Status,
		&user.PasswordChangedAt,
		&user.ResetVersion,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.ExpiresAt, &s.IPAddress, &s.UserAgent, &s.CreatedAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

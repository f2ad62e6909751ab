package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"repfy/logging"
	"repfy/validation"
)

var (
	// ErrInvalidCredentials signals wrong email or password. Unknown emails
	// and wrong passwords are reported identically.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInactiveAccount signals a correct login on a non-ACTIVE account.
	ErrInactiveAccount = errors.New("auth: account is not active")
	// ErrWeakPassword wraps the strength violations; use validation.Reasons
	// to read them.
	ErrWeakPassword = errors.New("auth: password does not meet requirements")
	// ErrWrongPassword signals a failed current-password check on change.
	ErrWrongPassword = errors.New("auth: current password is incorrect")
)

// WeakPasswordError carries the violated strength rules.
type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return ErrWeakPassword.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *WeakPasswordError) Is(target error) bool { return target == ErrWeakPassword }

// tokenIssuer is the subset of TokenService the orchestrator needs.
type tokenIssuer interface {
	IssueAccess(id Identity) (string, error)
	IssueRefresh(id Identity) (string, error)
	IssueReset(id Identity, version int64) (string, error)
	VerifyRefresh(token string) (Claims, error)
	VerifyReset(token string) (Claims, error)
	RefreshExpiry() time.Time
}

// Service handles authentication business logic.
type Service struct {
	repo   Repository
	tokens tokenIssuer
	hasher Hasher
	log    logging.Logger
	now    func() time.Time
	// dummyHash is compared against when the email is unknown so both login
	// failure paths pay the bcrypt cost.
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(repo Repository, tokens tokenIssuer, hasher Hasher, log logging.Logger) (*Service, error) {
	dummy, err := hasher.Hash("repfy-dummy-password")
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		repo:      repo,
		tokens:    tokens,
		hasher:    hasher,
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register creates a new account, its role profile and a first session.
func (s *Service) Register(ctx context.Context, req RegisterRequest, client ClientInfo) (AuthResult, error) {
	email := validation.NormalizeEmail(req.Email)
	role := Role(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if role == "" {
		role = RoleClient
	}

	var v validation.Collector
	v.Email("email", email)
	v.MinLen("name", req.Name, 2)
	v.Check(role == RoleClient || role == RoleProfessional, "role must be CLIENT or PROFESSIONAL")
	v.Required("password", req.Password)
	if err := v.Err(); err != nil {
		return AuthResult{}, err
	}

	if strength := ValidatePasswordStrength(req.Password); !strength.Valid {
		return AuthResult{}, &WeakPasswordError{Reasons: strength.Errors}
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: passwordHash,
		Role:         role,
	})
	if err != nil {
		return AuthResult{}, err
	}

	result, err := s.startSession(ctx, user, client)
	if err != nil {
		return AuthResult{}, err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return result, nil
}

// Login authenticates a user and opens a new session.
func (s *Service) Login(ctx context.Context, req LoginRequest, client ClientInfo) (AuthResult, error) {
	email := validation.NormalizeEmail(req.Email)

	var v validation.Collector
	v.Email("email", email)
	v.Required("password", req.Password)
	if err := v.Err(); err != nil {
		return AuthResult{}, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			VerifyPassword(req.Password, s.dummyHash)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if !VerifyPassword(req.Password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if user.Status != StatusActive {
		return AuthResult{}, ErrInactiveAccount
	}

	return s.startSession(ctx, user, client)
}

// Refresh mints a new access token for a live session. The refresh token is
// not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", validation.New("refreshToken is required")
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}

	session, err := s.repo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if !s.now().Before(session.ExpiresAt) || session.UserID != claims.UserID {
		return "", ErrInvalidToken
	}

	access, err := s.tokens.IssueAccess(claims.Identity())
	if err != nil {
		return "", err
	}
	return access, nil
}

// Logout deletes the session holding refreshToken. Unknown tokens succeed.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return validation.New("refreshToken is required")
	}
	return s.repo.DeleteSessionByToken(ctx, refreshToken)
}

// ForgotPassword issues a reset token when the email belongs to a user. The
// outcome for unknown emails is an empty result and no error.
func (s *Service) ForgotPassword(ctx context.Context, email string) (ForgotResult, error) {
	email = validation.NormalizeEmail(email)
	if !validation.IsEmail(email) {
		return ForgotResult{}, validation.New("email must be a valid email")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ForgotResult{}, nil
		}
		return ForgotResult{}, err
	}

	token, err := s.tokens.IssueReset(user.Identity(), user.ResetVersion)
	if err != nil {
		return ForgotResult{}, err
	}
	return ForgotResult{ResetToken: token}, nil
}

// ResetPassword sets a new password from a reset token and revokes every
// session of the user. The token is bound to the user's reset version, which
// every password change advances, so each token works at most once and any
// password change voids the tokens issued before it.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	var v validation.Collector
	v.Required("token", token)
	v.Required("password", newPassword)
	if err := v.Err(); err != nil {
		return err
	}

	if strength := ValidatePasswordStrength(newPassword); !strength.Valid {
		return &WeakPasswordError{Reasons: strength.Errors}
	}
	claims, err := s.tokens.VerifyReset(token)
	if err != nil {
		return ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if claims.ResetVersion != user.ResetVersion {
		return ErrInvalidToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.ResetPassword(ctx, user.ID, passwordHash, claims.ResetVersion); err != nil {
		return err
	}
	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	var v validation.Collector
	v.Required("currentPassword", current)
	v.Required("newPassword", next)
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(current, user.PasswordHash) {
		return ErrWrongPassword
	}
	if strength := ValidatePasswordStrength(next); !strength.Valid {
		return &WeakPasswordError{Reasons: strength.Errors}
	}

	passwordHash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, passwordHash)
}

// SetStatus changes an account's status. Sessions are revoked when the
// account leaves ACTIVE.
func (s *Service) SetStatus(ctx context.Context, userID string, status Status) (User, error) {
	if !status.Valid() {
		return User{}, validation.New("status must be one of ACTIVE, INACTIVE, SUSPENDED, PENDING_VERIFICATION")
	}
	if !validation.IsUUID(userID) {
		return User{}, ErrUserNotFound
	}
	user, err := s.repo.SetStatus(ctx, userID, status)
	if err != nil {
		return User{}, err
	}
	s.log.Info(ctx, "user status changed", "user_id", user.ID, "status", user.Status)
	return user, nil
}

// GetUserByID retrieves user information by ID.
func (s *Service) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) startSession(ctx context.Context, user User, client ClientInfo) (AuthResult, error) {
	id := user.Identity()

	access, err := s.tokens.IssueAccess(id)
	if err != nil {
		return AuthResult{}, err
	}
	refresh, err := s.tokens.IssueRefresh(id)
	if err != nil {
		return AuthResult{}, err
	}

	if _, err := s.repo.CreateSession(ctx, CreateSessionParams{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    s.tokens.RefreshExpiry(),
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
	}); err != nil {
		return AuthResult{}, fmt.Errorf("auth: open session: %w", err)
	}

	return AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

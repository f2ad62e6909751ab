package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// malformed input and unexpected algorithms are not distinguished.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

const purposeReset = "reset"

// Claims is the signed payload of access, refresh and reset tokens.
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Purpose string `json:"purpose,omitempty"`

	// ResetVersion is set on reset tokens only. A reset token is redeemable
	// while it equals the user's current reset version.
	ResetVersion int64 `json:"rv,omitempty"`

	jwt.RegisteredClaims
}

func (c Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
}

// TokenService issues and verifies HS256 tokens. Access and reset tokens share
// the access secret; refresh tokens use a distinct one.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		resetTTL:   cfg.ResetTTL,
		now:        time.Now,
	}, nil
}

func (t *TokenService) WithClock(now func() time.Time) *TokenService {
	t.now = now
	return t
}

func (t *TokenService) IssueAccess(id Identity) (string, error) {
	return t.sign(t.accessKey, id, t.accessTTL, "", 0)
}

// IssueAccessTTL signs an access token with an explicit lifetime.
func (t *TokenService) IssueAccessTTL(id Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("auth: non-positive ttl %s", ttl)
	}
	return t.sign(t.accessKey, id, ttl, "", 0)
}

// IssueReset signs a password-reset token bound to the user's reset version
// with the access secret. It is rejected by VerifyAccess.
func (t *TokenService) IssueReset(id Identity, version int64) (string, error) {
	return t.sign(t.accessKey, id, t.resetTTL, purposeReset, version)
}

func (t *TokenService) IssueRefresh(id Identity) (string, error) {
	return t.sign(t.refreshKey, id, t.refreshTTL, "", 0)
}

// RefreshExpiry is the expiry to store on a Session created now.
func (t *TokenService) RefreshExpiry() time.Time {
	return t.now().Add(t.refreshTTL)
}

func (t *TokenService) VerifyAccess(token string) (Claims, error) {
	claims, err := t.parse(t.accessKey, token)
	if err != nil || claims.Purpose != "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenService) VerifyReset(token string) (Claims, error) {
	claims, err := t.parse(t.accessKey, token)
	if err != nil || claims.Purpose != purposeReset {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenService) VerifyRefresh(token string) (Claims, error) {
	claims, err := t.parse(t.refreshKey, token)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenService) sign(key []byte, id Identity, ttl time.Duration, purpose string, resetVersion int64) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:       id.UserID,
		Email:        id.Email,
		Role:         id.Role,
		Purpose:      purpose,
		ResetVersion: resetVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenService) parse(key []byte, token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

package auth

import "time"

type Role string

const (
	RoleClient       Role = "CLIENT"
	RoleProfessional Role = "PROFESSIONAL"
	RoleAdmin        Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleProfessional, RoleAdmin:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusActive              Status = "ACTIVE"
	StatusInactive            Status = "INACTIVE"
	StatusSuspended           Status = "SUSPENDED"
	StatusPendingVerification Status = "PENDING_VERIFICATION"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPendingVerification:
		return true
	default:
		return false
	}
}

// User is the domain representation of an account.
// It mirrors the users table and should not include JSON annotations so it
// can be reused by different presentation layers.
type User struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	Phone             *string
	Avatar            *string
	Role              Role
	Status            Status
	PasswordChangedAt time.Time
	ResetVersion      int64 // bumped on every password change
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Identity is the claim subset embedded in every token.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// Session is a refresh-token grant. It is valid while the row exists and
// ExpiresAt is in the future.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	IPAddress    *string
	UserAgent    *string
	CreatedAt    time.Time
}

type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// ClientInfo is optional request metadata stored on new sessions.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// RegisterRequest contains user registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult bundles the tokens and user returned by register and login.
type AuthResult struct {
	User         User
	AccessToken  string
	RefreshToken string
}

// ForgotResult is returned by ForgotPassword. ResetToken is empty when the
// email is unknown; callers decide whether it may leave the process.
type ForgotResult struct {
	ResetToken string
}

package auth

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordBytes = 72
)

// StrengthResult reports every violated password rule at once.
type StrengthResult struct {
	Valid  bool
	Errors []string
}

// ValidatePasswordStrength checks length, lowercase, uppercase, digit and
// special-character rules.
func ValidatePasswordStrength(plain string) StrengthResult {
	var (
		lower, upper, digit, special bool
		errs                         []string
	)
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			special = true
		}
	}

	if utf8.RuneCountInString(plain) < minPasswordLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	}
	if len(plain) > maxPasswordBytes {
		errs = append(errs, fmt.Sprintf("Password must be at most %d bytes long", maxPasswordBytes))
	}
	if !lower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !upper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !digit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !special {
		errs = append(errs, "Password must contain at least one special character")
	}
	return StrengthResult{Valid: len(errs) == 0, Errors: errs}
}

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(digest), nil
}

// HashPassword hashes plain with bcrypt's default cost.
func HashPassword(plain string) (string, error) {
	return NewHasher(bcrypt.DefaultCost).Hash(plain)
}

// VerifyPassword reports whether plain matches digest. A malformed digest is
// a mismatch.
func VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

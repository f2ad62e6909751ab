// Package validation collects input validation failures so callers can report
// every violated rule at once.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Error carries the list of violated rules. It maps to HTTP 400.
type Error struct {
	Reasons []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// Reasons extracts the reasons from err when it wraps an *Error.
func Reasons(err error) ([]string, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Reasons, true
	}
	return nil, false
}

// New returns an *Error holding the given reasons.
func New(reasons ...string) error {
	return &Error{Reasons: reasons}
}

// Collector accumulates reasons. The zero value is ready to use.
type Collector struct {
	reasons []string
}

func (c *Collector) Add(format string, args ...any) {
	c.reasons = append(c.reasons, fmt.Sprintf(format, args...))
}

// Check records msg when ok is false.
func (c *Collector) Check(ok bool, msg string) {
	if !ok {
		c.reasons = append(c.reasons, msg)
	}
}

func (c *Collector) Required(field, value string) {
	c.Check(strings.TrimSpace(value) != "", field+" is required")
}

func (c *Collector) MinLen(field, value string, n int) {
	c.Check(utf8.RuneCountInString(strings.TrimSpace(value)) >= n,
		fmt.Sprintf("%s must be at least %d characters", field, n))
}

func (c *Collector) Email(field, value string) {
	c.Check(IsEmail(value), field+" must be a valid email")
}

func (c *Collector) UUID(field, value string) {
	c.Check(IsUUID(value), field+" must be a valid uuid")
}

func (c *Collector) URL(field, value string) {
	c.Check(IsURL(value), field+" must be a valid URL")
}

func (c *Collector) Positive(field string, v float64) {
	c.Check(v > 0, field+" must be positive")
}

// Err returns an *Error when any reason was recorded, nil otherwise.
func (c *Collector) Err() error {
	if len(c.reasons) == 0 {
		return nil
	}
	out := make([]string, len(c.reasons))
	copy(out, c.reasons)
	return &Error{Reasons: out}
}

func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}

// ParseTime parses an RFC 3339 timestamp.
func ParseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, New(field + " must be an RFC 3339 date-time")
	}
	return t, nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

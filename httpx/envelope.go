// Package httpx holds the JSON response envelope and request decoding helpers
// shared by the HTTP handlers and middleware.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const maxBodyBytes = 1 << 20

// MaxPage bounds the page query parameter so page*pageSize stays a sane
// OFFSET.
const MaxPage = 10000

// Envelope is the uniform response body.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrMalformedBody is returned by DecodeJSON for unreadable or non-JSON bodies.
var ErrMalformedBody = errors.New("httpx: malformed request body")

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes {success:true, data}.
func OK(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

// Message writes {success:true, message}.
func Message(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Success: true, Message: msg})
}

// Fail writes {success:false, error}.
func Fail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Success: false, Error: msg})
}

// FailDetails writes {success:false, error, details}.
func FailDetails(w http.ResponseWriter, status int, msg string, details any) {
	WriteJSON(w, status, Envelope{Success: false, Error: msg, Details: details})
}

// Internal writes the generic 500 body. The cause is never exposed.
func Internal(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, "Internal server error")
}

// DecodeJSON reads a JSON object from the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrMalformedBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// Page reads page and pageSize query parameters, applying defaults and
// upper bounds on both.
func Page(r *http.Request, defaultSize, maxSize int) (page, pageSize int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	pageSize, _ = strconv.Atoi(q.Get("pageSize"))
	if pageSize < 1 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

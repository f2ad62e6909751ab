package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOK_OmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "error")
	assert.NotContains(t, body, "message")
}

func TestFailDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailDetails(rec, http.StatusBadRequest, "Validation failed", []string{"a", "b"})

	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["error"])
	assert.Len(t, body["details"], 2)
}

func TestInternal_Generic(t *testing.T) {
	rec := httptest.NewRecorder()
	Internal(rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeEnvelope(t, rec)["error"])
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "a@b.co", dst.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{nope`))
	assert.True(t, errors.Is(DecodeJSON(req, &dst), ErrMalformedBody))
}

func TestPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&pageSize=500", nil)
	page, size := Page(req, 10, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&pageSize=x", nil)
	page, size = Page(req, 10, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	req = httptest.NewRequest(http.MethodGet, "/?page=9223372036854775807&pageSize=100", nil)
	page, size = Page(req, 10, 100)
	assert.Equal(t, MaxPage, page)
	assert.Equal(t, 100, size)
	assert.Positive(t, (page-1)*size)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"repfy/httpx"
)

type ctxKey int

const ctxKeyClaims ctxKey = iota

// AccessVerifier validates bearer tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (Claims, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" access
// token and stores the verified claims in the request context.
func RequireAuth(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				httpx.Fail(w, http.StatusUnauthorized, "No token provided")
				return
			}

			claims, err := verifier.VerifyAccess(strings.TrimSpace(token))
			if err != nil {
				httpx.Fail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole allows only the listed roles. It must run inside RequireAuth.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				httpx.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				httpx.Fail(w, http.StatusForbidden, "Forbidden - Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(Claims)
	return claims, ok
}

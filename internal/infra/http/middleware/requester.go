package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// UserIDHeader is set by the upstream gateway after authenticating the caller.
const UserIDHeader = "X-User-ID"

type requesterKey struct{}

// RequireUser rejects requests without a requester id with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if id == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "UNAUTHORIZED",
				"message": "missing " + UserIDHeader + " header",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), id)))
	})
}

// OptionalUser stores the requester id when present and never rejects.
func OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
			r = r.WithContext(WithRequester(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func WithRequester(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requesterKey{}, id)
}

// Requester returns the requester id, or "" for anonymous callers.
func Requester(ctx context.Context) string {
	id, _ := ctx.Value(requesterKey{}).(string)
	return id
}

package middleware

import (
	"context"
	"net/http"

	"github.com/mzhao/parley/internal/auth"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const CookieName = "user_id"

// Auth resolves the signed user_id cookie and places the user id in the
// request context. Requests without a valid cookie are rejected.
func Auth(signer *auth.CookieSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := signer.Verify(cookie.Value)
			if err != nil || userID == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id stored by Auth, or "".
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(UserIDKey).(string)
	return id
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	appLog "present-os-backend/internal/log"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// Middleware guards handlers with the session JWT from the Authorization
// header.
type Middleware struct {
	secret []byte
}

func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			unauthorized(w, "missing token")
			return
		}

		userID, err := ParseToken(m.secret, strings.TrimSpace(raw))
		if err != nil {
			appLog.Debug("rejected bearer token", "path", r.URL.Path, "reason", err.Error())
			unauthorized(w, "invalid token")
			return
		}

		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

// unauthorized uses the same body shape as the action errors.
func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "kind": "unauthorized"})
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	uid, ok := ctx.Value(userIDKey).(int)
	return uid, ok && uid > 0
}

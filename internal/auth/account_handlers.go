package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"

	appLog "present-os-backend/internal/log"
)

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// stateless JWT: the client drops the token
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}

// DeleteAccountHandler removes the user with their goals, analytics events
// and stored calendar credential.
func DeleteAccountHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tx, err := dbx.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback() }()

		for _, stmt := range []struct{ what, sql string }{
			{"goals", `DELETE FROM goals WHERE user_id = $1`},
			{"analytics_events", `DELETE FROM analytics_events WHERE user_id = $1`},
			{"user", `DELETE FROM users WHERE id = $1`},
		} {
			if _, err := tx.ExecContext(r.Context(), stmt.sql, uid); err != nil {
				appLog.Error("delete account", err, "step", stmt.what, "user_id", uid)
				http.Error(w, "delete "+stmt.what+" failed", http.StatusInternalServerError)
				return
			}
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}

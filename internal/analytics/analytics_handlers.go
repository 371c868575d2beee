package analytics

import (
	"context"
	"encoding/json"
	"net/http"

	"present-os-backend/internal/auth"
)

// EventLogger is satisfied by *Recorder.
type EventLogger interface {
	Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string)
}

// AppOpenedHandler records app_opened for the authenticated user.
func AppOpenedHandler(events EventLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			ColdStart bool   `json:"cold_start"`
			From      string `json:"from"` // push/deeplink/icon/unknown
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		env := FromRequest(r)
		env.UserID = uid

		events.Log(r.Context(), env, "app_opened", map[string]any{
			"cold_start": body.ColdStart,
			"from":       body.From,
		}, SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	appLog "present-os-backend/internal/log"
)

// OAuthProvider is the consent half of calendar.Client.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (accessToken, refreshToken string, err error)
}

type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

type CredentialStore interface {
	Get(ctx context.Context, userID int) (string, bool, error)
	Put(ctx context.Context, userID int, encrypted string) error
}

// Google serves the calendar consent flow. Refresh tokens are encrypted
// before they reach the store.
type Google struct {
	Secret      []byte
	Provider    OAuthProvider
	Cipher      Encrypter
	Credentials CredentialStore
	FrontendURL string
}

// LoginHandler returns the consent URL, or permission_granted when a
// credential is already stored and the client only asked for a check
// (?permission=true).
func (g Google) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if r.URL.Query().Get("permission") == "true" {
			_, has, err := g.Credentials.Get(r.Context(), uid)
			if err != nil {
				appLog.Error("google login: read credential", err, "user_id", uid)
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			if has {
				writeJSON(w, map[string]any{"status": "permission_granted"})
				return
			}
		}

		state, err := GenerateStateToken(g.Secret, uid)
		if err != nil {
			appLog.Error("google login: sign state", err, "user_id", uid)
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]any{
			"status":   "permission_needed",
			"auth_url": g.Provider.AuthURL(state),
		})
	}
}

// CallbackHandler finishes consent and redirects back to the frontend with
// success or error query parameters.
func (g Google) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if e := q.Get("error"); e != "" {
			g.redirect(w, r, url.Values{"success": {"false"}, "error": {e}})
			return
		}

		uid, err := ParseStateToken(g.Secret, q.Get("state"))
		if err != nil {
			appLog.Warn("google callback: bad state", "reason", err.Error())
			g.redirect(w, r, url.Values{"success": {"false"}, "error": {"invalid_state"}})
			return
		}

		code := q.Get("code")
		if code == "" {
			g.redirect(w, r, url.Values{"success": {"false"}, "error": {"missing_code"}})
			return
		}

		_, refresh, err := g.Provider.Exchange(r.Context(), code)
		if err != nil {
			appLog.Error("google callback: exchange code", err, "user_id", uid)
			g.redirect(w, r, url.Values{"success": {"false"}, "error": {"exchange_failed"}})
			return
		}

		// Google omits the refresh token when consent was already given
		if refresh == "" {
			g.redirect(w, r, url.Values{"success": {"true"}, "message": {"already_authed"}})
			return
		}

		enc, err := g.Cipher.Encrypt(refresh)
		if err != nil {
			appLog.Error("google callback: encrypt credential", err, "user_id", uid)
			g.redirect(w, r, url.Values{"success": {"false"}, "error": {"encryption_failed"}})
			return
		}
		if err := g.Credentials.Put(r.Context(), uid, enc); err != nil {
			appLog.Error("google callback: store credential", err, "user_id", uid)
			g.redirect(w, r, url.Values{"success": {"false"}, "error": {"storage_failed"}})
			return
		}

		appLog.Info("calendar access granted", "user_id", uid)
		g.redirect(w, r, url.Values{"success": {"true"}})
	}
}

func (g Google) redirect(w http.ResponseWriter, r *http.Request, v url.Values) {
	target := g.FrontendURL
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target+"?"+v.Encode(), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

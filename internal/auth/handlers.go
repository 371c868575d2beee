package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	appLog "present-os-backend/internal/log"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func RegisterHandler(dbx *sql.DB, secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Email == "" || body.Password == "" {
			http.Error(w, "email & password required", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "password rejected", http.StatusBadRequest)
			return
		}

		var id int
		err = dbx.QueryRowContext(r.Context(), `
			INSERT INTO users (email, password)
			VALUES ($1, $2)
			RETURNING id
		`, body.Email, string(hash)).Scan(&id)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				http.Error(w, "email already exists", http.StatusConflict)
				return
			}
			appLog.Error("register: insert user", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		writeSession(w, secret, id)
	}
}

func LoginHandler(dbx *sql.DB, secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var (
			id   int
			hash string
		)
		err := dbx.QueryRowContext(r.Context(), `
			SELECT id, password FROM users WHERE email = $1
		`, strings.ToLower(strings.TrimSpace(body.Email))).Scan(&id, &hash)
		if err != nil {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}

		writeSession(w, secret, id)
	}
}

func MeHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var (
			email    string
			hasToken bool
		)
		err := dbx.QueryRowContext(r.Context(), `
			SELECT email, COALESCE(google_refresh_token, '') <> ''
			FROM users WHERE id = $1
		`, uid).Scan(&email, &hasToken)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user_id":            uid,
			"email":              email,
			"calendar_connected": hasToken,
		})
	}
}

func writeSession(w http.ResponseWriter, secret []byte, userID int) {
	token, err := GenerateToken(secret, userID)
	if err != nil {
		appLog.Error("sign session token", err, "user_id", userID)
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"user_id": userID,
		"token":   token,
	})
}

package goals

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"present-os-backend/internal/analytics"
	"present-os-backend/internal/auth"
	appLog "present-os-backend/internal/log"
)

// Repository is satisfied by *Store.
type Repository interface {
	Get(ctx context.Context, userID int, goalID string) (Goal, bool, error)
	List(ctx context.Context, userID int) ([]Goal, error)
	Create(ctx context.Context, userID int, in CreateInput) (Goal, error)
}

const maxNameLen = 200

func CreateGoalHandler(repo Repository, events analytics.EventLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body CreateInput
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(body.Name)
		if name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if len(name) > maxNameLen {
			http.Error(w, "name is too long", http.StatusBadRequest)
			return
		}

		g, err := repo.Create(r.Context(), uid, body)
		if err != nil {
			appLog.Error("create goal", err, "user_id", uid)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		// analytics: goal_created, lengths only
		{
			env := analytics.FromRequest(r)
			env.UserID = uid

			descLen := 0
			if g.Description != nil {
				descLen = len(*g.Description)
			}

			events.Log(r.Context(), env, "goal_created", map[string]any{
				"goal_id":    g.ID,
				"name_len":   len(g.Name),
				"desc_len":   descLen,
				"has_avatar": g.Avatar != nil,
			}, analytics.SourceEventKeyFromRequest(r))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(g)
	}
}

func ListGoalsHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := repo.List(r.Context(), uid)
		if err != nil {
			appLog.Error("list goals", err, "user_id", uid)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// GetGoalHandler serves /goals/{id}.
func GetGoalHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/goals/"), "/")
		if id == "" {
			http.Error(w, "goal id required", http.StatusBadRequest)
			return
		}

		g, found, err := repo.Get(r.Context(), uid, id)
		if err != nil {
			appLog.Error("get goal", err, "user_id", uid, "goal_id", id)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "no goal", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(g)
	}
}

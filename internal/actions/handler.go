package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"present-os-backend/internal/ai"
	"present-os-backend/internal/analytics"
	"present-os-backend/internal/apperr"
	"present-os-backend/internal/auth"
	appLog "present-os-backend/internal/log"
)

type Runner interface {
	Run(ctx context.Context, userID int, req Request) (Result, error)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Stage string `json:"stage,omitempty"`
}

// Handler serves POST /actions. The pipeline runs on a context detached from
// client cancellation: a disconnect does not abort a half-finished run.
func Handler(p Runner, events analytics.EventLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("invalid json"))
			return
		}
		req.TaskType = strings.TrimSpace(req.TaskType)
		if req.TaskType == "" {
			writeError(w, apperr.Validation("task_type is required"))
			return
		}
		if req.TaskType == ai.TaskSchedule {
			code, ok := ai.ParsePersonality(req.Payload.Personality)
			if !ok {
				writeError(w, apperr.Validation("personality must be one of P, A, E, I"))
				return
			}
			req.Payload.Personality = string(code)
		}

		appLog.Info("action received",
			"request_id", requestID,
			"user_id", uid,
			"task_type", req.TaskType,
			"prompt_len", len(req.Payload.TaskPrompt),
		)

		ctx := context.WithoutCancel(r.Context())
		res, err := p.Run(ctx, uid, req)

		env := analytics.FromRequest(r)
		env.UserID = uid
		if err != nil {
			ae, _ := apperr.As(err)
			props := map[string]any{
				"task_type": req.TaskType,
				"kind":      string(apperr.KindOf(err)),
			}
			if ae != nil {
				props["stage"] = ae.Stage
			}
			events.Log(ctx, env, "task_schedule_failed", props, "")
			writeError(w, err)
			return
		}

		events.Log(ctx, env, "task_scheduled", map[string]any{
			"goal_id":            req.Payload.GoalID,
			"personality":        req.Payload.Personality,
			"duration_minutes":   res.Plan.DurationMinutes,
			"recurrence_applied": res.RecurrenceApplied,
			"time_fallback":      res.Schedule.FellBack,
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(res)
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), Kind: string(apperr.KindOf(err))}
	if ae, ok := apperr.As(err); ok {
		body.Error = ae.Message
		body.Stage = ae.Stage
	}
	if apperr.KindOf(err) == apperr.KindInternal {
		body.Error = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(apperr.KindOf(err)))
	_ = json.NewEncoder(w).Encode(body)
}

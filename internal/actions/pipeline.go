// Package actions runs a user's action request through goal lookup, plan
// generation, credential recovery, scheduling and event creation.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"present-os-backend/internal/ai"
	"present-os-backend/internal/apperr"
	"present-os-backend/internal/calendar"
	"present-os-backend/internal/goals"
	appLog "present-os-backend/internal/log"
	"present-os-backend/internal/metrics"
	"present-os-backend/internal/schedule"
	"present-os-backend/internal/security"
)

const (
	StageResolveGoal       = "resolve_goal"
	StageGeneratePlan      = "generate_plan"
	StageRecoverCredential = "recover_credential"
	StageResolveSchedule   = "resolve_schedule"
	StageCreateEvent       = "create_event"
)

type GoalStore interface {
	Get(ctx context.Context, userID int, goalID string) (goals.Goal, bool, error)
}

type TokenStore interface {
	Get(ctx context.Context, userID int) (string, bool, error)
}

type Decrypter interface {
	Decrypt(encoded string) (string, error)
}

type EventCreator interface {
	CreateEvent(ctx context.Context, refreshToken string, in calendar.EventInput) (calendar.CreatedEvent, error)
}

type SkillRouter interface {
	Execute(ctx context.Context, taskType string, userID int, payload ai.Payload) (ai.Output, error)
}

type SchedulePayload struct {
	TaskPrompt  string `json:"task_prompt"`
	GoalID      string `json:"goal_id"`
	Personality string `json:"personality"`
}

type Request struct {
	TaskType string          `json:"task_type"`
	Payload  SchedulePayload `json:"payload"`
}

type Result struct {
	Message           string `json:"message"`
	EventTitle        string `json:"event_title"`
	EventLink         string `json:"event_link"`
	RecurrenceApplied bool   `json:"recurrence_applied"`

	Plan     ai.EventPlan      `json:"-"`
	Schedule schedule.Resolved `json:"-"`
}

type Deps struct {
	Goals    GoalStore
	Tokens   TokenStore
	Cipher   Decrypter
	Router   SkillRouter
	Calendar EventCreator
	Metrics  *metrics.Pipeline
}

type Pipeline struct {
	goals    GoalStore
	tokens   TokenStore
	cipher   Decrypter
	router   SkillRouter
	calendar EventCreator
	metrics  *metrics.Pipeline
	now      func() time.Time
}

func NewPipeline(d Deps) *Pipeline {
	return &Pipeline{
		goals:    d.Goals,
		tokens:   d.Tokens,
		cipher:   d.Cipher,
		router:   d.Router,
		calendar: d.Calendar,
		metrics:  d.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes the stages in order and stops at the first failure. Every
// returned error is an *apperr.Error tagged with the failing stage. Nothing
// is retried or rolled back.
func (p *Pipeline) Run(ctx context.Context, userID int, req Request) (Result, error) {
	var (
		goal  goals.Goal
		plan  ai.EventPlan
		token string
		sched schedule.Resolved
		event calendar.CreatedEvent
	)

	steps := []struct {
		stage string
		fn    func() error
	}{
		{StageResolveGoal, func() (err error) {
			goal, err = p.resolveGoal(ctx, userID, req.Payload.GoalID)
			return err
		}},
		{StageGeneratePlan, func() (err error) {
			plan, err = p.generatePlan(ctx, userID, req, goal)
			return err
		}},
		{StageRecoverCredential, func() (err error) {
			token, err = p.recoverCredential(ctx, userID)
			return err
		}},
		{StageResolveSchedule, func() (err error) {
			sched, err = schedule.Resolve(plan, p.now())
			if err == nil && sched.FellBack {
				p.metrics.TimeFallback()
			}
			return err
		}},
		{StageCreateEvent, func() (err error) {
			event, err = p.createEvent(ctx, token, plan, sched)
			return err
		}},
	}

	for _, s := range steps {
		started := time.Now()
		err := s.fn()
		p.metrics.ObserveStage(s.stage, time.Since(started))
		if err != nil {
			return Result{}, p.fail(userID, s.stage, err)
		}
	}

	p.metrics.Succeeded()
	appLog.Info("event scheduled",
		"user_id", userID,
		"goal_id", goal.ID,
		"event_id", event.ID,
		"recurring", sched.Recurrence != nil,
	)

	title := event.Summary
	if title == "" {
		title = plan.Title
	}

	return Result{
		Message:           "Task scheduled successfully",
		EventTitle:        title,
		EventLink:         event.HTMLLink,
		RecurrenceApplied: sched.Recurrence != nil,
		Plan:              plan,
		Schedule:          sched,
	}, nil
}

func (p *Pipeline) resolveGoal(ctx context.Context, userID int, goalID string) (goals.Goal, error) {
	if goalID == "" {
		return goals.Goal{}, apperr.Validation("goal_id is required")
	}
	g, ok, err := p.goals.Get(ctx, userID, goalID)
	if err != nil {
		return goals.Goal{}, apperr.Upstream("goal lookup failed", err)
	}
	if !ok {
		return goals.Goal{}, apperr.NotFound(fmt.Sprintf("goal %s not found", goalID))
	}
	return g, nil
}

func (p *Pipeline) generatePlan(ctx context.Context, userID int, req Request, goal goals.Goal) (ai.EventPlan, error) {
	out, err := p.router.Execute(ctx, req.TaskType, userID, ai.Payload{
		TaskPrompt:  req.Payload.TaskPrompt,
		Goal:        &goal,
		Personality: ai.Personality(req.Payload.Personality),
	})
	if err != nil {
		return ai.EventPlan{}, err
	}

	// only scheduling output has an execution branch here
	plan, ok := out.Data.(ai.EventPlan)
	if req.TaskType != ai.TaskSchedule || !ok {
		return ai.EventPlan{}, apperr.New(apperr.KindNoOutput, "action executed but no output was produced")
	}
	return plan, nil
}

func (p *Pipeline) recoverCredential(ctx context.Context, userID int) (string, error) {
	encrypted, ok, err := p.tokens.Get(ctx, userID)
	if err != nil {
		return "", apperr.Upstream("credential lookup failed", err)
	}
	if !ok {
		appLog.Warn("calendar not authorized", "user_id", userID)
		return "", apperr.Unauthorized("user has not granted calendar access")
	}

	token, err := p.cipher.Decrypt(encrypted)
	if err != nil {
		// the crypto reason stays in the log only
		appLog.Error("stored calendar credential failed to decrypt", err, "user_id", userID)
		if security.IsCryptoError(err) {
			return "", apperr.Wrap(apperr.KindUnauthorized, "calendar credential could not be decrypted; re-authorize", err)
		}
		return "", apperr.Wrap(apperr.KindInternal, "calendar credential could not be read", err)
	}
	if token == "" {
		appLog.Warn("stored calendar credential decrypted to nothing", "user_id", userID)
		return "", apperr.Unauthorized("calendar credential could not be decrypted; re-authorize")
	}
	return token, nil
}

func (p *Pipeline) createEvent(ctx context.Context, token string, plan ai.EventPlan, sched schedule.Resolved) (calendar.CreatedEvent, error) {
	ev, err := p.calendar.CreateEvent(ctx, token, calendar.EventInput{
		Title:       plan.Title,
		Description: plan.Description,
		Start:       sched.Start,
		End:         sched.End,
		Recurrence:  sched.Recurrence,
	})
	if err != nil {
		reason := err.Error()
		var apiErr *calendar.APIError
		if errors.As(err, &apiErr) {
			reason = apiErr.Reason
		}
		return calendar.CreatedEvent{}, apperr.Upstream("calendar event creation failed: "+reason, err)
	}
	return ev, nil
}

func (p *Pipeline) fail(userID int, stage string, err error) error {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Wrap(apperr.KindInternal, err.Error(), err)
	}
	ae = ae.WithStage(stage)

	p.metrics.Failed(ae.Stage, string(ae.Kind))
	appLog.Warn("action failed",
		"user_id", userID,
		"stage", ae.Stage,
		"kind", string(ae.Kind),
		"reason", ae.Message,
	)
	return ae
}

package ai

import (
	"context"
	"time"

	"present-os-backend/internal/apperr"
	"present-os-backend/internal/goals"
	appLog "present-os-backend/internal/log"
)

const TaskSchedule = "schedule_task"

// SchedulingSkill turns a task prompt into an EventPlan through one model call.
type SchedulingSkill struct {
	gen TextGenerator
	now func() time.Time
}

func NewSchedulingSkill(gen TextGenerator) *SchedulingSkill {
	return &SchedulingSkill{
		gen: gen,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *SchedulingSkill) Name() string {
	return TaskSchedule
}

// Execute implements Skill.
func (s *SchedulingSkill) Execute(ctx context.Context, userID int, payload Payload) (any, error) {
	if payload.TaskPrompt == "" || payload.Goal == nil || payload.Personality == "" {
		return nil, apperr.Validation("missing fields for schedule_task: task_prompt, goal and personality are required")
	}
	return s.GeneratePlan(ctx, payload.TaskPrompt, *payload.Goal, payload.Personality)
}

func (s *SchedulingSkill) GeneratePlan(ctx context.Context, taskPrompt string, goal goals.Goal, p Personality) (EventPlan, error) {
	system := BuildSystemPrompt(goal, p, s.now())
	user := BuildUserPrompt(taskPrompt)

	if _, ok := OverlayFor(p); !ok {
		appLog.Warn("unknown personality, using base prompt", "personality", string(p))
	}

	text, err := s.gen.Generate(ctx, system, user)
	if err != nil {
		return EventPlan{}, apperr.Upstream("ai text generation failed: "+err.Error(), err)
	}

	plan, err := ParsePlan(text)
	if err != nil {
		appLog.Warn("ai response rejected", "goal_id", goal.ID, "response_len", len(text), "reason", err.Error())
		return EventPlan{}, err
	}

	appLog.Debug("ai plan generated",
		"goal_id", goal.ID,
		"personality", string(p),
		"duration_minutes", plan.DurationMinutes,
		"has_recurrence", plan.RecurrenceRule != nil,
	)
	return plan, nil
}

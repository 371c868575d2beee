package ai

import (
	"context"
	"fmt"

	"present-os-backend/internal/apperr"
	"present-os-backend/internal/goals"
)

// Payload is what the action layer hands to a skill.
type Payload struct {
	TaskPrompt  string
	Goal        *goals.Goal
	Personality Personality
}

type Skill interface {
	Name() string
	Execute(ctx context.Context, userID int, payload Payload) (any, error)
}

type Output struct {
	Skill string `json:"skill"`
	Data  any    `json:"data"`
}

// Router dispatches by task type. Skills are registered at startup; the
// registry is read-only while serving.
type Router struct {
	skills map[string]Skill
}

func NewRouter(skills ...Skill) *Router {
	r := &Router{skills: make(map[string]Skill, len(skills))}
	for _, s := range skills {
		r.Register(s)
	}
	return r
}

func (r *Router) Register(s Skill) {
	r.skills[s.Name()] = s
}

func (r *Router) Has(taskType string) bool {
	_, ok := r.skills[taskType]
	return ok
}

func (r *Router) Execute(ctx context.Context, taskType string, userID int, payload Payload) (Output, error) {
	skill, ok := r.skills[taskType]
	if !ok {
		return Output{}, apperr.NotFound(fmt.Sprintf("ai task_type '%s' not found", taskType))
	}

	data, err := skill.Execute(ctx, userID, payload)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return Output{}, err
		}
		return Output{}, apperr.Upstream(fmt.Sprintf("error in %s skill: %v", taskType, err), err)
	}
	return Output{Skill: skill.Name(), Data: data}, nil
}

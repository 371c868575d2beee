package ai

import (
	"fmt"
	"strings"
	"time"

	"present-os-backend/internal/goals"
)

// BuildSystemPrompt renders the goal context, the current time, the output
// contract and the personality overlay. Unknown personalities get the base
// prompt only.
func BuildSystemPrompt(goal goals.Goal, p Personality, now time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf(scheduleSystemPrompt,
		goal.Name,
		valueOr(goal.Avatar, "Default"),
		valueOr(goal.Description, "None"),
		now.UTC().Format(time.RFC3339),
	))

	if o, ok := OverlayFor(p); ok {
		b.WriteString(o.Render())
	}

	return b.String()
}

func BuildUserPrompt(taskPrompt string) string {
	return fmt.Sprintf("The user wants to schedule this task: '%s'", strings.TrimSpace(taskPrompt))
}

func valueOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

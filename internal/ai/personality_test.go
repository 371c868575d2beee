package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"present-os-backend/internal/goals"
)

func TestParsePersonality(t *testing.T) {
	for _, in := range []string{"P", "a", " e ", "I"} {
		p, ok := ParsePersonality(in)
		assert.True(t, ok, in)
		assert.Equal(t, Personality(strings.ToUpper(strings.TrimSpace(in))), p)
	}
	_, ok := ParsePersonality("X")
	assert.False(t, ok)
}

func TestOverlayTable(t *testing.T) {
	cases := []struct {
		p          Personality
		header     string
		scheduling string
		recurrence string
	}{
		{Producer, "YOUR PERSONALITY IS (P)RODUCER:", "soonest logical time", "AVOID recurrence"},
		{Administrator, "YOUR PERSONALITY IS (A)DMINISTRATOR:", "standard time", "FREQ=WEEKLY;BYDAY=MO"},
		{Entrepreneur, "YOUR PERSONALITY IS (E)NTREPRENEUR:", "buffer time", "FREQ=DAILY;COUNT=7"},
		{Integrator, "YOUR PERSONALITY IS (I)NTEGRATOR:", "low-stress time", "FREQ=WEEKLY;BYDAY=MO,WE,FR"},
	}
	for _, tc := range cases {
		t.Run(string(tc.p), func(t *testing.T) {
			o, ok := OverlayFor(tc.p)
			require.True(t, ok)
			out := o.Render()
			assert.True(t, strings.HasPrefix(out, tc.header), out)
			assert.Contains(t, out, tc.scheduling)
			assert.Contains(t, out, tc.recurrence)
		})
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	desc := "Run a marathon"
	goal := goals.Goal{ID: "g1", Name: "Get Healthy", Description: &desc}
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	out := BuildSystemPrompt(goal, Integrator, now)
	assert.Contains(t, out, "GOAL NAME: Get Healthy")
	assert.Contains(t, out, "GOAL AVATAR: Default")
	assert.Contains(t, out, "GOAL DESCRIPTION: Run a marathon")
	assert.Contains(t, out, "2025-06-01T08:30:00Z")
	assert.Contains(t, out, `"recurrence_rrule"`)
	assert.Contains(t, out, "(I)NTEGRATOR")
}

func TestBuildSystemPromptUnknownPersonalityHasNoOverlay(t *testing.T) {
	out := BuildSystemPrompt(goals.Goal{Name: "g"}, Personality("Z"), time.Now())
	assert.NotContains(t, out, "YOUR PERSONALITY IS")
	assert.Contains(t, out, "GOAL DESCRIPTION: None")
}

func TestBuildUserPrompt(t *testing.T) {
	assert.Equal(t, "The user wants to schedule this task: 'go to the gym'", BuildUserPrompt("  go to the gym "))
}

package ai

import (
	"strings"
)

// Personality is one of the four PAEI archetypes.
type Personality string

const (
	Producer      Personality = "P"
	Administrator Personality = "A"
	Entrepreneur  Personality = "E"
	Integrator    Personality = "I"
)

// ParsePersonality accepts a code in either case.
func ParsePersonality(s string) (Personality, bool) {
	p := Personality(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := overlays[p]
	return p, ok
}

// Overlay is the behavioral block appended to the base system prompt.
type Overlay struct {
	Code       Personality
	Name       string
	Focus      string
	Tone       string
	Job        string
	Scheduling string
	Recurrence string
}

var overlays = map[Personality]Overlay{
	Producer: {
		Code:       Producer,
		Name:       "Producer",
		Focus:      "Short-term Effectiveness.",
		Tone:       "Direct, action-oriented, urgent.",
		Job:        "Get this task done NOW. The title should be punchy.",
		Scheduling: "Be aggressive. Schedule it for the soonest logical time.",
		Recurrence: `AVOID recurrence unless the task explicitly says "every day". Focus on THIS task.`,
	},
	Administrator: {
		Code:       Administrator,
		Name:       "Administrator",
		Focus:      "Short-term Efficiency.",
		Tone:       "Systematic, organized, precise.",
		Job:        "Schedule this task logically. The title must be clear and structured.",
		Scheduling: "Be systematic. Schedule it at a standard time (e.g., 9:00 AM, 2:00 PM).",
		Recurrence: `If the task is a 'review', 'planning', or 'report', suggest a logical weekly recurrence (e.g., "FREQ=WEEKLY;BYDAY=MO").`,
	},
	Entrepreneur: {
		Code:       Entrepreneur,
		Name:       "Entrepreneur",
		Focus:      "Long-term Effectiveness.",
		Tone:       "Visionary, creative, inspiring.",
		Job:        "Frame this task as a step towards a bigger future. The title should be inspiring.",
		Scheduling: `Be strategic. Give the user buffer time. Maybe schedule it for tomorrow to "prepare".`,
		Recurrence: `If the task builds a habit (e.g., "learn", "practice", "gym"), suggest a bold recurring schedule (e.g., "FREQ=DAILY;COUNT=7") to build momentum.`,
	},
	Integrator: {
		Code:       Integrator,
		Name:       "Integrator",
		Focus:      "Long-term Efficiency (Harmony).",
		Tone:       "Collaborative, empathetic, supportive.",
		Job:        "Frame this task as an act of self-care or connection. The title should be gentle.",
		Scheduling: "Be flexible. Schedule it at a low-stress time, like end of day or on a weekend.",
		Recurrence: `If the task is for well-being (e.g., "meditation", "walk"), suggest a gentle, flexible schedule (e.g., "FREQ=WEEKLY;BYDAY=MO,WE,FR").`,
	},
}

func OverlayFor(p Personality) (Overlay, bool) {
	o, ok := overlays[p]
	return o, ok
}

// Render produces the prompt block, e.g. "YOUR PERSONALITY IS (P)RODUCER:".
func (o Overlay) Render() string {
	var b strings.Builder

	b.WriteString("YOUR PERSONALITY IS (")
	b.WriteString(string(o.Code))
	b.WriteString(")")
	b.WriteString(strings.ToUpper(o.Name[1:]))
	b.WriteString(":\n")

	b.WriteString("- Focus: " + o.Focus + "\n")
	b.WriteString("- Tone: " + o.Tone + "\n")
	b.WriteString("- Job: " + o.Job + "\n")
	b.WriteString("- Scheduling: " + o.Scheduling + "\n")
	b.WriteString("- Recurrence: " + o.Recurrence + "\n")

	return b.String()
}

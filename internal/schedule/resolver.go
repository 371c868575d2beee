// Package schedule turns an EventPlan into concrete UTC start/end times and
// an optional recurrence line for the calendar API.
package schedule

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"present-os-backend/internal/ai"
	"present-os-backend/internal/apperr"
	appLog "present-os-backend/internal/log"
)

// FallbackDelay is added to "now" when the model's start time is unusable.
const FallbackDelay = time.Minute

const rrulePrefix = "RRULE:"

// Resolved is the schedule handed to the calendar.
type Resolved struct {
	Start      time.Time
	End        time.Time
	Recurrence []string
	// FellBack is true when Start came from the fallback, not the plan.
	FellBack bool
}

// offset-less layouts are read as UTC
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseStart parses an ISO-8601 timestamp. A trailing "Z" means +00:00 and a
// missing offset means UTC, never local time.
func ParseStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "Z"
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Resolve computes the schedule relative to now. An unparsable start time
// falls back to now+1m; a duration outside 1..MaxDurationMinutes or an
// invalid RRULE is a validation error.
func Resolve(plan ai.EventPlan, now time.Time) (Resolved, error) {
	if plan.DurationMinutes <= 0 {
		return Resolved{}, apperr.Validationf("duration_minutes must be a positive integer, got %d", plan.DurationMinutes)
	}
	if plan.DurationMinutes > ai.MaxDurationMinutes {
		return Resolved{}, apperr.Validationf("duration_minutes must be at most %d, got %d", ai.MaxDurationMinutes, plan.DurationMinutes)
	}

	var out Resolved

	start, ok := ParseStart(plan.StartTime)
	if !ok {
		appLog.Warn("unparsable start time, using fallback", "start_time_iso", plan.StartTime)
		start = now.UTC().Add(FallbackDelay)
		out.FellBack = true
	}
	out.Start = start
	out.End = start.Add(time.Duration(plan.DurationMinutes) * time.Minute)

	if plan.RecurrenceRule != nil {
		line, err := RecurrenceLine(*plan.RecurrenceRule)
		if err != nil {
			return Resolved{}, err
		}
		if line != "" {
			out.Recurrence = []string{line}
		}
	}

	return out, nil
}

// ResolveNow is Resolve against the current UTC time.
func ResolveNow(plan ai.EventPlan) (Resolved, error) {
	return Resolve(plan, time.Now().UTC())
}

// RecurrenceLine validates rule and returns it as a single "RRULE:" line.
// A blank rule yields "".
func RecurrenceLine(rule string) (string, error) {
	rule = strings.TrimSpace(rule)
	if len(rule) >= len(rrulePrefix) && strings.EqualFold(rule[:len(rrulePrefix)], rrulePrefix) {
		rule = strings.TrimSpace(rule[len(rrulePrefix):])
	}
	if rule == "" {
		return "", nil
	}
	if _, err := rrule.StrToROption(rule); err != nil {
		return "", apperr.Validationf("invalid recurrence rule %q: %v", rule, err)
	}
	return rrulePrefix + rule, nil
}

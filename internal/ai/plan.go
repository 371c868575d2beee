package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"present-os-backend/internal/apperr"
)

const (
	KeyTitle           = "title"
	KeyDescription     = "description"
	KeyDurationMinutes = "duration_minutes"
	KeyStartTime       = "start_time_iso"
	KeyRecurrenceRule  = "recurrence_rrule"
)

// MaxDurationMinutes caps a single event at one week.
const MaxDurationMinutes = 7 * 24 * 60

// RequiredKeys must all be present in a model response.
var RequiredKeys = []string{KeyTitle, KeyDescription, KeyDurationMinutes, KeyStartTime}

// EventPlan is the structured event the model proposes.
type EventPlan struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	StartTime       string  `json:"start_time_iso"`
	RecurrenceRule  *string `json:"recurrence_rrule"`
}

// ParsePlan validates the shape of a model response. Only structure is
// checked; the contents are taken as given.
func ParsePlan(text string) (EventPlan, error) {
	fields, err := decodeObject(text)
	if err != nil {
		return EventPlan{}, apperr.Validationf("ai response is not a JSON object: %v", err)
	}

	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return EventPlan{}, apperr.Validationf("ai response missing required keys: %s", strings.Join(missing, ", "))
	}

	var plan EventPlan
	if err := json.Unmarshal(fields[KeyTitle], &plan.Title); err != nil {
		return EventPlan{}, apperr.Validationf("%s must be a string", KeyTitle)
	}
	if err := json.Unmarshal(fields[KeyDescription], &plan.Description); err != nil {
		return EventPlan{}, apperr.Validationf("%s must be a string", KeyDescription)
	}
	if err := json.Unmarshal(fields[KeyStartTime], &plan.StartTime); err != nil {
		return EventPlan{}, apperr.Validationf("%s must be a string", KeyStartTime)
	}

	plan.DurationMinutes, err = parseDuration(fields[KeyDurationMinutes])
	if err != nil {
		return EventPlan{}, apperr.Validationf("%s: %v", KeyDurationMinutes, err)
	}

	if raw, ok := fields[KeyRecurrenceRule]; ok {
		var rule *string
		if err := json.Unmarshal(raw, &rule); err != nil {
			return EventPlan{}, apperr.Validationf("%s must be a string or null", KeyRecurrenceRule)
		}
		if rule != nil && strings.TrimSpace(*rule) != "" {
			r := strings.TrimSpace(*rule)
			plan.RecurrenceRule = &r
		}
	}

	return plan, nil
}

// decodeObject decodes text as a JSON object, giving jsonrepair one chance
// when the strict decode fails (code fences, trailing commas, single quotes).
func decodeObject(text string) (map[string]json.RawMessage, error) {
	fields, err := unmarshalObject(text)
	if err == nil {
		return fields, nil
	}

	repaired, rerr := jsonrepair.JSONRepair(text)
	if rerr != nil {
		return nil, err
	}
	fields, rerr = unmarshalObject(repaired)
	if rerr != nil {
		return nil, err
	}
	return fields, nil
}

func unmarshalObject(text string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("null document")
	}
	return fields, nil
}

// parseDuration accepts a JSON number or a numeric string and truncates to
// whole minutes. Zero, negative and non-numeric values are rejected.
func parseDuration(raw json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}

	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return 0, fmt.Errorf("expected a number, got %s", string(raw))
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f > MaxDurationMinutes {
		return 0, fmt.Errorf("longer than %d minutes: %s", MaxDurationMinutes, s)
	}

	minutes := int(f)
	if minutes <= 0 {
		return 0, fmt.Errorf("must be a positive integer, got %s", s)
	}
	return minutes, nil
}

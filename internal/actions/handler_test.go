package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"present-os-backend/internal/analytics"
	"present-os-backend/internal/apperr"
	"present-os-backend/internal/auth"
)

type stubRunner struct {
	res    Result
	err    error
	got    Request
	ctxErr error
}

func (s *stubRunner) Run(ctx context.Context, _ int, req Request) (Result, error) {
	s.got = req
	s.ctxErr = ctx.Err()
	return s.res, s.err
}

type loggedEvent struct {
	name  string
	props any
}

type recordingLogger struct {
	events []loggedEvent
}

func (l *recordingLogger) Log(_ context.Context, _ analytics.Envelope, name string, props any, _ string) {
	l.events = append(l.events, loggedEvent{name: name, props: props})
}

func doAction(t *testing.T, h http.HandlerFunc, ctx context.Context, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

const validBody = `{"task_type":"schedule_task","payload":{"task_prompt":"meditate 5 minutes","goal_id":"g1","personality":"i"}}`

func TestHandlerCreated(t *testing.T) {
	runner := &stubRunner{res: Result{Message: "Task scheduled successfully", EventTitle: "Gentle meditation", EventLink: "https://x"}}
	events := &recordingLogger{}

	rec := doAction(t, Handler(runner, events), auth.WithUserID(context.Background(), 7), validBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{
		"message":            "Task scheduled successfully",
		"event_title":        "Gentle meditation",
		"event_link":         "https://x",
		"recurrence_applied": false,
	}, body)

	assert.Equal(t, "I", runner.got.Payload.Personality)
	require.Len(t, events.events, 1)
	assert.Equal(t, "task_scheduled", events.events[0].name)
}

func TestHandlerDetachesFromClientCancellation(t *testing.T) {
	runner := &stubRunner{}
	ctx, cancel := context.WithCancel(auth.WithUserID(context.Background(), 7))
	cancel()

	rec := doAction(t, Handler(runner, &recordingLogger{}), ctx, validBody)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, runner.ctxErr)
}

func TestHandlerMapsErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apperr.NotFound("goal g1 not found").WithStage(StageResolveGoal), http.StatusNotFound, "not_found"},
		{apperr.Unauthorized("user has not granted calendar access").WithStage(StageRecoverCredential), http.StatusUnauthorized, "unauthorized"},
		{apperr.Validation("bad plan").WithStage(StageGeneratePlan), http.StatusUnprocessableEntity, "validation_error"},
		{apperr.Upstream("calendar event creation failed: quota", nil).WithStage(StageCreateEvent), http.StatusBadGateway, "upstream_error"},
		{apperr.New(apperr.KindNoOutput, "action executed but no output was produced").WithStage(StageGeneratePlan), http.StatusBadRequest, "no_output"},
	}

	for _, tc := range cases {
		events := &recordingLogger{}
		rec := doAction(t, Handler(&stubRunner{err: tc.err}, events), auth.WithUserID(context.Background(), 7), validBody)
		assert.Equal(t, tc.status, rec.Code, tc.kind)

		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		ae, _ := apperr.As(tc.err)
		assert.Equal(t, tc.kind, body.Kind)
		assert.Equal(t, ae.Stage, body.Stage)
		assert.Equal(t, ae.Message, body.Error)

		require.Len(t, events.events, 1)
		assert.Equal(t, "task_schedule_failed", events.events[0].name)
	}
}

func TestHandlerRejectsBadInput(t *testing.T) {
	h := Handler(&stubRunner{}, &recordingLogger{})
	ctx := auth.WithUserID(context.Background(), 7)

	for _, body := range []string{
		`not json`,
		`{"payload":{}}`,
		`{"task_type":"schedule_task","payload":{"task_prompt":"x","goal_id":"g1","personality":"Z"}}`,
	} {
		rec := doAction(t, h, ctx, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestHandlerRequiresUser(t *testing.T) {
	rec := doAction(t, Handler(&stubRunner{}, &recordingLogger{}), context.Background(), validBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

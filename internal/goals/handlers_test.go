package goals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"present-os-backend/internal/analytics"
	"present-os-backend/internal/auth"
)

type memRepo struct {
	goals []Goal
	err   error
}

func (m *memRepo) Get(_ context.Context, userID int, goalID string) (Goal, bool, error) {
	for _, g := range m.goals {
		if g.ID == goalID && g.UserID == userID {
			return g, true, nil
		}
	}
	return Goal{}, false, m.err
}

func (m *memRepo) List(_ context.Context, userID int) ([]Goal, error) {
	out := []Goal{}
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, m.err
}

func (m *memRepo) Create(_ context.Context, userID int, in CreateInput) (Goal, error) {
	if m.err != nil {
		return Goal{}, m.err
	}
	g := Goal{
		ID:          "g" + string(rune('0'+len(m.goals))),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: trimmedOrNil(in.Description),
		Avatar:      trimmedOrNil(in.Avatar),
		CreatedAt:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	m.goals = append(m.goals, g)
	return g, nil
}

type eventNames []string

func (e *eventNames) Log(_ context.Context, _ analytics.Envelope, name string, _ any, _ string) {
	*e = append(*e, name)
}

func asUser(r *http.Request, uid int) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), uid))
}

func TestCreateGoal(t *testing.T) {
	repo := &memRepo{}
	var events eventNames

	req := asUser(httptest.NewRequest(http.MethodPost, "/goals", strings.NewReader(`{"name":"  Get Healthy ","description":"  "}`)), 3)
	rec := httptest.NewRecorder()
	CreateGoalHandler(repo, &events)(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Get Healthy", got.Name)
	assert.Nil(t, got.Description)
	assert.Equal(t, 3, got.UserID)
	assert.Equal(t, eventNames{"goal_created"}, events)
}

func TestCreateGoalValidation(t *testing.T) {
	for _, body := range []string{`nope`, `{"name":"   "}`, `{"name":"` + strings.Repeat("x", maxNameLen+1) + `"}`} {
		var events eventNames
		req := asUser(httptest.NewRequest(http.MethodPost, "/goals", strings.NewReader(body)), 3)
		rec := httptest.NewRecorder()
		CreateGoalHandler(&memRepo{}, &events)(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, events)
	}
}

func TestCreateGoalStoreError(t *testing.T) {
	var events eventNames
	req := asUser(httptest.NewRequest(http.MethodPost, "/goals", strings.NewReader(`{"name":"x"}`)), 3)
	rec := httptest.NewRecorder()
	CreateGoalHandler(&memRepo{err: errors.New("down")}, &events)(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, events)
}

func TestListAndGetGoalsAreScopedToUser(t *testing.T) {
	repo := &memRepo{goals: []Goal{
		{ID: "a", UserID: 1, Name: "mine"},
		{ID: "b", UserID: 2, Name: "theirs"},
	}}

	rec := httptest.NewRecorder()
	ListGoalsHandler(repo)(rec, asUser(httptest.NewRequest(http.MethodGet, "/goals", nil), 1))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "mine", list[0].Name)

	rec = httptest.NewRecorder()
	GetGoalHandler(repo)(rec, asUser(httptest.NewRequest(http.MethodGet, "/goals/a", nil), 1))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	GetGoalHandler(repo)(rec, asUser(httptest.NewRequest(http.MethodGet, "/goals/b", nil), 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoalHandlersRequireUser(t *testing.T) {
	for _, h := range []http.HandlerFunc{
		CreateGoalHandler(&memRepo{}, new(eventNames)),
		ListGoalsHandler(&memRepo{}),
		GetGoalHandler(&memRepo{}),
	} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/goals/a", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

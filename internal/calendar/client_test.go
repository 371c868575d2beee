package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGoogle struct {
	tokenStatus int
	tokenBody   string

	insertStatus int
	insertBody   string

	gotRefreshToken string
	gotAuth         string
	gotEvent        map[string]any
	inserts         int
}

func (f *fakeGoogle) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.gotRefreshToken = r.Form.Get("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		f.inserts++
		f.gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.gotEvent))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.insertStatus)
		_, _ = w.Write([]byte(f.insertBody))
	})
	return mux
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/callback",
		TokenURL:     srv.URL + "/token",
		APIEndpoint:  srv.URL + "/calendar/v3/",
	})
}

func okGoogle() *fakeGoogle {
	return &fakeGoogle{
		tokenStatus:  http.StatusOK,
		tokenBody:    `{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`,
		insertStatus: http.StatusOK,
		insertBody:   `{"id":"ev1","summary":"Gym","htmlLink":"https://calendar.google.com/event?eid=ev1"}`,
	}
}

func TestCreateEvent(t *testing.T) {
	fake := okGoogle()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	got, err := newTestClient(srv).CreateEvent(context.Background(), "refresh-1", EventInput{
		Title:       "Gym",
		Description: "For Get Healthy",
		Start:       start,
		End:         start.Add(45 * time.Minute),
		Recurrence:  []string{"RRULE:FREQ=DAILY;COUNT=5"},
	})
	require.NoError(t, err)

	assert.Equal(t, CreatedEvent{ID: "ev1", Summary: "Gym", HTMLLink: "https://calendar.google.com/event?eid=ev1"}, got)
	assert.Equal(t, "refresh-1", fake.gotRefreshToken)
	assert.Equal(t, "Bearer access-1", fake.gotAuth)
	assert.Equal(t, 1, fake.inserts)

	assert.Equal(t, "Gym", fake.gotEvent["summary"])
	assert.Equal(t, map[string]any{"dateTime": "2025-06-01T09:00:00Z", "timeZone": "UTC"}, fake.gotEvent["start"])
	assert.Equal(t, map[string]any{"dateTime": "2025-06-01T09:45:00Z", "timeZone": "UTC"}, fake.gotEvent["end"])
	assert.Equal(t, []any{"RRULE:FREQ=DAILY;COUNT=5"}, fake.gotEvent["recurrence"])
}

func TestCreateEventOneTimeHasNoRecurrence(t *testing.T) {
	fake := okGoogle()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	_, err := newTestClient(srv).CreateEvent(context.Background(), "refresh-1", EventInput{
		Title: "t", Start: start, End: start.Add(time.Minute),
	})
	require.NoError(t, err)
	_, has := fake.gotEvent["recurrence"]
	assert.False(t, has)
}

func TestCreateEventProviderError(t *testing.T) {
	fake := okGoogle()
	fake.insertStatus = http.StatusForbidden
	fake.insertBody = `{"error":{"code":403,"message":"Rate Limit Exceeded","errors":[{"reason":"rateLimitExceeded","message":"Rate Limit Exceeded"}]}}`
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	start := time.Now()
	_, err := newTestClient(srv).CreateEvent(context.Background(), "refresh-1", EventInput{Title: "t", Start: start, End: start.Add(time.Minute)})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Rate Limit Exceeded", apiErr.Reason)
}

func TestCreateEventRevokedRefreshToken(t *testing.T) {
	fake := okGoogle()
	fake.tokenStatus = http.StatusBadRequest
	fake.tokenBody = `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	start := time.Now()
	_, err := newTestClient(srv).CreateEvent(context.Background(), "refresh-1", EventInput{Title: "t", Start: start, End: start.Add(time.Minute)})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Reason, "invalid_grant")
	assert.Zero(t, fake.inserts)
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "code-1", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a","refresh_token":"r","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	c := NewClient(Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})
	access, refresh, err := c.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)
}

func TestExchangeWithoutRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	c := NewClient(Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})
	_, refresh, err := c.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestAuthURL(t *testing.T) {
	c := NewClient(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})
	raw := c.AuthURL("state-1")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "http://localhost/cb", q.Get("redirect_uri"))
	assert.True(t, strings.Contains(q.Get("scope"), "calendar.events"))
}

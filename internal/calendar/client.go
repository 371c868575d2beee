// Package calendar wraps the Google OAuth consent flow and event creation
// on the user's calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Scopes requested during consent: read/write on events only.
var Scopes = []string{gcal.CalendarEventsScope}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// CalendarID defaults to "primary".
	CalendarID string

	// Overrides for tests; empty means Google's endpoints.
	TokenURL    string
	APIEndpoint string
}

type Client struct {
	oauth      *oauth2.Config
	calendarID string
	endpoint   string
}

func NewClient(cfg Config) *Client {
	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	calID := cfg.CalendarID
	if calID == "" {
		calID = "primary"
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		calendarID: calID,
		endpoint:   cfg.APIEndpoint,
	}
}

// AuthURL is the consent page URL. Offline access plus forced consent makes
// Google return a refresh token.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens. An empty refresh token
// is not an error: Google omits it when the user already consented.
func (c *Client) Exchange(ctx context.Context, code string) (accessToken, refreshToken string, err error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", "", &APIError{Op: "exchange code", Reason: reasonOf(err), Err: err}
	}
	return tok.AccessToken, tok.RefreshToken, nil
}

type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	// Recurrence holds "RRULE:..." lines; nil for a one-time event.
	Recurrence []string
}

type CreatedEvent struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	HTMLLink string `json:"html_link"`
}

// APIError is any failure talking to Google, with the provider's reason.
type APIError struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google calendar %s: %s", e.Op, e.Reason)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// CreateEvent mints an access token from refreshToken and inserts the event.
// The refresh token is used in memory only.
func (c *Client) CreateEvent(ctx context.Context, refreshToken string, in EventInput) (CreatedEvent, error) {
	httpClient := c.oauth.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := c.service(ctx, httpClient)
	if err != nil {
		return CreatedEvent{}, &APIError{Op: "create service", Reason: err.Error(), Err: err}
	}

	ev := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Start: &gcal.EventDateTime{
			DateTime: in.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: in.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		Recurrence: in.Recurrence,
	}

	created, err := svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		apiErr := &APIError{Op: "insert event", Reason: reasonOf(err), Err: err}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			apiErr.Status = gerr.Code
		}
		return CreatedEvent{}, apiErr
	}

	return CreatedEvent{
		ID:       created.Id,
		Summary:  created.Summary,
		HTMLLink: created.HtmlLink,
	}, nil
}

func (c *Client) service(ctx context.Context, httpClient *http.Client) (*gcal.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return gcal.NewService(ctx, opts...)
}

func reasonOf(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Message != "" {
			return gerr.Message
		}
		if len(gerr.Errors) > 0 && gerr.Errors[0].Reason != "" {
			return gerr.Errors[0].Reason
		}
		return http.StatusText(gerr.Code)
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.ErrorCode != "" {
			if rerr.ErrorDescription != "" {
				return rerr.ErrorCode + ": " + rerr.ErrorDescription
			}
			return rerr.ErrorCode
		}
		if rerr.Response != nil {
			return "token endpoint returned " + rerr.Response.Status
		}
	}

	return err.Error()
}

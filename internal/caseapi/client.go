// Package caseapi talks to the identity provider and the case service's
// testing-support endpoints. Suites use it to create the cases they drive
// through the UI and to wait for background processing to finish.
package caseapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

// UpdateCaseEvent is the internal event the service records after it has
// finished processing a submitted event.
const UpdateCaseEvent = "internal-change-UPDATE_CASE"

// Client is safe for concurrent use. Access tokens are cached per user.
type Client struct {
	idamURL    string
	serviceURL string
	http       *retryablehttp.Client
	logger     *slog.Logger

	mu     sync.Mutex
	tokens map[string]string
}

// Option configures a Client.
type Option func(*retryablehttp.Client)

// WithRetryMax sets how often a failed request is retried.
func WithRetryMax(n int) Option {
	return func(c *retryablehttp.Client) { c.RetryMax = n }
}

// WithRetryWait sets the backoff bounds between retries.
func WithRetryWait(lo, hi time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = lo
		c.RetryWaitMax = hi
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *retryablehttp.Client) { c.HTTPClient = hc }
}

// New returns a Client for the given identity provider and case service.
func New(idamURL, serviceURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger.With("component", "caseapi")
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{
		idamURL:    strings.TrimRight(idamURL, "/"),
		serviceURL: strings.TrimRight(serviceURL, "/"),
		http:       rc,
		logger:     logger,
		tokens:     make(map[string]string),
	}
}

// FromConfig builds a Client from the run configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	return New(cfg.IDAMAPIURL, cfg.CaseServiceURL, logger)
}

// SignIn returns an access token for user, reusing a cached one.
func (c *Client) SignIn(ctx context.Context, user config.User) (string, error) {
	c.mu.Lock()
	token, ok := c.tokens[user.Email]
	c.mu.Unlock()
	if ok {
		return token, nil
	}

	form := url.Values{"username": {user.Email}, "password": {user.Password}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.idamURL+"/loginUser", strings.NewReader(form.Encode()))
	if err != nil {
		return "", failure.New(failure.CodeCaseService, "build sign-in request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, "sign in "+user.Email)
	if err != nil {
		return "", err
	}
	token = gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", failure.New(failure.CodeCaseService, "sign in "+user.Email+": no access token in response", nil)
	}

	c.mu.Lock()
	c.tokens[user.Email] = token
	c.mu.Unlock()
	return token, nil
}

// Details is the identity provider's view of a user.
type Details struct {
	ID       string
	Forename string
	Surname  string
	Email    string
}

// UserDetails fetches the identity record of user.
func (c *Client) UserDetails(ctx context.Context, user config.User) (Details, error) {
	body, err := c.authorised(ctx, user, http.MethodGet, c.idamURL+"/details", nil, "user details "+user.Email)
	if err != nil {
		return Details{}, err
	}
	res := gjson.ParseBytes(body)
	return Details{
		ID:       res.Get("id").String(),
		Forename: res.Get("forename").String(),
		Surname:  res.Get("surname").String(),
		Email:    res.Get("email").String(),
	}, nil
}

// Enrich returns a copy of user with names from the identity provider and
// the given organisation. The original is left untouched.
func (c *Client) Enrich(ctx context.Context, user config.User, organisation string) (config.User, error) {
	details, err := c.UserDetails(ctx, user)
	if err != nil {
		return user, err
	}
	user.Forename = details.Forename
	user.Surname = details.Surname
	user.Organisation = organisation
	if details.Email != "" {
		user.Email = details.Email
	}
	return user, nil
}

// CreateCase submits fixture as user and returns the new case id.
func (c *Client) CreateCase(ctx context.Context, user config.User, fixture *fixtures.Fixture) (string, error) {
	body, err := c.authorised(ctx, user, http.MethodPost, c.serviceURL+"/testing-support/case/create",
		fixture.Raw(), "create case from "+fixture.Name)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", failure.New(failure.CodeCaseService, "create case from "+fixture.Name+": no id in response", nil)
	}
	c.logger.Info("case created", "case_id", id, "fixture", fixture.Name, "state", fixture.State())
	return id, nil
}

// Event is one entry of a case's audit history.
type Event struct {
	ID      string
	Name    string
	Created string
}

// Events lists the case's events, oldest first.
func (c *Client) Events(ctx context.Context, user config.User, caseID string) ([]Event, error) {
	body, err := c.authorised(ctx, user, http.MethodGet,
		c.serviceURL+"/testing-support/case/"+url.PathEscape(caseID)+"/events", nil, "events of case "+caseID)
	if err != nil {
		return nil, err
	}
	var events []Event
	gjson.ParseBytes(body).ForEach(func(_, ev gjson.Result) bool {
		events = append(events, Event{
			ID:      ev.Get("id").String(),
			Name:    ev.Get("event_name").String(),
			Created: ev.Get("created_date").String(),
		})
		return true
	})
	return events, nil
}

// PollLastEvent waits until the newest event of the case is eventID.
func (c *Client) PollLastEvent(ctx context.Context, p *poll.Poller, user config.User, caseID, eventID string) error {
	return p.Check(ctx, poll.Condition{
		Description: fmt.Sprintf("last event of case %s is %s", caseID, eventID),
		Check: func(ctx context.Context) (bool, error) {
			events, err := c.Events(ctx, user, caseID)
			if err != nil {
				return false, err
			}
			return len(events) > 0 && events[len(events)-1].ID == eventID, nil
		},
	})
}

func (c *Client) authorised(ctx context.Context, user config.User, method, endpoint string, payload []byte, op string) ([]byte, error) {
	token, err := c.SignIn(ctx, user)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, failure.New(failure.CodeCaseService, "build request: "+op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, op)
}

func (c *Client) do(req *retryablehttp.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, failure.New(failure.CodeCaseService, op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.New(failure.CodeCaseService, op+": read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failure.New(failure.CodeCaseService,
			fmt.Sprintf("%s: status=%d body=%s", op, resp.StatusCode, snippet(body)), nil)
	}
	return body, nil
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

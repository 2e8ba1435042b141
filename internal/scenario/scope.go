// Package scenario runs features of browser scenarios, each scenario in its
// own browser session with its own timeout.
package scenario

import (
	"context"
	"log/slog"
	"sync"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

// CaseService creates cases and reads users outside the browser.
// *caseapi.Client satisfies it.
type CaseService interface {
	CreateCase(ctx context.Context, user config.User, fixture *fixtures.Fixture) (string, error)
	Enrich(ctx context.Context, user config.User, organisation string) (config.User, error)
	PollLastEvent(ctx context.Context, p *poll.Poller, user config.User, caseID, eventID string) error
}

// SessionFactory opens isolated browser sessions. The returned close func
// releases the session.
type SessionFactory interface {
	NewSession(ctx context.Context, logger *slog.Logger) (driver.Driver, func(), error)
}

// SessionFunc adapts a function to SessionFactory.
type SessionFunc func(ctx context.Context, logger *slog.Logger) (driver.Driver, func(), error)

func (f SessionFunc) NewSession(ctx context.Context, logger *slog.Logger) (driver.Driver, func(), error) {
	return f(ctx, logger)
}

// ChromeSessions opens every session in a fresh context of b.
func ChromeSessions(b *driver.Browser) SessionFactory {
	return SessionFunc(func(ctx context.Context, logger *slog.Logger) (driver.Driver, func(), error) {
		c, cancel, err := b.NewSession(ctx, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, cancel, nil
	})
}

// Shared is the state a feature's setup leaves for its scenarios, such as the
// case they all work on.
type Shared struct {
	mu     sync.Mutex
	caseID string
	users  config.Users
	values map[string]string
}

func newShared(users config.Users) *Shared {
	return &Shared{users: users, values: make(map[string]string)}
}

// CaseID returns the feature's case.
func (s *Shared) CaseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caseID
}

// SetCaseID records the feature's case.
func (s *Shared) SetCaseID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseID = id
}

// Users returns a copy of the feature's users.
func (s *Shared) Users() config.Users {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users
}

// UpdateUsers changes the feature's users, typically after enriching them.
func (s *Shared) UpdateUsers(fn func(*config.Users)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.users)
}

// Value returns a value stored by an earlier scenario of the feature.
func (s *Shared) Value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// SetValue stores a value for later scenarios of the feature.
func (s *Shared) SetValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Scope is everything one scenario works with. Nothing in it is shared with
// other scenarios except Shared.
type Scope struct {
	Config *config.Config
	// Users is this scenario's copy, taken after the feature's setup.
	Users  config.Users
	Cases  CaseService
	Driver driver.Driver
	Actor  *pages.Actor
	Pages  *pages.Pages
	Poller *poll.Poller
	Logger *slog.Logger
	Shared *Shared
}

// CaseID is the case of the scenario's feature.
func (s *Scope) CaseID() string {
	return s.Shared.CaseID()
}

// CreateCase submits fixture as user and makes it the feature's case.
func (s *Scope) CreateCase(ctx context.Context, user config.User, name string) (string, error) {
	fixture, err := fixtures.Load(name)
	if err != nil {
		return "", err
	}
	id, err := s.Cases.CreateCase(ctx, user, fixture)
	if err != nil {
		return "", err
	}
	s.Shared.SetCaseID(id)
	s.Logger.Info("case created", "case_id", id, "fixture", name)
	return id, nil
}

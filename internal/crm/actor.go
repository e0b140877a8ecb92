// Package crm simulates PrimeCRM users: each actor logs in once, then
// browses the dashboard, contacts and deals.
package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"primeload/internal/core"
	phttp "primeload/internal/http"
	"primeload/internal/scenario"
	"primeload/internal/template"

	"github.com/sirupsen/logrus"
)

// API paths exercised by the scenario.
const (
	LoginPath          = "/api/auth/login"
	DashboardStatsPath = "/api/dashboard/stats"
	RevenuePath        = "/api/analytics/revenue"
	PipelinePath       = "/api/analytics/pipeline"
	ContactsPath       = "/api/contacts"
	DealsPath          = "/api/deals"
	SearchContactsPath = "/api/contacts?search=firstName:John"

	// TokenPath locates the bearer token in a login response.
	TokenPath = "$.token"
)

// Task names and their default weights.
const (
	TaskViewDashboard  = "view_dashboard"
	TaskViewContacts   = "view_contacts"
	TaskViewDeals      = "view_deals"
	TaskSearchContacts = "search_contacts"
)

// ErrLoginFailed is returned by Login when the actor must be authenticated.
var ErrLoginFailed = errors.New("login failed")

// Credentials are posted to the login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Actor is one simulated CRM user. Its token and headers live in its own
// Session and are never shared with other actors.
type Actor struct {
	session  *phttp.Session
	creds    Credentials
	required bool
	log      logrus.FieldLogger

	token string
}

// NewActor creates an unauthenticated actor. When required is set a failed
// login stops the actor instead of letting it browse anonymously.
func NewActor(session *phttp.Session, creds Credentials, required bool, log logrus.FieldLogger) *Actor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Actor{session: session, creds: creds, required: required, log: log}
}

// Token returns the bearer token obtained at login, or "" if none.
func (a *Actor) Token() string { return a.token }

// Session returns the actor's HTTP session.
func (a *Actor) Session() *phttp.Session { return a.session }

// Login posts the credentials once. A 200 carrying a token installs
// "Authorization: Bearer <token>" on the session. Anything else leaves the
// actor unauthenticated; it is only an error when login is required.
func (a *Actor) Login(ctx context.Context, rep core.Reporter) error {
	if a.token != "" {
		return nil
	}

	res, err := a.session.PostJSON(ctx, rep, LoginPath, a.creds)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var reason string
	switch {
	case err != nil:
		reason = err.Error()
	case res.StatusCode != http.StatusOK:
		reason = fmt.Sprintf("status %d", res.StatusCode)
	default:
		token, extractErr := template.ExtractString(res.Body, TokenPath)
		if extractErr == nil {
			a.token = token
			a.session.SetHeader("Authorization", "Bearer "+token)
			a.log.WithField("email", a.creds.Email).Debug("logged in")
			return nil
		}
		reason = extractErr.Error()
	}

	if a.required {
		return fmt.Errorf("%w for %s: %s", ErrLoginFailed, a.creds.Email, reason)
	}
	a.log.WithFields(logrus.Fields{"email": a.creds.Email, "reason": reason}).
		Warn("login failed, continuing unauthenticated")
	return nil
}

// ViewDashboard loads the dashboard stats and both analytics panels.
func (a *Actor) ViewDashboard(ctx context.Context, rep core.Reporter) error {
	return a.getAll(ctx, rep, DashboardStatsPath, RevenuePath, PipelinePath)
}

func (a *Actor) ViewContacts(ctx context.Context, rep core.Reporter) error {
	return a.getAll(ctx, rep, ContactsPath)
}

func (a *Actor) ViewDeals(ctx context.Context, rep core.Reporter) error {
	return a.getAll(ctx, rep, DealsPath)
}

// SearchContacts searches contacts by first name.
func (a *Actor) SearchContacts(ctx context.Context, rep core.Reporter) error {
	return a.getAll(ctx, rep, SearchContactsPath)
}

// getAll issues the GETs in order. Failed responses do not abort the
// sequence; they are joined into the returned error.
func (a *Actor) getAll(ctx context.Context, rep core.Reporter, paths ...string) error {
	var errs []error
	for _, p := range paths {
		res, err := a.session.Get(ctx, rep, p)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("GET %s: %w", p, err))
		case !res.Success:
			errs = append(errs, fmt.Errorf("GET %s: %s", p, res.Error))
		}
	}
	return errors.Join(errs...)
}

// Tasks returns the actor's behaviors with their default weights.
func (a *Actor) Tasks() []scenario.Task {
	return []scenario.Task{
		{Name: TaskViewDashboard, Weight: 3, Fn: a.ViewDashboard},
		{Name: TaskViewContacts, Weight: 2, Fn: a.ViewContacts},
		{Name: TaskViewDeals, Weight: 1, Fn: a.ViewDeals},
		{Name: TaskSearchContacts, Weight: 1, Fn: a.SearchContacts},
	}
}

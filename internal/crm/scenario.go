package crm

import (
	"context"
	"fmt"
	"net/http"

	"primeload/internal/config"
	"primeload/internal/core"
	"primeload/internal/data"
	phttp "primeload/internal/http"
	"primeload/internal/scenario"
	"primeload/internal/template"

	"github.com/sirupsen/logrus"
)

// Options carries the process-wide pieces shared by every actor.
type Options struct {
	Client  *http.Client
	Debug   *phttp.DebugLogger
	Logger  logrus.FieldLogger
	Sleeper core.Sleeper
}

// Scenario builds CRM actors from a validated configuration.
type Scenario struct {
	host     string
	weights  map[string]int
	wait     scenario.Wait
	required bool
	creds    *data.Source
	opts     Options
}

// New resolves credentials and task weights up front so that a bad
// configuration fails before any actor starts.
func New(cfg *config.Config, opts Options) (*Scenario, error) {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: cfg.Client.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	s := &Scenario{
		host:     cfg.Host,
		weights:  cfg.Tasks,
		wait:     scenario.Between(cfg.Wait.Min, cfg.Wait.Max),
		required: cfg.Auth.Required,
		creds:    creds,
		opts:     opts,
	}

	blank := NewActor(nil, Credentials{}, false, nil)
	tasks, err := scenario.WithWeights(blank.Tasks(), s.weights)
	if err != nil {
		return nil, fmt.Errorf("%w: tasks: %v", config.ErrInvalidConfig, err)
	}
	if _, err := scenario.NewSelector(tasks, nil); err != nil {
		return nil, fmt.Errorf("%w: tasks: %v", config.ErrInvalidConfig, err)
	}
	return s, nil
}

// loadCredentials returns one row per login identity with ${...}
// placeholders already substituted.
func loadCredentials(cfg *config.Config) (*data.Source, error) {
	if cfg.Users == nil {
		row, err := resolveRow(data.Row{"email": cfg.Auth.Email, "password": cfg.Auth.Password})
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		return data.NewSource("users", []data.Row{row}, data.ModeSequential), nil
	}

	src, err := data.LoadFile("users", cfg.Users.File, data.ModeSequential, cfg.Dir)
	if err != nil {
		return nil, err
	}
	if err := src.Require("email", "password"); err != nil {
		return nil, err
	}

	rows := make([]data.Row, 0, src.Len())
	for i := 0; i < src.Len(); i++ {
		row, err := resolveRow(src.Next())
		if err != nil {
			return nil, fmt.Errorf("users row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return data.NewSource("users", rows, data.Mode(cfg.Users.Mode)), nil
}

// resolveRow substitutes placeholders in every column. A column may refer
// to its siblings as ${data.users.<column>}.
func resolveRow(row data.Row) (data.Row, error) {
	vars := core.NewVariables()
	data.Inject(vars, "users", row)

	out, err := template.SubstituteMap(row, vars)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Factory returns a core.WorkflowFactory producing one fresh user per actor.
func (s *Scenario) Factory() core.WorkflowFactory {
	return s.NewUser
}

// NewUser builds the workflow of actor actorID with its own session and
// the next credentials in rotation.
func (s *Scenario) NewUser(actorID int) core.Workflow {
	row := s.creds.Next()
	log := s.opts.Logger.WithField("actor", actorID)

	session := phttp.NewSession(s.host, s.opts.Client, s.opts.Debug)
	actor := NewActor(session, Credentials{Email: row["email"], Password: row["password"]}, s.required, log)

	tasks, err := scenario.WithWeights(actor.Tasks(), s.weights)
	if err != nil {
		return failedWorkflow{err}
	}
	user, err := scenario.NewUser(tasks, scenario.Options{
		Wait:    s.wait,
		Sleeper: s.opts.Sleeper,
		Logger:  log,
		OnStart: actor.Login,
	})
	if err != nil {
		return failedWorkflow{err}
	}
	return user
}

// failedWorkflow stops its actor immediately. New validates the inputs
// that could produce it.
type failedWorkflow struct{ err error }

func (f failedWorkflow) Run(context.Context, int, core.Coordinator, core.Reporter) error {
	return f.err
}

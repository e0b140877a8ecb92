// Package config handles YAML configuration parsing.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"primeload/internal/collector"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Built-in scenario values, used when neither the config file nor flags override them.
const (
	DefaultHost     = "http://localhost:8080"
	DefaultEmail    = "admin@example.com"
	DefaultPassword = "admin123"
	DefaultWaitMin  = 1 * time.Second
	DefaultWaitMax  = 5 * time.Second
	DefaultTimeout  = 30 * time.Second
)

// Config is the root configuration structure.
type Config struct {
	Host        string                `yaml:"host"`
	Auth        AuthConfig            `yaml:"auth"`
	Wait        WaitConfig            `yaml:"wait"`
	Tasks       map[string]int        `yaml:"tasks,omitempty"` // weight overrides by task name
	Users       *UsersConfig          `yaml:"users,omitempty"`
	Client      ClientConfig          `yaml:"client"`
	LoadProfile *LoadProfile          `yaml:"loadProfile,omitempty"`
	Thresholds  *collector.Thresholds `yaml:"thresholds,omitempty"`
	Execution   ExecutionConfig       `yaml:"execution,omitempty"`

	// Dir is the directory of the loaded file; relative paths resolve against it.
	Dir string `yaml:"-"`
}

// AuthConfig holds the credentials posted by every actor at setup.
// Values may reference ${env:VAR}.
type AuthConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	// Required stops an actor whose login fails instead of letting it
	// continue unauthenticated.
	Required bool `yaml:"required"`
}

// WaitConfig bounds the uniform pause between two actions of one actor.
type WaitConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// UsersConfig points at a CSV or JSON file with email/password columns.
// Each actor takes the next row according to Mode.
type UsersConfig struct {
	File string `yaml:"file"`
	Mode string `yaml:"mode"` // sequential (default) or random
}

// ClientConfig tunes the shared HTTP transport.
type ClientConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ExecutionConfig controls iteration-level execution behavior.
type ExecutionConfig struct {
	MaxIterations    int `yaml:"max_iterations"`
	WarmupIterations int `yaml:"warmup_iterations"`
}

// LoadProfile defines the load pattern for a test.
type LoadProfile struct {
	Phases []Phase `yaml:"phases"`
}

// TotalDuration returns the sum of all phase durations.
func (lp *LoadProfile) TotalDuration() time.Duration {
	var total time.Duration
	for _, p := range lp.Phases {
		total += p.Duration
	}
	return total
}

// Phase represents a single phase in the load profile.
type Phase struct {
	Name        string        `yaml:"name"`
	Duration    time.Duration `yaml:"duration"`
	Actors      int           `yaml:"actors"`
	StartActors int           `yaml:"startActors"`
	EndActors   int           `yaml:"endActors"`
	RPS         int           `yaml:"rps"`
}

// Default returns the built-in scenario configuration.
func Default() *Config {
	return &Config{
		Host: DefaultHost,
		Auth: AuthConfig{
			Email:    DefaultEmail,
			Password: DefaultPassword,
		},
		Wait: WaitConfig{
			Min: DefaultWaitMin,
			Max: DefaultWaitMax,
		},
		Client: ClientConfig{
			Timeout: DefaultTimeout,
		},
	}
}

// LoadConfig reads and parses a YAML configuration file on top of Default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no run could use.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Host)
	if c.Host == "" || err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: host %q must be an absolute URL", ErrInvalidConfig, c.Host))
	}
	if c.Wait.Min < 0 || c.Wait.Max < 0 {
		errs = append(errs, fmt.Errorf("%w: wait must be non-negative", ErrInvalidConfig))
	}
	if c.Wait.Min > c.Wait.Max {
		errs = append(errs, fmt.Errorf("%w: wait.min (%v) must be <= wait.max (%v)", ErrInvalidConfig, c.Wait.Min, c.Wait.Max))
	}
	for name, w := range c.Tasks {
		if w < 0 {
			errs = append(errs, fmt.Errorf("%w: task %q weight must be non-negative", ErrInvalidConfig, name))
		}
	}
	if c.Users != nil {
		if c.Users.File == "" {
			errs = append(errs, fmt.Errorf("%w: users.file is required", ErrInvalidConfig))
		}
		if c.Users.Mode != "" && c.Users.Mode != "sequential" && c.Users.Mode != "random" {
			errs = append(errs, fmt.Errorf("%w: users.mode must be sequential or random, got %q", ErrInvalidConfig, c.Users.Mode))
		}
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: client.timeout must be non-negative", ErrInvalidConfig))
	}
	if c.Execution.MaxIterations < 0 || c.Execution.WarmupIterations < 0 {
		errs = append(errs, fmt.Errorf("%w: execution limits must be non-negative", ErrInvalidConfig))
	}
	if c.LoadProfile != nil {
		for i, p := range c.LoadProfile.Phases {
			if p.Duration <= 0 {
				errs = append(errs, fmt.Errorf("%w: phase %d (%s) needs a positive duration", ErrInvalidConfig, i, p.Name))
			}
			if p.Actors < 0 || p.StartActors < 0 || p.EndActors < 0 || p.RPS < 0 {
				errs = append(errs, fmt.Errorf("%w: phase %d (%s) has negative values", ErrInvalidConfig, i, p.Name))
			}
		}
	}

	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: thresholds: %w", ErrInvalidConfig, err))
	}

	return errors.Join(errs...)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"primeload/internal/collector"
)

func TestDefault_MatchesBuiltInScenario(t *testing.T) {
	cfg := Default()

	if cfg.Host != "http://localhost:8080" {
		t.Errorf("expected default host, got %q", cfg.Host)
	}
	if cfg.Auth.Email != "admin@example.com" || cfg.Auth.Password != "admin123" {
		t.Errorf("unexpected default credentials: %+v", cfg.Auth)
	}
	if cfg.Auth.Required {
		t.Error("expected login failures to be tolerated by default")
	}
	if cfg.Wait.Min != time.Second || cfg.Wait.Max != 5*time.Second {
		t.Errorf("expected wait 1s..5s, got %v..%v", cfg.Wait.Min, cfg.Wait.Max)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	content := `
host: "https://crm.example.com"
auth:
  email: "${env:CRM_EMAIL}"
  password: "secret"
  required: true
wait:
  min: 500ms
  max: 2s
tasks:
  view_dashboard: 5
  search_contacts: 0
client:
  timeout: 10s
`
	cfg := loadConfigFromString(t, content)

	if cfg.Host != "https://crm.example.com" {
		t.Errorf("expected host override, got %q", cfg.Host)
	}
	if cfg.Auth.Email != "${env:CRM_EMAIL}" {
		t.Errorf("expected raw placeholder kept for later substitution, got %q", cfg.Auth.Email)
	}
	if !cfg.Auth.Required {
		t.Error("expected auth.required to be true")
	}
	if cfg.Wait.Min != 500*time.Millisecond || cfg.Wait.Max != 2*time.Second {
		t.Errorf("expected wait 500ms..2s, got %v..%v", cfg.Wait.Min, cfg.Wait.Max)
	}
	if cfg.Tasks["view_dashboard"] != 5 {
		t.Errorf("expected view_dashboard weight 5, got %d", cfg.Tasks["view_dashboard"])
	}
	if w, ok := cfg.Tasks["search_contacts"]; !ok || w != 0 {
		t.Errorf("expected search_contacts weight 0 to be present, got %d (present=%v)", w, ok)
	}
	if cfg.Client.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Client.Timeout)
	}
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	cfg := loadConfigFromString(t, `host: "http://10.0.0.5:9000"`)

	if cfg.Auth.Email != DefaultEmail {
		t.Errorf("expected default email, got %q", cfg.Auth.Email)
	}
	if cfg.Wait.Max != DefaultWaitMax {
		t.Errorf("expected default wait max, got %v", cfg.Wait.Max)
	}
}

func TestLoadConfig_SetsDir(t *testing.T) {
	tmpFile := createTempFile(t, `host: "http://localhost:8080"`)

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dir != filepath.Dir(tmpFile) {
		t.Errorf("expected Dir %q, got %q", filepath.Dir(tmpFile), cfg.Dir)
	}
}

func TestLoadConfig_WithUsers(t *testing.T) {
	content := `
users:
  file: users.csv
  mode: random
`
	cfg := loadConfigFromString(t, content)

	if cfg.Users == nil {
		t.Fatal("expected users to be set")
	}
	if cfg.Users.File != "users.csv" || cfg.Users.Mode != "random" {
		t.Errorf("unexpected users config: %+v", cfg.Users)
	}
}

func TestLoadConfig_WithLoadProfile(t *testing.T) {
	content := `
loadProfile:
  phases:
    - name: "ramp_up"
      duration: 30s
      startActors: 1
      endActors: 50
    - name: "steady"
      duration: 2m
      actors: 50
      rps: 100
    - name: "ramp_down"
      duration: 15s
      startActors: 50
      endActors: 0
`
	cfg := loadConfigFromString(t, content)

	if cfg.LoadProfile == nil {
		t.Fatal("expected loadProfile to be set")
	}
	if len(cfg.LoadProfile.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(cfg.LoadProfile.Phases))
	}

	phase := cfg.LoadProfile.Phases[0]
	if phase.Name != "ramp_up" {
		t.Errorf("expected phase name 'ramp_up', got %q", phase.Name)
	}
	if phase.Duration != 30*time.Second {
		t.Errorf("expected duration 30s, got %v", phase.Duration)
	}
	if phase.StartActors != 1 || phase.EndActors != 50 {
		t.Errorf("expected ramp 1->50, got %d->%d", phase.StartActors, phase.EndActors)
	}

	phase = cfg.LoadProfile.Phases[1]
	if phase.Actors != 50 {
		t.Errorf("expected actors 50, got %d", phase.Actors)
	}
	if phase.RPS != 100 {
		t.Errorf("expected rps 100, got %d", phase.RPS)
	}

	if cfg.LoadProfile.TotalDuration() != 30*time.Second+2*time.Minute+15*time.Second {
		t.Errorf("unexpected total duration %v", cfg.LoadProfile.TotalDuration())
	}
}

func TestLoadConfig_WithThresholds(t *testing.T) {
	content := `
thresholds:
  http_req_duration:
    p95: 500ms
  http_req_failed:
    rate: "1%"
`
	cfg := loadConfigFromString(t, content)

	if cfg.Thresholds == nil || cfg.Thresholds.HTTPReqDuration == nil {
		t.Fatal("expected duration thresholds")
	}
	if cfg.Thresholds.HTTPReqDuration.P95 != 500*time.Millisecond {
		t.Errorf("expected p95 500ms, got %v", cfg.Thresholds.HTTPReqDuration.P95)
	}
	if cfg.Thresholds.HTTPReqFailed.Rate != "1%" {
		t.Errorf("expected failure rate 1%%, got %q", cfg.Thresholds.HTTPReqFailed.Rate)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	content := `
host: "unterminated
wait: [[[invalid
`
	tmpFile := createTempFile(t, content)

	_, err := LoadConfig(tmpFile)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	tmpFile := createTempFile(t, "")

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != DefaultHost {
		t.Errorf("expected default host, got %q", cfg.Host)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty host", func(c *Config) { c.Host = "" }},
		{"relative host", func(c *Config) { c.Host = "localhost:8080/api" }},
		{"negative wait", func(c *Config) { c.Wait.Min = -time.Second }},
		{"min above max", func(c *Config) { c.Wait.Min = 6 * time.Second }},
		{"negative weight", func(c *Config) { c.Tasks = map[string]int{"view_deals": -1} }},
		{"users without file", func(c *Config) { c.Users = &UsersConfig{} }},
		{"unknown users mode", func(c *Config) { c.Users = &UsersConfig{File: "u.csv", Mode: "shuffle"} }},
		{"negative timeout", func(c *Config) { c.Client.Timeout = -1 }},
		{"negative iterations", func(c *Config) { c.Execution.MaxIterations = -1 }},
		{"zero phase duration", func(c *Config) {
			c.LoadProfile = &LoadProfile{Phases: []Phase{{Name: "p", Actors: 1}}}
		}},
		{"unparseable failure rate", func(c *Config) {
			c.Thresholds = &collector.Thresholds{HTTPReqFailed: &collector.FailureThresholds{Rate: "five"}}
		}},
		{"negative phase actors", func(c *Config) {
			c.LoadProfile = &LoadProfile{Phases: []Phase{{Name: "p", Duration: time.Second, Actors: -2}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidate_EqualWaitBounds(t *testing.T) {
	cfg := Default()
	cfg.Wait = WaitConfig{Min: 2 * time.Second, Max: 2 * time.Second}
	if err := cfg.Validate(); err != nil {
		t.Errorf("equal bounds should be valid: %v", err)
	}
}

func TestLoadProfile_TotalDuration_Empty(t *testing.T) {
	lp := &LoadProfile{Phases: []Phase{}}
	if lp.TotalDuration() != 0 {
		t.Errorf("expected 0 duration, got %v", lp.TotalDuration())
	}
}

func TestLoadProfile_TotalDuration_Multiple(t *testing.T) {
	lp := &LoadProfile{
		Phases: []Phase{
			{Duration: 10 * time.Second},
			{Duration: 20 * time.Second},
			{Duration: 5 * time.Second},
		},
	}

	expected := 35 * time.Second
	if lp.TotalDuration() != expected {
		t.Errorf("expected %v, got %v", expected, lp.TotalDuration())
	}
}

// Helper functions

func loadConfigFromString(t *testing.T, content string) *Config {
	t.Helper()
	tmpFile := createTempFile(t, content)

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func createTempFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return tmpFile
}

package collector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Thresholds are the pass/fail criteria of a run. A zero limit is not checked.
type Thresholds struct {
	HTTPReqDuration *DurationThresholds `yaml:"http_req_duration"`
	HTTPReqFailed   *FailureThresholds  `yaml:"http_req_failed"`
}

// DurationThresholds caps overall request latency statistics.
type DurationThresholds struct {
	Avg time.Duration `yaml:"avg"`
	P50 time.Duration `yaml:"p50"`
	P90 time.Duration `yaml:"p90"`
	P95 time.Duration `yaml:"p95"`
	P99 time.Duration `yaml:"p99"`
}

// FailureThresholds caps the failed request rate, written as a percentage such as "1%".
type FailureThresholds struct {
	Rate string `yaml:"rate"`
}

// ThresholdResult is the outcome of one check.
type ThresholdResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults holds every check; Passed is false if any check failed.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

// Validate reports limits that can never be evaluated.
func (t *Thresholds) Validate() error {
	if t == nil || t.HTTPReqFailed == nil || t.HTTPReqFailed.Rate == "" {
		return nil
	}
	_, err := parsePercentage(t.HTTPReqFailed.Rate)
	return err
}

// Check evaluates every configured limit against m. Limits are strict upper bounds.
func (t *Thresholds) Check(m *Metrics) *ThresholdResults {
	out := &ThresholdResults{Passed: true}
	if t == nil {
		return out
	}

	if d := t.HTTPReqDuration; d != nil {
		for _, c := range []struct {
			stat          string
			limit, actual time.Duration
		}{
			{"avg", d.Avg, m.Duration.Avg},
			{"p50", d.P50, m.Duration.P50},
			{"p90", d.P90, m.Duration.P90},
			{"p95", d.P95, m.Duration.P95},
			{"p99", d.P99, m.Duration.P99},
		} {
			if c.limit == 0 {
				continue
			}
			out.add(ThresholdResult{
				Name:      "http_req_duration." + c.stat,
				Passed:    c.actual < c.limit,
				Threshold: FormatDuration(c.limit),
				Actual:    FormatDuration(c.actual),
			})
		}
	}

	if f := t.HTTPReqFailed; f != nil && f.Rate != "" {
		actual := m.ErrorRate()
		limit, err := parsePercentage(f.Rate)
		out.add(ThresholdResult{
			Name:      "http_req_failed.rate",
			Passed:    err == nil && actual < limit,
			Threshold: f.Rate,
			Actual:    fmt.Sprintf("%.2f%%", actual),
		})
	}
	return out
}

func (r *ThresholdResults) add(res ThresholdResult) {
	r.Results = append(r.Results, res)
	r.Passed = r.Passed && res.Passed
}

// Violations returns the failed checks.
func (r *ThresholdResults) Violations() []ThresholdResult {
	var failed []ThresholdResult
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

var errPercentage = errors.New("percentage must look like 1% or 0.5%")

func parsePercentage(s string) (float64, error) {
	num, ok := strings.CutSuffix(strings.TrimSpace(s), "%")
	if !ok {
		return 0, fmt.Errorf("%q: %w", s, errPercentage)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%q: %w", s, errPercentage)
	}
	return v, nil
}

// FormatDuration renders d at a precision suited to its magnitude.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return strconv.FormatInt(d.Microseconds(), 10) + "µs"
	case d < time.Second:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	case d < time.Minute:
		return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
	default:
		return d.Round(time.Second).String()
	}
}

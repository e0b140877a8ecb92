package collector

import (
	"math"
	"slices"
	"time"

	"primeload/internal/core"
)

// ProtocolTask marks events that record a whole task execution rather than a request.
const ProtocolTask = "task"

// Metrics is the summary of a run.
type Metrics struct {
	RunID          string
	TotalRequests  int
	SuccessCount   int
	FailureCount   int
	SuccessRate    float64 // percent
	RequestsPerSec float64
	TestDuration   time.Duration
	Duration       DurationMetrics
	Steps          map[string]*StepMetrics
	Tasks          map[string]*TaskMetrics
	Dropped        int64
}

// ErrorRate is the percentage of failed requests.
func (m *Metrics) ErrorRate() float64 {
	if m.TotalRequests == 0 {
		return 0
	}
	return float64(m.FailureCount) / float64(m.TotalRequests) * 100
}

// TaskCount is the number of task executions across all tasks.
func (m *Metrics) TaskCount() int {
	n := 0
	for _, t := range m.Tasks {
		n += t.Count
	}
	return n
}

// DurationMetrics summarizes a set of latencies.
type DurationMetrics struct {
	Min, Max, Avg      time.Duration
	P50, P90, P95, P99 time.Duration
}

// StepMetrics summarizes the requests sharing one name.
type StepMetrics struct {
	Count    int
	Success  int
	Failed   int
	Duration DurationMetrics
}

// SuccessRate is the percentage of successful requests for the step.
func (s *StepMetrics) SuccessRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Count) * 100
}

// TaskMetrics counts executions of one scheduling task.
type TaskMetrics struct {
	Count int     `json:"count"`
	Share float64 `json:"share"` // percent of all task executions
}

// Summarize builds Metrics from events observed over elapsed. It does not modify events.
func Summarize(events []core.Event, elapsed time.Duration) *Metrics {
	m := &Metrics{
		TestDuration: elapsed,
		Steps:        map[string]*StepMetrics{},
		Tasks:        map[string]*TaskMetrics{},
	}

	var all []time.Duration
	perStep := map[string][]time.Duration{}
	for _, e := range events {
		if e.Protocol == ProtocolTask {
			t := m.Tasks[e.Step]
			if t == nil {
				t = &TaskMetrics{}
				m.Tasks[e.Step] = t
			}
			t.Count++
			continue
		}

		s := m.Steps[e.Step]
		if s == nil {
			s = &StepMetrics{}
			m.Steps[e.Step] = s
		}
		s.Count++
		m.TotalRequests++
		if e.Success {
			s.Success++
			m.SuccessCount++
		} else {
			s.Failed++
			m.FailureCount++
		}
		all = append(all, e.Duration)
		perStep[e.Step] = append(perStep[e.Step], e.Duration)
	}

	if m.TotalRequests > 0 {
		m.SuccessRate = float64(m.SuccessCount) / float64(m.TotalRequests) * 100
	}
	if elapsed > 0 {
		m.RequestsPerSec = float64(m.TotalRequests) / elapsed.Seconds()
	}
	m.Duration = Latencies(all)
	for name, ds := range perStep {
		m.Steps[name].Duration = Latencies(ds)
	}
	if total := m.TaskCount(); total > 0 {
		for _, t := range m.Tasks {
			t.Share = float64(t.Count) / float64(total) * 100
		}
	}
	return m
}

// Latencies computes min, max, mean and nearest-rank percentiles of ds.
func Latencies(ds []time.Duration) DurationMetrics {
	if len(ds) == 0 {
		return DurationMetrics{}
	}
	sorted := slices.Clone(ds)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	return DurationMetrics{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / time.Duration(len(sorted)),
		P50: Percentile(sorted, 0.50),
		P90: Percentile(sorted, 0.90),
		P95: Percentile(sorted, 0.95),
		P99: Percentile(sorted, 0.99),
	}
}

// Percentile returns the nearest-rank p-quantile (0 < p < 1) of an ascending slice.
// p at or below 0 yields the minimum and p at or above 1 the maximum.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	rank := int(math.Ceil(p * float64(n)))
	return sorted[max(rank, 1)-1]
}

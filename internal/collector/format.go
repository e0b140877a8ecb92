package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// FormatText writes the human-readable report.
func FormatText(w io.Writer, m *Metrics, thresholds *ThresholdResults) {
	if m.TotalRequests == 0 {
		fmt.Fprintln(w, "No events collected")
		return
	}

	fmt.Fprint(w, "\nprimeload - Load Test Results\n==============================\n\n")
	if m.RunID != "" {
		fmt.Fprintf(w, "Run:            %s\n", m.RunID)
	}
	fmt.Fprintf(w, "Duration:       %v\n", m.TestDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Total Requests: %s\n", formatNumber(m.TotalRequests))
	fmt.Fprintf(w, "Success Rate:   %.1f%% (%s / %s)\n",
		m.SuccessRate, formatNumber(m.SuccessCount), formatNumber(m.TotalRequests))
	fmt.Fprintf(w, "Requests/sec:   %.1f\n", m.RequestsPerSec)
	if m.Dropped > 0 {
		fmt.Fprintf(w, "Dropped Events: %s\n", formatNumber(int(m.Dropped)))
	}

	fmt.Fprint(w, "\nResponse Times:\n")
	for _, row := range m.Duration.rows() {
		fmt.Fprintf(w, "  %-7s %s\n", row.label+":", FormatDuration(row.value))
	}

	fmt.Fprint(w, "\nBy Request:\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(m.Steps) {
		s := m.Steps[name]
		fmt.Fprintf(tw, "  %s\t%s reqs\tfail=%s\tavg=%s\tp95=%s\tp99=%s\n",
			name, formatNumber(s.Count), formatNumber(s.Failed),
			FormatDuration(s.Duration.Avg), FormatDuration(s.Duration.P95), FormatDuration(s.Duration.P99))
	}
	tw.Flush()

	if len(m.Tasks) > 0 {
		fmt.Fprint(w, "\nBy Task:\n")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, name := range sortedKeys(m.Tasks) {
			t := m.Tasks[name]
			fmt.Fprintf(tw, "  %s\t%s runs\t(%.1f%%)\n", name, formatNumber(t.Count), t.Share)
		}
		tw.Flush()
	}

	if thresholds != nil && len(thresholds.Results) > 0 {
		fmt.Fprint(w, "\nThresholds:\n")
		for _, r := range thresholds.Results {
			mark := "✓"
			if !r.Passed {
				mark = "✗"
			}
			fmt.Fprintf(w, "  %s %s < %s (actual: %s)\n", mark, r.Name, r.Threshold, r.Actual)
		}
	}
}

type durationRow struct {
	label string
	value time.Duration
}

func (d DurationMetrics) rows() []durationRow {
	return []durationRow{
		{"Min", d.Min}, {"Avg", d.Avg}, {"P50", d.P50}, {"P90", d.P90},
		{"P95", d.P95}, {"P99", d.P99}, {"Max", d.Max},
	}
}

// jsonReport is the document written by FormatJSON.
type jsonReport struct {
	RunID          string                 `json:"runId,omitempty"`
	Duration       string                 `json:"duration"`
	TotalRequests  int                    `json:"totalRequests"`
	SuccessCount   int                    `json:"successCount"`
	FailureCount   int                    `json:"failureCount"`
	SuccessRate    float64                `json:"successRate"`
	RequestsPerSec float64                `json:"requestsPerSec"`
	Dropped        int64                  `json:"droppedEvents,omitempty"`
	Durations      map[string]string      `json:"durations"`
	Steps          map[string]jsonStep    `json:"steps"`
	Tasks          map[string]TaskMetrics `json:"tasks,omitempty"`
	Thresholds     *ThresholdResults      `json:"thresholds,omitempty"`
}

type jsonStep struct {
	Count       int               `json:"count"`
	Success     int               `json:"success"`
	Failed      int               `json:"failed"`
	SuccessRate float64           `json:"successRate"`
	Durations   map[string]string `json:"durations"`
}

func (d DurationMetrics) asStrings() map[string]string {
	out := make(map[string]string, 7)
	for _, row := range d.rows() {
		out[strings.ToLower(row.label)] = FormatDuration(row.value)
	}
	return out
}

// FormatJSON writes the machine-readable report.
func FormatJSON(w io.Writer, m *Metrics, thresholds *ThresholdResults) error {
	doc := jsonReport{
		RunID:          m.RunID,
		Duration:       m.TestDuration.Round(time.Millisecond).String(),
		TotalRequests:  m.TotalRequests,
		SuccessCount:   m.SuccessCount,
		FailureCount:   m.FailureCount,
		SuccessRate:    m.SuccessRate,
		RequestsPerSec: m.RequestsPerSec,
		Dropped:        m.Dropped,
		Durations:      m.Duration.asStrings(),
		Steps:          make(map[string]jsonStep, len(m.Steps)),
		Thresholds:     thresholds,
	}
	for name, s := range m.Steps {
		doc.Steps[name] = jsonStep{
			Count:       s.Count,
			Success:     s.Success,
			Failed:      s.Failed,
			SuccessRate: s.SuccessRate(),
			Durations:   s.Duration.asStrings(),
		}
	}
	if len(m.Tasks) > 0 {
		doc.Tasks = make(map[string]TaskMetrics, len(m.Tasks))
		for name, t := range m.Tasks {
			doc.Tasks[name] = *t
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// formatNumber groups thousands with commas.
func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

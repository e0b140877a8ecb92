package collector

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"primeload/internal/core"
)

func sampleMetrics() *Metrics {
	m := Summarize([]core.Event{
		{Step: "GET /api/contacts", Success: true, Duration: ms(12)},
		{Step: "GET /api/contacts", Success: false, Duration: ms(30)},
		{Step: "GET /api/deals", Success: true, Duration: ms(18)},
		{Step: "view_contacts", Protocol: ProtocolTask, Success: true},
	}, time.Second)
	m.RunID = "run-42"
	return m
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, sampleMetrics(), nil)
	out := buf.String()

	for _, want := range []string{
		"primeload - Load Test Results",
		"Run:            run-42",
		"Total Requests: 3",
		"Success Rate:   66.7% (2 / 3)",
		"Requests/sec:   3.0",
		"  Max:    30ms",
		"By Request:",
		"GET /api/contacts  2 reqs  fail=1",
		"By Task:",
		"view_contacts  1 runs  (100.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Thresholds:") || strings.Contains(out, "Dropped") {
		t.Errorf("unexpected sections in:\n%s", out)
	}
	if strings.Index(out, "GET /api/contacts") > strings.Index(out, "GET /api/deals") {
		t.Error("requests should be sorted by name")
	}
}

func TestFormatText_ThresholdsAndDropped(t *testing.T) {
	m := sampleMetrics()
	m.Dropped = 1200
	res := &ThresholdResults{Results: []ThresholdResult{
		{Name: "http_req_duration.p95", Passed: true, Threshold: "500ms", Actual: "30ms"},
		{Name: "http_req_failed.rate", Passed: false, Threshold: "1%", Actual: "33.33%"},
	}}

	var buf bytes.Buffer
	FormatText(&buf, m, res)
	out := buf.String()

	for _, want := range []string{
		"Dropped Events: 1,200",
		"✓ http_req_duration.p95 < 500ms (actual: 30ms)",
		"✗ http_req_failed.rate < 1% (actual: 33.33%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatText_NoRequests(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, Summarize(nil, time.Second), nil)
	if strings.TrimSpace(buf.String()) != "No events collected" {
		t.Errorf("got %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	res := (&Thresholds{HTTPReqFailed: &FailureThresholds{Rate: "50%"}}).Check(sampleMetrics())

	var buf bytes.Buffer
	if err := FormatJSON(&buf, sampleMetrics(), res); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		RunID         string            `json:"runId"`
		Duration      string            `json:"duration"`
		TotalRequests int               `json:"totalRequests"`
		FailureCount  int               `json:"failureCount"`
		Durations     map[string]string `json:"durations"`
		Steps         map[string]struct {
			Count       int               `json:"count"`
			Failed      int               `json:"failed"`
			SuccessRate float64           `json:"successRate"`
			Durations   map[string]string `json:"durations"`
		} `json:"steps"`
		Tasks map[string]struct {
			Count int     `json:"count"`
			Share float64 `json:"share"`
		} `json:"tasks"`
		Thresholds *ThresholdResults `json:"thresholds"`
		Dropped    *int64            `json:"droppedEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if doc.RunID != "run-42" || doc.Duration != "1s" || doc.TotalRequests != 3 || doc.FailureCount != 1 {
		t.Errorf("unexpected header fields: %+v", doc)
	}
	if doc.Durations["max"] != "30ms" || len(doc.Durations) != 7 {
		t.Errorf("unexpected durations %v", doc.Durations)
	}
	contacts := doc.Steps["GET /api/contacts"]
	if contacts.Count != 2 || contacts.Failed != 1 || contacts.SuccessRate != 50 || contacts.Durations["avg"] != "21ms" {
		t.Errorf("unexpected contacts step %+v", contacts)
	}
	if doc.Tasks["view_contacts"].Count != 1 || doc.Tasks["view_contacts"].Share != 100 {
		t.Errorf("unexpected tasks %+v", doc.Tasks)
	}
	if doc.Thresholds == nil || !doc.Thresholds.Passed || len(doc.Thresholds.Results) != 1 {
		t.Errorf("unexpected thresholds %+v", doc.Thresholds)
	}
	if doc.Dropped != nil {
		t.Error("droppedEvents should be omitted when zero")
	}
}

func TestFormatJSON_OmitsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON(&buf, Summarize(nil, 0), nil); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"tasks"`, `"thresholds"`, `"runId"`} {
		if strings.Contains(buf.String(), key) {
			t.Errorf("expected %s omitted:\n%s", key, buf.String())
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		1000000:  "1,000,000",
		-4321:    "-4,321",
		12345678: "12,345,678",
	}
	for in, want := range tests {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

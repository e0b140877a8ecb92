package collector_test

import (
	"fmt"
	"os"
	"time"

	"primeload/internal/collector"
	"primeload/internal/core"
)

func ExampleCollector() {
	c := collector.NewCollector()

	c.Report(core.Event{ActorID: 1, Step: "POST /api/auth/login", Success: true, Duration: 50 * time.Millisecond})
	c.Report(core.Event{ActorID: 1, Step: "GET /api/contacts", Task: "view_contacts", Success: true, Duration: 90 * time.Millisecond})
	c.Report(core.Event{ActorID: 1, Step: "view_contacts", Protocol: collector.ProtocolTask, Success: true})
	c.Close()

	m := c.Compute()
	fmt.Printf("requests=%d tasks=%d dropped=%d\n", m.TotalRequests, m.TaskCount(), m.Dropped)
	// Output: requests=2 tasks=1 dropped=0
}

func ExampleSummarize() {
	events := []core.Event{
		{Step: "GET /api/deals", Success: true, Duration: 10 * time.Millisecond},
		{Step: "GET /api/deals", Success: true, Duration: 20 * time.Millisecond},
		{Step: "GET /api/deals", Success: true, Duration: 30 * time.Millisecond},
		{Step: "GET /api/deals", Success: false, Duration: 5 * time.Millisecond},
	}

	m := collector.Summarize(events, time.Second)
	fmt.Printf("success=%.0f%% p50=%v max=%v\n", m.SuccessRate, m.Duration.P50, m.Duration.Max)
	// Output: success=75% p50=10ms max=30ms
}

func ExampleFormatText() {
	events := []core.Event{
		{Step: "GET /api/dashboard/stats", Success: true, Duration: 15 * time.Millisecond},
		{Step: "GET /api/dashboard/stats", Success: true, Duration: 25 * time.Millisecond},
	}

	collector.FormatText(os.Stdout, collector.Summarize(events, time.Second), nil)
	// Output:
	// primeload - Load Test Results
	// ==============================
	//
	// Duration:       1s
	// Total Requests: 2
	// Success Rate:   100.0% (2 / 2)
	// Requests/sec:   2.0
	//
	// Response Times:
	//   Min:    15ms
	//   Avg:    20ms
	//   P50:    15ms
	//   P90:    25ms
	//   P95:    25ms
	//   P99:    25ms
	//   Max:    25ms
	//
	// By Request:
	//   GET /api/dashboard/stats  2 reqs  fail=0  avg=20ms  p95=25ms  p99=25ms
}

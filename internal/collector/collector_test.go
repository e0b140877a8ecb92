package collector

import (
	"sync"
	"testing"
	"time"

	"primeload/internal/core"
)

func TestCollector_ConcurrentReports(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for actor := 1; actor <= 50; actor++ {
		wg.Add(1)
		go func(actor int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				c.Report(core.Event{ActorID: actor, Step: "GET /api/deals", Success: true})
			}
		}(actor)
	}
	wg.Wait()
	c.Close()

	events := c.Events()
	if len(events) != 1000 {
		t.Fatalf("expected 1000 events, got %d", len(events))
	}
	perActor := map[int]int{}
	for _, e := range events {
		perActor[e.ActorID]++
	}
	for actor, n := range perActor {
		if n != 20 {
			t.Errorf("actor %d: expected 20 events, got %d", actor, n)
		}
	}
	if c.DroppedEvents() != 0 {
		t.Errorf("expected no dropped events, got %d", c.DroppedEvents())
	}
}

func TestCollector_DurationFollowsClock(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	c := NewCollectorWithClock(clock, 8)

	clock.Advance(3 * time.Second)
	if got := c.Duration(); got != 3*time.Second {
		t.Errorf("open collector: expected 3s, got %v", got)
	}

	c.Close()
	clock.Advance(time.Minute)
	if got := c.Duration(); got != 3*time.Second {
		t.Errorf("closed collector should freeze at 3s, got %v", got)
	}
}

func TestCollector_ReportAfterClose(t *testing.T) {
	c := NewCollector()
	c.Report(core.Event{Step: "kept"})
	c.Close()
	c.Close()

	c.Report(core.Event{Step: "late"})

	if n := len(c.Events()); n != 1 {
		t.Errorf("expected 1 event, got %d", n)
	}
	m := c.Compute()
	if m.Dropped != 1 {
		t.Errorf("expected late event counted as dropped, got %d", m.Dropped)
	}
	if m.TotalRequests != 1 {
		t.Errorf("expected 1 request, got %d", m.TotalRequests)
	}
}

func TestCollector_EventsReturnsCopy(t *testing.T) {
	c := NewCollector()
	c.Report(core.Event{Step: "GET /api/contacts"})
	c.Close()

	events := c.Events()
	events[0].Step = "changed"
	if c.Events()[0].Step != "GET /api/contacts" {
		t.Error("Events should not expose internal storage")
	}
}

// Package progress renders a one-line live status of a running test.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"primeload/internal/collector"
)

const clearLine = "\r\033[K"

// Progress redraws a status line every interval until stopped.
// Messages printed through it are written above the line.
type Progress struct {
	collector *collector.Collector
	quiet     bool
	interval  time.Duration
	active    func() int

	mu        sync.Mutex
	output    io.Writer
	startTime time.Time
	stopCh    chan struct{}
	done      chan struct{}
	stopped   atomic.Bool
}

func NewProgress(c *collector.Collector, quiet bool) *Progress {
	return &Progress{
		collector: c,
		quiet:     quiet,
		interval:  time.Second,
		output:    os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// SetActiveFunc makes the status line include the live actor count.
func (p *Progress) SetActiveFunc(f func() int) {
	p.active = f
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.startTime = time.Now()
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.run()
}

func (p *Progress) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			line := p.Line(time.Since(p.startTime))
			p.mu.Lock()
			fmt.Fprint(p.output, clearLine+line)
			p.mu.Unlock()
		}
	}
}

// Line formats the status for the given elapsed time.
func (p *Progress) Line(elapsed time.Duration) string {
	m := p.collector.Compute()
	elapsed = elapsed.Round(time.Second)

	line := fmt.Sprintf("[%02d:%02d] ", int(elapsed.Minutes()), int(elapsed.Seconds())%60)
	if p.active != nil {
		line += fmt.Sprintf("Users: %d | ", p.active())
	}
	return line + fmt.Sprintf("Tasks: %d | Requests: %d | RPS: %.1f | Errors: %d (%.1f%%)",
		m.TaskCount(), m.TotalRequests, m.RequestsPerSec, m.FailureCount, m.ErrorRate())
}

// Stop halts redrawing and clears the status line. Safe to call more than once.
func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.stopCh != nil {
		close(p.stopCh)
		<-p.done
	}
	p.mu.Lock()
	fmt.Fprint(p.output, clearLine)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, clearLine+format+"\n", args...)
	p.mu.Unlock()
}

// Write lets the progress line share its output with a logger.
func (p *Progress) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.quiet {
		fmt.Fprint(p.output, clearLine)
	}
	return p.output.Write(b)
}

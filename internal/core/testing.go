package core

import (
	"strings"
	"sync"
)

// SyncBuffer is an io.Writer safe for concurrent writers, used to capture
// log and progress output in tests.
type SyncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (w *SyncBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *SyncBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

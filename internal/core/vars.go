package core

import (
	"sync"
	"time"
)

// Result is what a Session returns for one request.
type Result struct {
	Duration   time.Duration
	Success    bool
	Error      string
	StatusCode int
	BytesSent  int64
	BytesRecv  int64
	Body       []byte // capped response body, nil when not retained
}

// Variables is the lookup table used for template substitution.
type Variables interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapVariables is a Variables backed by a map and safe for concurrent use.
type MapVariables struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewVariables returns an empty table, optionally seeded from initial maps.
// Later maps override earlier ones.
func NewVariables(initial ...map[string]any) *MapVariables {
	v := &MapVariables{data: map[string]any{}}
	for _, m := range initial {
		for k, val := range m {
			v.data[k] = val
		}
	}
	return v
}

func (v *MapVariables) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok
}

func (v *MapVariables) Set(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[key] = value
}

// Len reports how many keys are set.
func (v *MapVariables) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.data)
}

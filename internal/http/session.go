// Package http implements the per-actor HTTP session used by scenarios.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"primeload/internal/core"
)

const (
	// maxDebugBodySize limits response body logged in verbose mode.
	maxDebugBodySize = 4096
	// maxKeepBodySize limits response body retained for decoding.
	maxKeepBodySize = 10 * 1024 * 1024 // 10MB
)

// Request describes one call issued through a Session.
type Request struct {
	// Name labels the request in reports. Defaults to "METHOD path".
	Name   string
	Method string
	// Path is joined to the session base URL and may carry a query string.
	Path   string
	Body   []byte
	Header map[string]string
	// KeepBody retains up to 10MB of the response body in Result.Body.
	KeepBody bool
}

func (r Request) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Method + " " + r.Path
}

// Session is an actor's communication channel: a shared client and a set of
// headers that persist across every request the actor issues.
// A Session belongs to one actor; the header set is guarded only so that
// reporters and debug output can read it safely.
type Session struct {
	baseURL string
	client  *http.Client
	debug   *DebugLogger

	mu     sync.RWMutex
	header http.Header
}

// NewSession creates a Session rooted at baseURL.
func NewSession(baseURL string, client *http.Client, debug *DebugLogger) *Session {
	if client == nil {
		client = http.DefaultClient
	}
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		debug:   debug,
		header:  make(http.Header),
	}
}

// SetHeader adds or replaces a persistent header.
func (s *Session) SetHeader(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header.Set(key, value)
}

// Header returns a copy of the persistent headers.
func (s *Session) Header() http.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header.Clone()
}

// Get issues a GET for path.
func (s *Session) Get(ctx context.Context, rep core.Reporter, path string) (core.Result, error) {
	return s.Do(ctx, rep, Request{Method: http.MethodGet, Path: path})
}

// PostJSON posts payload encoded as JSON and keeps the response body.
func (s *Session) PostJSON(ctx context.Context, rep core.Reporter, path string, payload any) (core.Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return core.Result{Error: err.Error()}, fmt.Errorf("encoding %s body: %w", path, err)
	}
	return s.Do(ctx, rep, Request{
		Method:   http.MethodPost,
		Path:     path,
		Body:     body,
		Header:   map[string]string{"Content-Type": "application/json"},
		KeepBody: true,
	})
}

// Do executes req and reports one event for it.
// A response with status >= 400 is a failed result but not an error;
// the returned error is non-nil only when no response was received.
// A request abandoned because ctx ended is returned but not reported.
func (s *Session) Do(ctx context.Context, rep core.Reporter, req Request) (core.Result, error) {
	actorID := core.ActorIDFromContext(ctx)
	name := req.label()
	start := time.Now()

	result, err := s.do(ctx, actorID, name, req, start)
	if err != nil && ctx.Err() != nil {
		return result, err
	}

	if rep != nil {
		rep.Report(core.Event{
			ActorID:    actorID,
			Timestamp:  time.Now(),
			Step:       name,
			Task:       core.TaskFromContext(ctx),
			Protocol:   "http",
			Duration:   result.Duration,
			Success:    result.Success,
			Error:      result.Error,
			StatusCode: result.StatusCode,
			BytesSent:  result.BytesSent,
			BytesRecv:  result.BytesRecv,
		})
	}
	return result, err
}

func (s *Session) do(ctx context.Context, actorID int, name string, req Request, start time.Time) (core.Result, error) {
	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, s.baseURL+req.Path, body)
	if err != nil {
		duration := time.Since(start)
		s.debug.LogError(actorID, name, err.Error(), duration)
		return core.Result{Duration: duration, Error: err.Error()}, err
	}

	s.mu.RLock()
	for k, values := range s.header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	s.mu.RUnlock()
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	s.debug.LogRequest(actorID, name, httpReq)

	resp, err := s.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		s.debug.LogError(actorID, name, err.Error(), duration)
		return core.Result{
			Duration:  duration,
			Error:     err.Error(),
			BytesSent: int64(len(req.Body)),
		}, err
	}
	defer resp.Body.Close()

	needsDebug := s.debug != nil
	var respBody []byte
	var recv int64
	if req.KeepBody || needsDebug {
		limit := int64(maxDebugBodySize)
		if req.KeepBody {
			limit = maxKeepBodySize
		}
		respBody, _ = io.ReadAll(io.LimitReader(resp.Body, limit))
		rest, _ := io.Copy(io.Discard, resp.Body)
		recv = int64(len(respBody)) + rest
	} else {
		recv, _ = io.Copy(io.Discard, resp.Body) // drain errors are ignorable
	}

	success := resp.StatusCode < 400
	errStr := ""
	if !success {
		errStr = resp.Status
	}

	debugBody := respBody
	if len(debugBody) > maxDebugBodySize {
		debugBody = debugBody[:maxDebugBodySize]
	}
	s.debug.LogResponse(actorID, name, resp, debugBody, duration)

	result := core.Result{
		Duration:   duration,
		Success:    success,
		Error:      errStr,
		StatusCode: resp.StatusCode,
		BytesSent:  int64(len(req.Body)),
		BytesRecv:  recv,
	}
	if req.KeepBody {
		result.Body = respBody
	}
	return result, nil
}

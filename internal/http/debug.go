package http

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodyLogSize caps request and response bodies attached to dumps.
const maxBodyLogSize = 1024

// DebugLogger writes one structured entry per request, response and transport
// error when verbose mode is on. A nil *DebugLogger logs nothing.
type DebugLogger struct {
	log logrus.FieldLogger
}

// NewDebugLogger dumps traffic to log at info level.
func NewDebugLogger(log logrus.FieldLogger) *DebugLogger {
	return &DebugLogger{log: log}
}

func (d *DebugLogger) entry(actorID int, name string) *logrus.Entry {
	return d.log.WithFields(logrus.Fields{"actor": actorID, "request": name})
}

// LogRequest dumps req. A consumed body is restored so the request can still be sent.
func (d *DebugLogger) LogRequest(actorID int, name string, req *http.Request) {
	if d == nil {
		return
	}
	fields := logrus.Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": headerDump(req.Header),
	}
	if req.Body != nil && req.Body != http.NoBody {
		if body, err := io.ReadAll(req.Body); err == nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			if len(body) > 0 {
				fields["body"] = truncateBody(body)
			}
		}
	}
	d.entry(actorID, name).WithFields(fields).Info(">>> request")
}

// LogResponse dumps resp with the part of its body the session kept.
func (d *DebugLogger) LogResponse(actorID int, name string, resp *http.Response, body []byte, took time.Duration) {
	if d == nil {
		return
	}
	fields := logrus.Fields{
		"status":   resp.StatusCode,
		"duration": took.Round(time.Millisecond).String(),
		"headers":  headerDump(resp.Header),
	}
	if len(body) > 0 {
		fields["body"] = truncateBody(body)
	}
	d.entry(actorID, name).WithFields(fields).Info("<<< response")
}

// LogError records a request that got no response.
func (d *DebugLogger) LogError(actorID int, name string, errMsg string, took time.Duration) {
	if d == nil {
		return
	}
	d.entry(actorID, name).WithFields(logrus.Fields{
		"duration": took.Round(time.Millisecond).String(),
		"error":    errMsg,
	}).Info("!!! request failed")
}

// headerDump renders h as "Name: value; ..." sorted by name with credentials hidden.
func headerDump(h http.Header) string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := strings.Join(h[name], ", ")
		if http.CanonicalHeaderKey(name) == "Authorization" {
			value = redactCredential(value)
		}
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, "; ")
}

// redactCredential keeps the auth scheme and hides the credential.
func redactCredential(v string) string {
	if scheme, _, ok := strings.Cut(v, " "); ok {
		return scheme + " [redacted]"
	}
	return "[redacted]"
}

func truncateBody(body []byte) string {
	if len(body) <= maxBodyLogSize {
		return string(body)
	}
	return string(body[:maxBodyLogSize]) + "... (truncated, " + strconv.Itoa(len(body)) + " bytes total)"
}

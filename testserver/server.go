// Package testserver serves a fake PrimeCRM API for local runs and
// integration tests.
package testserver

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default login accepted by a server built with zero Options.
const (
	DefaultEmail    = "admin@example.com"
	DefaultPassword = "admin123"
)

// Options tunes the fake API.
type Options struct {
	// Users maps email to password. Defaults to the admin account.
	Users map[string]string
	// Latency is added to every API response.
	Latency time.Duration
	// FailRate is the percentage (0-100) of API reads answered with 500.
	FailRate int
}

// Stats counts what the server has seen.
type Stats struct {
	Logins        int
	FailedLogins  int
	Authorized    int
	Unauthorized  int
	RequestsByURI map[string]int
}

// Server is the fake PrimeCRM API. Safe for concurrent use.
type Server struct {
	mux  *http.ServeMux
	opts Options

	contacts []Contact
	deals    []Deal

	mu     sync.Mutex
	tokens map[string]string // token -> email
	stats  Stats
	rng    *rand.Rand
}

func NewServer(opts Options) *Server {
	if opts.Users == nil {
		opts.Users = map[string]string{DefaultEmail: DefaultPassword}
	}
	s := &Server{
		mux:      http.NewServeMux(),
		opts:     opts,
		contacts: seedContacts(),
		deals:    seedDeals(),
		tokens:   make(map[string]string),
		stats:    Stats{RequestsByURI: make(map[string]int)},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.registerHandlers()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerHandlers() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/dashboard/stats", s.read(s.handleDashboardStats))
	s.mux.HandleFunc("/api/analytics/revenue", s.read(s.handleRevenue))
	s.mux.HandleFunc("/api/analytics/pipeline", s.read(s.handlePipeline))
	s.mux.HandleFunc("/api/contacts", s.read(s.handleContacts))
	s.mux.HandleFunc("/api/deals", s.read(s.handleDeals))
}

// Stats returns a snapshot of the counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.RequestsByURI = make(map[string]int, len(s.stats.RequestsByURI))
	for k, v := range s.stats.RequestsByURI {
		out.RequestsByURI[k] = v
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.count(r)
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.pause()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	want, ok := s.opts.Users[req.Email]
	if !ok || want != req.Password {
		s.stats.FailedLogins++
		s.mu.Unlock()
		writeError(w, r, http.StatusUnauthorized, "Bad credentials")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = req.Email
	s.stats.Logins++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// read wraps a GET endpoint with bearer authentication, latency and failure injection.
func (s *Server) read(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.count(r)
		if r.Method != http.MethodGet {
			writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, known := s.tokens[token]
		authorized := ok && known
		if authorized {
			s.stats.Authorized++
		} else {
			s.stats.Unauthorized++
		}
		fail := s.opts.FailRate > 0 && s.rng.Intn(100) < s.opts.FailRate
		s.mu.Unlock()

		if !authorized {
			writeError(w, r, http.StatusUnauthorized, "Full authentication is required to access this resource")
			return
		}
		s.pause()
		if fail {
			writeError(w, r, http.StatusInternalServerError, "simulated failure")
			return
		}
		next(w, r)
	}
}

func (s *Server) count(r *http.Request) {
	s.mu.Lock()
	s.stats.RequestsByURI[r.URL.RequestURI()]++
	s.mu.Unlock()
}

func (s *Server) pause() {
	if s.opts.Latency > 0 {
		time.Sleep(s.opts.Latency)
	}
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	var revenue float64
	for _, d := range s.deals {
		if d.Stage == StageClosedWon {
			revenue += d.Value
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalRevenue":  revenue,
		"activeDeals":   len(s.deals),
		"newContacts":   len(s.contacts),
		"upcomingTasks": 0,
	})
}

// handleRevenue sums won deal values per close date.
func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	byDate := map[string]float64{}
	for _, d := range s.deals {
		if d.Stage == StageClosedWon {
			byDate[d.CloseDate] += d.Value
		}
	}
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]map[string]any, 0, len(dates))
	for _, date := range dates {
		points = append(points, map[string]any{"date": date, "value": byDate[date]})
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{}
	for _, d := range s.deals {
		counts[d.Stage]++
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	criteria := ParseCriteria(r.URL.Query().Get("search"))
	out := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if c.Matches(criteria) {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deals)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"path":      r.URL.Path,
	})
}

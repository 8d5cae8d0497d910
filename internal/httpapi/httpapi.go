// Package httpapi exposes a running scan's results over HTTP, for a daemon
// started with `simtool watch --serve`.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/simtool/internal/simcore"
)

var apiLog = log.New(os.Stderr, "[simtool:httpapi] ", log.Ltime)

// Result is the latest completed scan, swapped in atomically by the
// watch loop after every rescan.
type Result struct {
	GeneratedAt time.Time
	Runs        []simcore.Run
	Matches     []simcore.Match
}

// RunView and MatchView are the wire shapes for Result's contents — plain
// structs rather than simcore.Run/Match directly, since Text carries
// fields (the New flag, absolute Start/Limit) that are an implementation
// detail of the engine, not the reported API.
type RunView struct {
	FileA  string `json:"file_a"`
	StartA uint64 `json:"start_a"`
	FileB  string `json:"file_b"`
	StartB uint64 `json:"start_b"`
	Size   int    `json:"size"`
}

type MatchView struct {
	FileA   string  `json:"file_a"`
	FileB   string  `json:"file_b"`
	Percent float64 `json:"percent"`
}

// Server serves the current Result over HTTP. Results are swapped in by
// the caller (typically internal/watch's rescan callback) via SetResult.
type Server struct {
	addr string
	mux  *http.ServeMux

	mu  sync.RWMutex
	res Result
}

// NewServer constructs a Server listening on addr once Start is called.
func NewServer(addr string) *Server {
	s := &Server{addr: addr, mux: http.NewServeMux()}
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/api/v1/percentages", s.handlePercentages)
	return s
}

// SetResult replaces the result the API serves.
func (s *Server) SetResult(r Result) {
	s.mu.Lock()
	s.res = r
	s.mu.Unlock()
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	apiLog.Printf("listening on %s", s.addr)
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		apiLog.Printf("failed to encode response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	runs := s.res.Runs
	s.mu.RUnlock()

	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, RunView{
			FileA: run.TextA.Name, StartA: run.StartA - run.TextA.Start,
			FileB: run.TextB.Name, StartB: run.StartB - run.TextB.Start,
			Size: run.Size,
		})
	}
	jsonResponse(w, views, http.StatusOK)
}

func (s *Server) handlePercentages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	matches := s.res.Matches
	s.mu.RUnlock()

	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, MatchView{FileA: m.FileA, FileB: m.FileB, Percent: m.Percent})
	}
	jsonResponse(w, views, http.StatusOK)
}

// Package web provides the HTTP status and control surface for the hotcirc
// daemon. Control requests are never executed here: they are enqueued as
// commands and consumed by the single control loop between ticks.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/hotcirc/internal/logic"
	"github.com/sweeney/hotcirc/internal/status"
)

// CommandSink enqueues a command for the control loop. It returns false when
// the queue is full (the request is dropped, not blocked on).
type CommandSink func(logic.Command) bool

// Server serves the status page and command endpoints.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commands   CommandSink
}

// New creates a Server that reads state from the tracker and forwards
// commands to the sink.
func New(addr string, tracker *status.Tracker, commands CommandSink) *Server {
	s := &Server{tracker: tracker, commands: commands}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/matrix.json", s.handleMatrixJSON)

	mux.HandleFunc("/api/pump/start", s.command(logic.CmdPumpStart))
	mux.HandleFunc("/api/pump/stop", s.command(logic.CmdPumpStop))
	mux.HandleFunc("/api/pump/enable", s.command(logic.CmdPumpEnable))
	mux.HandleFunc("/api/pump/disable", s.command(logic.CmdPumpDisable))
	mux.HandleFunc("/api/learning/on", s.command(logic.CmdLearningOn))
	mux.HandleFunc("/api/learning/off", s.command(logic.CmdLearningOff))
	mux.HandleFunc("/api/matrix/save", s.command(logic.CmdMatrixSave))
	mux.HandleFunc("/api/matrix/reset", s.command(logic.CmdMatrixReset))

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleMatrixJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatMatrixJSON(snap))
}

// command builds a POST handler that enqueues the given command.
func (s *Server) command(cmd logic.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.commands == nil || !s.commands(cmd) {
			http.Error(w, "command queue full", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"queued":"` + cmd.String() + `"}`))
	}
}

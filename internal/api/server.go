package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/directory"
	"jadwalpoli/internal/queue"
)

// DoctorDirectory resolves doctors with their weekly schedule.
type DoctorDirectory interface {
	Lookup(ctx context.Context, code string) (*directory.Result, error)
}

// Options configures the HTTP API.
type Options struct {
	Port         int
	APIKey       string
	MinDaysAhead int
	MaxDaysAhead int
	Location     *time.Location
}

// HTTPServer serves schedules, booking calendars and live queues.
type HTTPServer struct {
	doctors DoctorDirectory
	poller  *queue.Poller
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
	server  *http.Server
}

func NewHTTPServer(opts Options, doctors DoctorDirectory, poller *queue.Poller, logger *zerolog.Logger) *HTTPServer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "api").Logger()
	}
	s := &HTTPServer{
		doctors: doctors,
		poller:  poller,
		opts:    opts,
		logger:  l,
		now:     time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doctors/{code}/schedule", s.handleSchedule)
	mux.HandleFunc("GET /api/doctors/{code}/calendar", s.handleCalendar)
	mux.HandleFunc("POST /api/doctors/{code}/calendar/select", s.handleSelect)
	mux.HandleFunc("GET /api/queue/{doctor}/{clinic}/{date}", s.handleQueue)
	mux.HandleFunc("GET /api/queue/{doctor}/{clinic}/{date}/stream", s.handleQueueStream)
	mux.HandleFunc("POST /api/queue/watches/{id}/refresh", s.handleRefresh)

	// Request contexts derive from baseCtx, which is cancelled when Shutdown
	// begins so open queue streams stop their watches and return.
	baseCtx, cancel := context.WithCancel(context.Background())
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.auth(mux),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	s.server.RegisterOnShutdown(cancel)
	return s
}

// Handler returns the root handler including authentication.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving HTTP until the server is shut down.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server is shut down.
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP API listening")
	if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server. Open queue streams are cancelled first.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) today() time.Time {
	return calendar.Day(s.now().In(s.opts.Location))
}

func (s *HTTPServer) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.APIKey != "" && r.Header.Get("X-Api-Key") != s.opts.APIKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/apiwrapper/internal/store"
)

const (
	// BasePath prefixes every sandbox route.
	BasePath = "/apiservices"

	// shutdownTimeout bounds the graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second
)

// requiredFields must be present in the form of a session request.
var requiredFields = []string{
	"country",
	"currency",
	"locale",
	"originplace",
	"destinationplace",
	"outbounddate",
}

// Config tunes the sandbox behaviour.
type Config struct {
	// APIKey, when set, must be sent as the apiKey query parameter.
	APIKey string

	// PendingPolls is the number of polls answered UpdatesPending before a
	// session completes.
	PendingPolls int

	// ThrottleRate is the fraction of polls answered 429.
	ThrottleRate float64

	// EmptyRate is the fraction of polls answered 200 with an empty body.
	EmptyRate float64

	// Latency delays every poll.
	Latency time.Duration
}

// Server serves the sandbox API.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	addr       string
	cfg        Config
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
	chance     func() float64
}

// NewServer creates a new sandbox [Server] listening on addr once started.
// Use ":0" to pick a free port and [Server.URL] to find it.
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, addr string, cfg Config, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		addr:   addr,
		cfg:    cfg,
		logger: logger,
		chance: rand.Float64,
	}
}

// Handler returns the sandbox routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+BasePath+"/pricing/v1.0", s.handleCreate)
	mux.HandleFunc("GET "+BasePath+"/pricing/v1.0/{key}", s.handlePoll)
	mux.HandleFunc("GET "+BasePath+"/reference/v1.0/countries/{locale}", s.handleCountries)
	return s.authorize(mux)
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown.
//
// Returns an error if the server fails to bind to the configured address.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify address availability synchronously
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// request contexts derive from ctx so that slow polls stop on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go s.logStatusChanges(ctx)

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// URL returns the base URL of a started server, including [BasePath].
func (s *Server) URL() string {
	if s.listener == nil {
		return ""
	}
	_, port, err := net.SplitHostPort(s.listener.Addr().String())
	if err != nil {
		return ""
	}
	return "http://localhost:" + port + BasePath
}

// logStatusChanges logs session creation and completion until ctx is done.
func (s *Server) logStatusChanges(ctx context.Context) {
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for {
		select {
		case session, ok := <-ch:
			if !ok {
				return
			}
			s.logger.Info("session status",
				"session", session.ID,
				"status", session.Status,
				"polls", session.Polls,
			)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" && r.URL.Query().Get("apiKey") != s.cfg.APIKey {
			s.logger.Warn("rejected request", "path", r.URL.Path, "reason", "invalid api key")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleCreate creates a session from the posted form.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var problems []validationError
	for _, field := range requiredFields {
		if r.PostForm.Get(field) == "" {
			problems = append(problems, validationError{
				ParameterName: field,
				Message:       fmt.Sprintf("%s is required", field),
			})
		}
	}
	if len(problems) > 0 {
		s.write(w, r, http.StatusBadRequest, errorResponse{ValidationErrors: problems})
		return
	}

	query := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		query[k] = r.PostForm.Get(k)
	}

	session := s.store.Create(store.Session{
		Query:       query,
		PollsNeeded: s.cfg.PendingPolls + 1,
	})

	w.Header().Set("Location", fmt.Sprintf("http://%s%s/pricing/v1.0/%s", r.Host, BasePath, session.ID))
	w.WriteHeader(http.StatusCreated)
}

// handlePoll returns the state of one session.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if _, ok := s.store.Get(key); !ok {
		http.NotFound(w, r)
		return
	}

	if s.cfg.Latency > 0 {
		select {
		case <-time.After(s.cfg.Latency):
		case <-r.Context().Done():
			return
		}
	}

	roll := s.chance()
	switch {
	case roll < s.cfg.ThrottleRate:
		w.WriteHeader(http.StatusTooManyRequests)
		return
	case roll < s.cfg.ThrottleRate+s.cfg.EmptyRate:
		w.WriteHeader(http.StatusOK)
		return
	}

	session, ok := s.store.Advance(key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	resp := sessionResponse{
		SessionKey:  session.ID,
		Status:      session.Status,
		Query:       session.Query,
		Itineraries: []itinerary{},
	}
	if session.Complete() {
		resp.Itineraries = itineraries(session)
	}
	s.write(w, r, http.StatusOK, resp)
}

// handleCountries returns static reference data.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, http.StatusOK, countriesResponse{
		Locale:    r.PathValue("locale"),
		Countries: countries,
	})
}

// write encodes v as XML when the client accepts it and as JSON otherwise.
func (s *Server) write(w http.ResponseWriter, r *http.Request, code int, v any) {
	if strings.Contains(r.Header.Get("Accept"), "xml") {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(code)
		if err := xml.NewEncoder(w).Encode(v); err != nil {
			s.logger.Error("failed to encode xml response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode json response", "error", err)
	}
}

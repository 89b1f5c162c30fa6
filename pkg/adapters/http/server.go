package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aretw0/journey/internal/logging"
	"github.com/aretw0/journey/internal/presentation/graph"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/ports"
)

const (
	// DefaultBasePath is the mount point of the journey routes.
	DefaultBasePath = "/check"
	// DefaultCookieName is the name of the session cookie.
	DefaultCookieName = "service_session"
	// DefaultSessionTTL is the lifetime of the session cookie.
	DefaultSessionTTL = 2 * time.Hour

	maxFormBytes = 64 << 10
)

// Info is served by GET /info.
type Info struct {
	App     string `json:"app"`
	Version string `json:"version"`
	Journey string `json:"journey"`
}

// Server exposes a Journey over HTTP: one path per step below the base path.
type Server struct {
	journey    ports.Journey
	basePath   string
	cookieName string
	sessionTTL time.Duration
	secure     bool
	newID      func() (string, error)
	validID    func(string) bool
	metrics    http.Handler
	info       Info
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithBasePath mounts the step routes below path.
func WithBasePath(path string) Option {
	return func(s *Server) {
		s.basePath = "/" + strings.Trim(path, "/")
	}
}

// WithCookie sets the session cookie name and lifetime.
func WithCookie(name string, ttl time.Duration) Option {
	return func(s *Server) {
		if name != "" {
			s.cookieName = name
		}
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithSecureCookie marks the session cookie as HTTPS only.
func WithSecureCookie(secure bool) Option {
	return func(s *Server) { s.secure = secure }
}

// WithSessionIDGenerator overrides how new session IDs are minted. Defaults to UUIDv7.
// Pair it with WithSessionIDValidator when the IDs are not UUIDs.
func WithSessionIDGenerator(fn func() (string, error)) Option {
	return func(s *Server) { s.newID = fn }
}

// WithSessionIDValidator sets which cookie values are accepted as session IDs.
// Rejected values are replaced by a new session. Defaults to UUIDs.
func WithSessionIDValidator(fn func(string) bool) Option {
	return func(s *Server) { s.validID = fn }
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithInfo sets the payload of GET /info.
func WithInfo(info Info) Option {
	return func(s *Server) { s.info = info }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server for j.
func NewServer(j ports.Journey, opts ...Option) *Server {
	s := &Server{
		journey:    j,
		basePath:   DefaultBasePath,
		cookieName: DefaultCookieName,
		sessionTTL: DefaultSessionTTL,
		newID:      newSessionID,
		validID:    isUUID,
		info:       Info{App: "journey-http"},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler of a journey, instrumented with OpenTelemetry.
func NewHandler(j ports.Journey, opts ...Option) http.Handler {
	return NewServer(j, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route(s.basePath, func(r chi.Router) {
		r.Get("/", s.Start)
		r.Get("/{step}", s.Visit)
		r.Post("/{step}", s.Submit)
	})

	return otelhttp.NewHandler(r, "journey.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start handles GET <base>/ by redirecting to the entry point.
func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	target := domain.InternalTarget(s.journey.EntryPoint())
	http.Redirect(w, r, target.JoinPath(s.basePath), http.StatusSeeOther)
}

// Visit handles GET <base>/{step}.
func (s *Server) Visit(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, nil, false)
}

// Submit handles POST <base>/{step}. Fields are read from a form or a JSON object.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	s.handle(w, r, fields, true)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request, fields map[string]string, submitted bool) {
	sessionID, err := s.session(w, r)
	if err != nil {
		s.logger.Error("failed to create session id", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	out, err := s.journey.Handle(r.Context(), domain.Request{
		StepID:    chi.URLParam(r, "step"),
		SessionID: sessionID,
		Fields:    fields,
		Submitted: submitted,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch out.Kind {
	case domain.OutcomeRedirect:
		http.Redirect(w, r, out.Target.JoinPath(s.basePath), http.StatusSeeOther)
	case domain.OutcomeRerender:
		writeJSON(w, http.StatusUnprocessableEntity, out)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrStepNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	// Client went away; there is nobody to answer.
	if r.Context().Err() != nil {
		s.logger.Info("request aborted", "path", r.URL.Path, "err", err)
		return
	}
	s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// session returns the session ID from the cookie, minting a new one if it is absent or malformed.
// Cookie values never reach the store unless they pass validID.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		if s.validID(c.Value) {
			return c.Value, nil
		}
		s.logger.Info("discarding malformed session cookie", "path", r.URL.Path)
	}
	id, err := s.newID()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// GetGraph handles GET /graph with a Mermaid flowchart of the steps.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(s.journey.Inspect(), nil)))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

type errorBody struct {
	Error string `json:"error"`
}

func readFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		fields := make(map[string]string)
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			return nil, err
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func isUUID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func newSessionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

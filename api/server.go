package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"seotools/catalog"
	"seotools/db"
	"seotools/imaging"
	"seotools/logging"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Config configures the Server.
type Config struct {
	// Addr to listen on (default: "0.0.0.0:5000")
	Addr string

	// CORSOrigin is sent as Access-Control-Allow-Origin (default: "*")
	CORSOrigin string

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP
	TrustProxy bool

	// RateLimitMax requests per RateLimitWindow per client IP on /api
	RateLimitMax    int
	RateLimitWindow time.Duration

	// OutputDir holds processed images served under /files/ (empty disables)
	OutputDir string

	// AdminPasswordHash is the bcrypt hash guarding /api/admin (empty disables)
	AdminPasswordHash string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Version reported by /api/health
	Version string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            "0.0.0.0:5000",
		CORSOrigin:      "*",
		RateLimitMax:    100,
		RateLimitWindow: 15 * time.Minute,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    90 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Version:         "dev",
	}
}

// Deps are the collaborators of the Server.
type Deps struct {
	Providers Providers
	Catalog   *catalog.Catalog
	// Usage records tool requests and backs the admin report (nil disables both)
	Usage UsageStore
	// Health is pinged by /api/health (optional)
	Health HealthChecker
	Logger *logging.Logger
}

// Server is the HTTP server for the tools API.
type Server struct {
	httpServer   *http.Server
	mux          *http.ServeMux
	config       Config
	providers    Providers
	catalog      *catalog.Catalog
	usage        UsageStore
	health       HealthChecker
	logger       *logging.Logger
	limiter      *RateLimiter
	loginLimiter *RateLimiter
	stream       *UsageStream
	stopStream   context.CancelFunc
	started      time.Time
}

// NewServer wires routes and middleware.
func NewServer(config Config, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Catalog == nil {
		c, err := catalog.Load()
		if err != nil {
			return nil, err
		}
		deps.Catalog = c
	}
	p := deps.Providers
	if p.Plagiarism == nil || p.Rewriter == nil || p.Text == nil || p.Images == nil || p.Domains == nil {
		return nil, errors.New("api: every provider must be set")
	}
	if config.AdminPasswordHash != "" {
		if err := ValidateHashStrength(config.AdminPasswordHash); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
	}
	if config.RateLimitMax < 1 || config.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("api: invalid rate limit %d per %s", config.RateLimitMax, config.RateLimitWindow)
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		config:       config,
		providers:    p,
		catalog:      deps.Catalog,
		usage:        deps.Usage,
		health:       deps.Health,
		logger:       deps.Logger.Named("api"),
		limiter:      NewRateLimiter(config.RateLimitMax, config.RateLimitWindow),
		loginLimiter: NewRateLimiter(DefaultLoginAttempts, DefaultLoginWindow),
		started:      time.Now(),
	}
	if s.AdminEnabled() {
		ctx, cancel := context.WithCancel(context.Background())
		s.stream = NewUsageStream(DefaultStreamConfig(), config.CORSOrigin, s.logger)
		s.stopStream = cancel
		go s.stream.Run(ctx)
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	s.logger.Info("API server created",
		zap.String("addr", config.Addr),
		zap.Int("tools", len(s.catalog.Tools)),
		zap.Bool("admin_enabled", s.AdminEnabled()),
		zap.Bool("usage_enabled", s.usage != nil))

	return s, nil
}

// setupRoutes configures all the HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/health", s.handleAPIHealth)
	s.mux.HandleFunc("GET /api/tools", s.handleCatalog)

	served := make(map[string]bool)
	for _, t := range s.tools() {
		if _, ok := s.catalog.Lookup(t.id); !ok {
			s.logger.Warn("tool missing from catalog", zap.String("tool", t.id))
		}
		s.mux.HandleFunc("POST "+catalog.EndpointPrefix+t.id, s.handleTool(t))
		served[t.id] = true
	}
	for _, id := range s.catalog.IDs() {
		if !served[id] {
			s.logger.Warn("catalog tool has no handler", zap.String("tool", id))
		}
	}

	if s.AdminEnabled() {
		s.mux.HandleFunc("GET /api/admin/usage", s.requireAdmin(s.handleAdminUsage))
		s.mux.HandleFunc("GET /api/admin/usage/stream", s.requireAdmin(s.handleUsageStream))
	}

	if s.config.OutputDir != "" {
		files := http.StripPrefix(imaging.FilesPath, http.FileServer(http.Dir(s.config.OutputDir)))
		s.mux.Handle("GET "+imaging.FilesPath, noDirectoryListing(files))
	}

	s.mux.HandleFunc("/", s.handleNotFound)
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var usage func(http.Handler) http.Handler
	if s.usage != nil {
		var publish func(db.UsageRecord)
		if s.stream != nil {
			publish = s.stream.Publish
		}
		usage = recordUsage(s.usage, s.catalog, s.logger, s.config.TrustProxy, publish)
	} else {
		usage = func(h http.Handler) http.Handler { return h }
	}

	skip := map[string]bool{"/health": true, "/api/health": true}
	return chain(s.mux,
		requestID,
		recovery(s.logger),
		accessLog(s.logger, s.config.TrustProxy, skip),
		cors(s.config.CORSOrigin),
		rateLimit(s.limiter, "/api/", s.config.TrustProxy, skip),
		usage,
	)
}

// AdminEnabled reports whether /api/admin routes are mounted.
func (s *Server) AdminEnabled() bool {
	return s.config.AdminPasswordHash != "" && s.usage != nil
}

// Addr returns the server's address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type apiHealth struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	h := apiHealth{
		Status:   "ok",
		Version:  s.config.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Database: "disabled",
	}
	status := http.StatusOK
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			h.Status = "degraded"
			h.Database = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			h.Database = "ok"
		}
	}
	writeJSON(w, status, h)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, s.catalog)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, MessageNotFound)
}

// noDirectoryListing hides directory indexes of the output directory.
func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			writeMessage(w, http.StatusNotFound, MessageNotFound)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening for HTTP requests and blocks until the server is
// shut down. Limiter cleanup runs until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.limiter.StartCleanupTicker(ctx, time.Minute)
	s.loginLimiter.StartCleanupTicker(ctx, time.Minute)

	s.logger.Info("API server starting", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	// Stream connections are hijacked, so Shutdown does not wait for them.
	if s.stopStream != nil {
		s.logger.Info("closing usage stream", zap.Int("clients", s.stream.Clients()))
		s.stopStream()
	}
	if err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}

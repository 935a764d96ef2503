package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/auth"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/authz"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/config"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/middleware"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/ratelimit/store"
)

// Server is the HTTP front of the authorization service.
type Server struct {
	config        *config.Config
	logger        observability.Logger
	tracer        *observability.Tracer
	verifier      auth.Verifier
	authenticator auth.Authenticator
	guard         *authz.Guard
	store         store.Store
	apiLimiter    *swappableLimiter
	authLimiter   *swappableLimiter
	strictLimiter *swappableLimiter
	httpServer    *http.Server
	version       string
}

// Option is a functional option for the server.
type Option func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithServerTracer sets the tracer.
func WithServerTracer(tracer *observability.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithStore sets the rate limit state store.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithVersion sets the version string reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a new server from the configuration.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	s := &Server{
		config:  cfg,
		logger:  observability.NopLogger(),
		version: "dev",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = store.NewMemoryStore()
	}

	s.verifier = auth.NewVerifier(&auth.VerifierConfig{
		Secret:    cfg.Auth.Secret(),
		Audience:  cfg.Auth.Audience,
		ClockSkew: cfg.Auth.ClockSkew,
	}, auth.WithVerifierLogger(s.logger))

	authenticator, err := auth.NewAuthenticator(s.verifier, auth.WithAuthenticatorLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.authenticator = authenticator

	s.guard = authz.NewGuard(authz.WithGuardLogger(s.logger))

	s.apiLimiter = newSwappableLimiter(s.buildLimiter(cfg.RateLimit.API))
	s.authLimiter = newSwappableLimiter(s.buildLimiter(cfg.RateLimit.Auth))
	s.strictLimiter = newSwappableLimiter(s.buildLimiter(cfg.RateLimit.Strict))

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return s, nil
}

// buildLimiter constructs a sliding window limiter for the profile, or
// a noop limiter when rate limiting is disabled.
func (s *Server) buildLimiter(profile ratelimit.Profile) ratelimit.Limiter {
	if !s.config.RateLimit.Enabled {
		return ratelimit.NewNoopLimiter()
	}
	return ratelimit.NewSlidingWindowLimiter(s.store, profile,
		ratelimit.WithLimiterLogger(s.logger),
	)
}

// ApplyRateLimits swaps in new limiter profiles. Used by the config
// watcher for hot reload.
func (s *Server) ApplyRateLimits(cfg config.RateLimitConfig) {
	s.config.RateLimit = cfg
	s.apiLimiter.Swap(s.buildLimiter(cfg.API))
	s.authLimiter.Swap(s.buildLimiter(cfg.Auth))
	s.strictLimiter.Swap(s.buildLimiter(cfg.Strict))

	s.logger.Info("rate limit profiles reloaded",
		observability.Int("api_max", cfg.API.MaxRequests),
		observability.Int("auth_max", cfg.Auth.MaxRequests),
		observability.Int("strict_max", cfg.Strict.MaxRequests),
	)
}

// routes builds the HTTP handler tree.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	requireAuth := s.authenticator.Middleware()
	optionalAuth := s.authenticator.OptionalMiddleware()

	apiLimit := middleware.RateLimit(s.apiLimiter,
		ratelimit.ScopedKeyFunc(s.config.RateLimit.API.Scope), s.logger)
	authLimit := middleware.RateLimit(s.authLimiter,
		ratelimit.ScopedKeyFunc(s.config.RateLimit.Auth.Scope), s.logger)
	strictLimit := middleware.RateLimit(s.strictLimiter,
		ratelimit.ScopedKeyFunc(s.config.RateLimit.Strict.Scope), s.logger)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /v1/auth/verify", chain(http.HandlerFunc(s.handleVerify),
		authLimit))

	mux.Handle("GET /v1/me", chain(http.HandlerFunc(s.handleMe),
		apiLimit, requireAuth))

	mux.Handle("GET /v1/status", chain(http.HandlerFunc(s.handleStatus),
		apiLimit, optionalAuth))

	mux.Handle("GET /v1/tenant/info", chain(http.HandlerFunc(s.handleTenantInfo),
		apiLimit, requireAuth,
		s.guard.Middleware(authz.Tenant(), authz.Role(authz.RoleViewer))))

	mux.Handle("POST /v1/tenant/keys", chain(http.HandlerFunc(s.handleTenantKeys),
		apiLimit, requireAuth,
		s.guard.Middleware(authz.Tenant(), authz.Role(authz.RoleAdmin), authz.Permission("keys:write"))))

	mux.Handle("GET /v1/admin/stats", chain(http.HandlerFunc(s.handleAdminStats),
		strictLimit, requireAuth,
		s.guard.Middleware(authz.PlatformAdmin())))

	var handler http.Handler = mux
	if s.tracer != nil {
		handler = observability.TracingMiddleware(s.tracer)(handler)
	}
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}

// chain applies middlewares left to right, outermost first.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Start begins serving. It blocks until the listener fails or the
// server is stopped.
func (s *Server) Start() error {
	s.logger.Info("starting http server",
		observability.String("addr", s.config.Server.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server and releases limiter state.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")

	err := s.httpServer.Shutdown(ctx)
	if closeErr := s.store.Close(); err == nil {
		err = closeErr
	}
	return err
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/filekeep/api/filekeep" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

type Config struct {
	Version        string
	TrustProxy     bool
	SecureCookies  bool
	CSRF           *httpx.CSRFGuard
	RateLimits     httpx.RateLimits
	MaxUploadBytes int64
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	cfg       Config
	startTime time.Time
	logger    *slog.Logger
	required  map[string]Pinger
	optional  map[string]Pinger

	AuthService       *service.AuthService
	Identities        *service.IdentityCache
	StorageService    *service.StorageService
	ConversionService *service.ConversionService // nil when no converter is configured
}

func NewRouter(cfg Config, logger *slog.Logger) *Router {
	if cfg.CSRF == nil {
		cfg.CSRF = &httpx.CSRFGuard{Enabled: true, Secure: cfg.SecureCookies}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = service.DefaultMaxUploadBytes
	}
	if cfg.RateLimits == (httpx.RateLimits{}) {
		cfg.RateLimits = httpx.DefaultRateLimits()
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		cfg:       cfg,
		startTime: time.Now(),
		logger:    logger,
		required:  make(map[string]Pinger),
		optional:  make(map[string]Pinger),
	}

	// Metrics must stay innermost so it sees the pattern the mux matched.
	r.middlewares = []httpx.Middleware{
		httpx.RealIP(cfg.TrustProxy),
		slogx.HTTPMiddleware(r.logger),
		cfg.CSRF.IssueCookie(),
		httpx.Metrics(),
	}
	r.handler = httpx.Chain(r.Mux, r.middlewares...)
	return r
}

// AddReadinessCheck registers a dependency for /readyz. Only required
// checks can fail the probe.
func (r *Router) AddReadinessCheck(name string, p Pinger, required bool) {
	if required {
		r.required[name] = p
		return
	}
	r.optional[name] = p
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMe()
	r.registerFiles()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						filekeep API
//	@version					0.1.0
//	@description				Authenticated file storage with per-user quotas and background model conversion.
//	@description
//	@description				Browser clients authenticate with the access_token cookie and must echo the csrf_token
//	@description				cookie in the X-CSRF-Token header on unsafe requests. API clients use a bearer token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/filekeep
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// authenticated is the chain shared by every endpoint that needs a session.
// Cookie sessions must pass the CSRF check on unsafe methods.
func (r *Router) authenticated(h http.Handler, limit httpx.RateLimitConfig, scopes ...string) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(sessionAuthenticator{auth: r.AuthService}, SessionCookieName),
		httpx.RequireAnyScope(scopes...),
		r.cfg.CSRF.Protect(true),
		httpx.RateLimitBySubject(limit),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:   r.AuthService,
		CSRF:          r.cfg.CSRF,
		SecureCookies: r.cfg.SecureCookies,
	}
	limits := r.cfg.RateLimits

	r.Mux.Handle("GET /v1/auth/csrf",
		httpx.Chain(http.HandlerFunc(h.HandleCSRF),
			httpx.RateLimitByIP(limits.Public),
		),
	)

	// Login also has its own per-address attempt limiter in AuthService.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(limits.Strict),
			r.cfg.CSRF.Protect(true),
		),
	)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(limits.Strict),
			r.cfg.CSRF.Protect(true),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(limits.Moderate),
			r.cfg.CSRF.Protect(true),
		),
	)
}

func (r *Router) registerMe() {
	h := &MeHandler{
		AuthService:    r.AuthService,
		Identities:     r.Identities,
		StorageService: r.StorageService,
	}
	limits := r.cfg.RateLimits

	r.Mux.Handle("GET /v1/me", r.authenticated(http.HandlerFunc(h.HandleMe), limits.Lenient, httpx.ScopeFiles))
	r.Mux.Handle("GET /v1/me/usage", r.authenticated(http.HandlerFunc(h.HandleUsage), limits.Lenient, httpx.ScopeFiles))
	r.Mux.Handle("POST /v1/me/password", r.authenticated(http.HandlerFunc(h.HandleChangePassword), limits.Strict, httpx.ScopeFiles))
}

func (r *Router) registerFiles() {
	h := &FilesHandler{
		StorageService:    r.StorageService,
		ConversionService: r.ConversionService,
		MaxUploadBytes:    r.cfg.MaxUploadBytes,
	}
	limits := r.cfg.RateLimits

	r.Mux.Handle("GET /v1/files", r.authenticated(http.HandlerFunc(h.HandleList), limits.Lenient, httpx.ScopeFiles))
	r.Mux.Handle("POST /v1/files", r.authenticated(http.HandlerFunc(h.HandleUpload), limits.Moderate, httpx.ScopeFiles))
	r.Mux.Handle("GET /v1/files/{name}", r.authenticated(http.HandlerFunc(h.HandleDownload), limits.Lenient, httpx.ScopeFiles))
	r.Mux.Handle("HEAD /v1/files/{name}", r.authenticated(http.HandlerFunc(h.HandleHead), limits.Lenient, httpx.ScopeFiles))
	r.Mux.Handle("DELETE /v1/files/{name}", r.authenticated(http.HandlerFunc(h.HandleDelete), limits.Moderate, httpx.ScopeFiles))
	r.Mux.Handle("POST /v1/files/{name}/convert", r.authenticated(http.HandlerFunc(h.HandleConvert), limits.Moderate, httpx.ScopeFiles))
	r.Mux.Handle("GET /v1/converter/health", r.authenticated(http.HandlerFunc(h.HandleConverterHealth), limits.Moderate, httpx.ScopeFiles))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AuthService: r.AuthService}
	limits := r.cfg.RateLimits

	r.Mux.Handle("PUT /v1/admin/identities/{id}/quota", r.authenticated(http.HandlerFunc(h.HandleSetQuota), limits.Moderate, httpx.ScopeAdmin))
	r.Mux.Handle("PUT /v1/admin/identities/{id}/active", r.authenticated(http.HandlerFunc(h.HandleSetActive), limits.Moderate, httpx.ScopeAdmin))
}

func (r *Router) registerSystem() {
	limits := r.cfg.RateLimits

	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.cfg.Version),
			httpx.RateLimitByIP(limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.cfg.Version, r.required, r.optional),
			httpx.RateLimitByIP(limits.Public),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}

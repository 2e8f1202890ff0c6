package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/service"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/store"
	"github.com/Auth-ism/ann-ai-backend/pkg/httpx"
	"github.com/Auth-ism/ann-ai-backend/pkg/jwtx"
	"github.com/Auth-ism/ann-ai-backend/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	blacklist store.Blacklist

	SessionService *service.SessionService
	UserService    *service.UserService
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	bl store.Blacklist,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		blacklist:    bl,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORSMiddleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn verifies the bearer token and rejects revoked sessions.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.codec, r.blacklist)
}

func (r *Router) registerAuth() {
	h := &SessionHandler{SessionService: r.SessionService}

	r.Mux.Handle("POST /api/auth/register", http.HandlerFunc(h.HandleRegister))
	r.Mux.Handle("POST /api/auth/login", http.HandlerFunc(h.HandleLogin))

	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout), r.authn()),
	)
	r.Mux.Handle("GET /api/auth/test-auth",
		httpx.Chain(http.HandlerFunc(h.HandleTestAuth), r.authn()),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	authed := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next, r.authn())
	}
	adminOnly := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next, r.authn(), httpx.RequireRole("admin"))
	}

	// Self-or-admin rules that depend on the target id live in the handlers.
	r.Mux.Handle("GET /api/users", adminOnly(h.HandleList))
	r.Mux.Handle("GET /api/users/{id}", authed(h.HandleGet))
	r.Mux.Handle("GET /api/users/email/{email}", adminOnly(h.HandleGetByEmail))
	r.Mux.Handle("GET /api/users/search/{query}", adminOnly(h.HandleSearch))
	r.Mux.Handle("GET /api/users/recent", adminOnly(h.HandleRecent))

	r.Mux.Handle("PUT /api/users", authed(h.HandleUpdateProfile))
	r.Mux.Handle("PUT /api/users/password", authed(h.HandleChangePassword))
	r.Mux.Handle("PUT /api/users/{id}/role", adminOnly(h.HandleUpdateRole))

	r.Mux.Handle("DELETE /api/users/{id}", adminOnly(h.HandleDeactivate))
	r.Mux.Handle("POST /api/users/{id}/activate", adminOnly(h.HandleActivate))
	r.Mux.Handle("POST /api/users/{id}/verify-email", authed(h.HandleVerifyEmail))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /health", HealthHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /health/ready", ReadyHandler(r.startTime, r.buildVersion, r.store, r.blacklist))
}

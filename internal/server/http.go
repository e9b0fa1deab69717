// Package server assembles the HTTP API: route registration and the
// middleware chain (tracing, client address capture, rate limiting on auth
// endpoints, bearer authentication on protected endpoints).
package server

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	healthhandler "taskvault/backend/internal/health/handler"
	identityhandler "taskvault/backend/internal/identity/handler"
	"taskvault/backend/internal/ratelimit"
	"taskvault/backend/internal/security"
	"taskvault/backend/internal/server/middleware"
	todohandler "taskvault/backend/internal/todo/handler"
	userhandler "taskvault/backend/internal/user/handler"
)

// Deps holds everything the route assembly needs.
type Deps struct {
	Tokens  *security.TokenProvider
	Users   middleware.UserGetter
	Limiter *ratelimit.Limiter
	Tracer  trace.Tracer
	Auth    *identityhandler.AuthHandler
	User    *userhandler.UserHandler
	Todo    *todohandler.TodoHandler
	Health  *healthhandler.HealthHandler
}

// NewHandler builds the full request handler. Control flow for protected
// routes: client address capture, tracing, rate limiter (auth routes only),
// token verification and live user lookup, then the handler.
func NewHandler(d Deps) http.Handler {
	mux := http.NewServeMux()

	d.Health.Register(mux)
	d.User.RegisterPublic(mux)

	authMux := http.NewServeMux()
	d.Auth.Register(authMux)
	mux.Handle("/api/auth/", middleware.RateLimitAuth(d.Limiter)(authMux))

	protectedMux := http.NewServeMux()
	d.User.RegisterProtected(protectedMux)
	d.Todo.RegisterProtected(protectedMux)
	protected := middleware.Authenticate(d.Tokens, d.Users)(protectedMux)
	mux.Handle("/api/users/me", protected)
	mux.Handle("/api/users/all", protected)
	mux.Handle("/api/todos", protected)
	mux.Handle("/api/todos/", protected)

	var handler http.Handler = mux
	handler = middleware.ClientIP(handler)
	if d.Tracer != nil {
		handler = middleware.Trace(d.Tracer)(handler)
	}
	return handler
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskvault/backend/internal/audit"
	auditrepo "taskvault/backend/internal/audit/repository"
	"taskvault/backend/internal/config"
	"taskvault/backend/internal/db"
	"taskvault/backend/internal/health/handler"
	"taskvault/backend/internal/identity/bridge"
	identityhandler "taskvault/backend/internal/identity/handler"
	identityservice "taskvault/backend/internal/identity/service"
	"taskvault/backend/internal/ratelimit"
	"taskvault/backend/internal/security"
	"taskvault/backend/internal/server"
	"taskvault/backend/internal/telemetry/otel"
	todohandler "taskvault/backend/internal/todo/handler"
	todorepo "taskvault/backend/internal/todo/repository"
	todoservice "taskvault/backend/internal/todo/service"
	userhandler "taskvault/backend/internal/user/handler"
	userrepo "taskvault/backend/internal/user/repository"
	userservice "taskvault/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "taskvault-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens, err := security.NewTokenProvider([]byte(cfg.SecretKey), cfg.Algorithm, cfg.AccessTokenTTL())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	limiter := ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitWindow())
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Sweep()
			case <-sweepDone:
				return
			}
		}
	}()
	defer close(sweepDone)

	auditLogger := audit.NewLogger(
		auditrepo.NewPostgresRepository(database),
		providers.LoggerProvider.Logger("taskvault-auth"),
	)

	users := userrepo.NewPostgresRepository(database)
	userSvc := userservice.New(users, hasher)
	todoSvc := todoservice.New(todorepo.NewPostgresRepository(database))
	authSvc := identityservice.NewAuthService(users, hasher, tokens, auditLogger)

	var googleBridge *bridge.GoogleBridge
	if cfg.GoogleBridgeEnabled() {
		googleBridge = bridge.NewGoogleBridge(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, userSvc)
	} else {
		log.Println("google identity bridge not configured; bridge endpoints disabled")
	}

	apiHandler := server.NewHandler(server.Deps{
		Tokens:  tokens,
		Users:   users,
		Limiter: limiter,
		Tracer:  providers.TracerProvider.Tracer("taskvault-api"),
		Auth:    identityhandler.NewAuthHandler(authSvc, googleBridge, auditLogger),
		User:    userhandler.NewUserHandler(userSvc, auditLogger),
		Todo:    todohandler.NewTodoHandler(todoSvc),
		Health:  handler.NewHealthHandler(database),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apiHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

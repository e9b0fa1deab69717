package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"taskvault/backend/internal/audit"
	"taskvault/backend/internal/identity/bridge"
	"taskvault/backend/internal/identity/service"
	"taskvault/backend/internal/server/httperr"
)

// oauthStateCookie carries the anti-forgery state between the redirect and
// the callback. Short-lived; there is no server-side session store.
const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type callbackUserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type callbackResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	UserInfo    callbackUserInfo `json:"user_info"`
}

// AuthHandler serves the login endpoint and the external identity bridge
// endpoints. bridge may be nil when the bridge is not configured; the
// google routes are then not registered.
type AuthHandler struct {
	auth   *service.AuthService
	bridge *bridge.GoogleBridge
	audit  audit.AuditLogger
}

// NewAuthHandler returns an AuthHandler with the given dependencies.
func NewAuthHandler(auth *service.AuthService, googleBridge *bridge.GoogleBridge, auditLogger audit.AuditLogger) *AuthHandler {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &AuthHandler{auth: auth, bridge: googleBridge, audit: auditLogger}
}

// Register adds the auth routes to mux. All of them sit behind the auth rate
// limiter; the caller wraps with that middleware.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.login)
	if h.bridge != nil {
		mux.HandleFunc("GET /api/auth/google-login", h.googleLogin)
		mux.HandleFunc("GET /api/auth/google/callback", h.googleCallback)
	}
}

// login accepts username(=email)+password form fields and returns a bearer
// access token. Bad credentials of any kind are a single 401.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperr.Write(w, httperr.Validation("malformed form body"))
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	res, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httperr.Write(w, httperr.Unauthorized("Incorrect username or password"))
			return
		}
		log.Printf("auth: login failed: %v", err)
		httperr.Write(w, httperr.Internal("Authentication service error"))
		return
	}
	httperr.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: res.AccessToken, TokenType: "bearer"})
}

// googleLogin redirects to the provider's consent screen with a fresh
// anti-forgery state bound to a short-lived cookie.
func (h *AuthHandler) googleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.bridge.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// googleCallback receives the provider's assertion, finds or provisions the
// local identity, and issues a token exactly as password login does.
func (h *AuthHandler) googleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		httperr.Write(w, httperr.BadRequest("Invalid OAuth state"))
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		httperr.Write(w, httperr.BadRequest("Missing authorization code"))
		return
	}

	assertion, err := h.bridge.ExchangeCode(r.Context(), code)
	if err != nil {
		h.audit.LogEvent(r.Context(), 0, audit.ActionBridgeFailure, "auth", err.Error())
		switch {
		case errors.Is(err, bridge.ErrNoEmail):
			httperr.Write(w, httperr.BadRequest("Email not provided by identity provider"))
		default:
			httperr.Write(w, httperr.BadGateway("Authentication failed"))
		}
		return
	}
	u, err := h.bridge.Resolve(r.Context(), assertion)
	if err != nil {
		log.Printf("auth: bridge resolve failed: %v", err)
		httperr.Write(w, httperr.Internal("Authentication failed"))
		return
	}
	h.audit.LogEvent(r.Context(), u.ID, audit.ActionBridgeExchange, "auth", "google "+assertion.Email)

	res, err := h.auth.IssueFor(r.Context(), u)
	if err != nil {
		log.Printf("auth: token issue failed: %v", err)
		httperr.Write(w, httperr.Internal("Authentication failed"))
		return
	}
	httperr.WriteJSON(w, http.StatusOK, callbackResponse{
		AccessToken: res.AccessToken,
		TokenType:   "bearer",
		UserInfo: callbackUserInfo{
			ID:       u.ID,
			Email:    u.Email,
			Username: u.Username,
			Role:     string(u.Role),
		},
	})
}

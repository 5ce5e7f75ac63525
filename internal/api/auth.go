package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/athena-router/athena-router/internal/config"
)

// session represents an authenticated admin-API session.
type session struct {
	Username  string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthMiddleware handles Bearer token, session cookie, and Basic auth
// against local users and (if wired) a RADIUS backend.
type AuthMiddleware struct {
	bearerToken  string
	users        []config.UserConfig
	cookieName   string
	cookieSecure bool
	sessionTTL   time.Duration
	radius       RadiusAuthenticator
	logger       *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// RadiusAuthenticator authenticates a username/password pair against a
// RADIUS server, returning the granted role on success.
type RadiusAuthenticator interface {
	Authenticate(username, password string) (role string, ok bool)
}

// NewAuthMiddleware creates the admin API's auth middleware.
func NewAuthMiddleware(cfg config.APIConfig, logger *slog.Logger) *AuthMiddleware {
	ttl, err := time.ParseDuration(cfg.Session.Expiry)
	if err != nil {
		ttl = 24 * time.Hour
	}

	a := &AuthMiddleware{
		bearerToken:  cfg.Auth.AuthToken,
		users:        cfg.Auth.Users,
		cookieName:   cfg.Session.CookieName,
		cookieSecure: cfg.Session.Secure,
		sessionTTL:   ttl,
		logger:       logger,
		sessions:     make(map[string]*session),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			a.cleanExpired()
		}
	}()

	return a
}

// WithRADIUS wires a RADIUS backend as a fallback credential check.
func (a *AuthMiddleware) WithRADIUS(r RadiusAuthenticator) *AuthMiddleware {
	a.radius = r
	return a
}

// RequireAuth wraps a handler to require authentication (any role).
func (a *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.authenticate(r) {
			JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next(w, r)
	}
}

// RequireAdmin wraps a handler to require the admin role.
func (a *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := a.authenticateAndGetRole(r)
		if role == "" {
			JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if role != "admin" {
			JSONError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next(w, r)
	}
}

func (a *AuthMiddleware) authenticate(r *http.Request) bool {
	return a.authenticateAndGetRole(r) != ""
}

func (a *AuthMiddleware) authenticateAndGetRole(r *http.Request) string {
	if a.bearerToken == "" && len(a.users) == 0 {
		return "admin"
	}

	if cookie, err := r.Cookie(a.cookieName); err == nil {
		if sess := a.getSession(cookie.Value); sess != nil {
			return sess.Role
		}
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if a.bearerToken != "" && token == a.bearerToken {
				return "admin"
			}
		}
		if strings.HasPrefix(authHeader, "Basic ") {
			username, password, ok := r.BasicAuth()
			if ok {
				return a.checkCredentials(username, password)
			}
		}
	}

	if token := r.URL.Query().Get("token"); token != "" {
		if a.bearerToken != "" && token == a.bearerToken {
			return "admin"
		}
	}

	return ""
}

// checkCredentials validates against local users first, then the
// RADIUS backend if one is wired.
func (a *AuthMiddleware) checkCredentials(username, password string) string {
	a.mu.RLock()
	users := make([]config.UserConfig, len(a.users))
	copy(users, a.users)
	a.mu.RUnlock()

	for _, user := range users {
		if user.Username == username {
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err == nil {
				role := user.Role
				if role == "" {
					role = "viewer"
				}
				return role
			}
			return ""
		}
	}

	if a.radius != nil {
		if role, ok := a.radius.Authenticate(username, password); ok {
			return role
		}
	}

	return ""
}

// AuthRequired reports whether any credential is configured.
func (a *AuthMiddleware) AuthRequired() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bearerToken != "" || len(a.users) > 0
}

func (a *AuthMiddleware) createSession(username, role string) string {
	b := make([]byte, 32)
	rand.Read(b)
	id := hex.EncodeToString(b)

	a.mu.Lock()
	a.sessions[id] = &session{
		Username:  username,
		Role:      role,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(a.sessionTTL),
	}
	a.mu.Unlock()

	return id
}

func (a *AuthMiddleware) getSession(id string) *session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	sess, ok := a.sessions[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil
	}
	return sess
}

func (a *AuthMiddleware) deleteSession(id string) {
	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()
}

func (a *AuthMiddleware) cleanExpired() {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	for id, sess := range a.sessions {
		if now.After(sess.ExpiresAt) {
			delete(a.sessions, id)
		}
	}
}

func (a *AuthMiddleware) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		JSONError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	role := a.checkCredentials(body.Username, body.Password)
	if role == "" {
		a.logger.Warn("failed admin login attempt", "username", body.Username)
		JSONError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	sessionID := a.createSession(body.Username, role)
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.sessionTTL.Seconds()),
	})

	a.logger.Info("admin login", "username", body.Username, "role", role)
	JSONResponse(w, http.StatusOK, map[string]string{"username": body.Username, "role": role})
}

func (a *AuthMiddleware) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		a.deleteSession(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	JSONResponse(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (a *AuthMiddleware) handleMe(w http.ResponseWriter, r *http.Request) {
	if !a.AuthRequired() {
		JSONResponse(w, http.StatusOK, map[string]any{
			"authenticated": true, "username": "admin", "role": "admin", "auth_required": false,
		})
		return
	}
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		if sess := a.getSession(cookie.Value); sess != nil {
			JSONResponse(w, http.StatusOK, map[string]any{
				"authenticated": true, "username": sess.Username, "role": sess.Role, "auth_required": true,
			})
			return
		}
	}
	if role := a.authenticateAndGetRole(r); role != "" {
		JSONResponse(w, http.StatusOK, map[string]any{
			"authenticated": true, "username": "api", "role": role, "auth_required": true,
		})
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"authenticated": false, "auth_required": true})
}

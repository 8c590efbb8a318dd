package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/observability/metrics"
	"github.com/openfolio/portfolio-api/internal/observability/statsd"
	"github.com/openfolio/portfolio-api/internal/service"
)

// AuthControllerInterface defines the controller operations the auth
// handlers depend on.
type AuthControllerInterface interface {
	Login(ctx context.Context, creds domainauth.Credentials) (*domainauth.Session, error)
	Logout(ctx context.Context) error
	CurrentState() domainauth.AuthState
}

// AdminSessionManager issues and revokes the cookie-bound admin sessions.
type AdminSessionManager interface {
	Issue(ctx context.Context, sess *domainauth.Session, role domainauth.Role) (domainauth.AdminSession, error)
	Get(ctx context.Context, id string) (*domainauth.AdminSession, error)
	Revoke(ctx context.Context, id string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Auth         AuthControllerInterface
	Sessions     AdminSessionManager
	CookieDomain string
	Logger       *slog.Logger
	Metrics      statsd.Sink // optional
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login handles the credential login endpoint.
// POST /auth/login with a JSON email/password body.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if !DecodeJSON(w, r, &creds) {
		return
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("email and password are required"),
		})
		return
	}

	sess, err := h.Auth.Login(r.Context(), creds)
	if err != nil {
		metrics.EmitAuthEvent(h.Metrics, metrics.AuthEventMetric{Event: "login", Result: metrics.ResultError, Err: err})
		h.writeLoginError(w, r, err)
		return
	}
	metrics.EmitAuthEvent(h.Metrics, metrics.AuthEventMetric{Event: "login", Result: metrics.ResultSuccess})

	admin, err := h.Sessions.Issue(r.Context(), sess, domainauth.RoleAdmin)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "issuing admin session failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "session_issue_failed",
			Err:     errors.New("could not establish session"),
		})
		return
	}

	h.setSessionCookie(w, r, admin)
	WriteJSON(w, http.StatusOK, statusResponse(h.Auth.CurrentState(), &admin))
}

// writeLoginError maps controller login failures to responses. Rejected
// credentials and authorized-but-not-admin identities produce the same
// message, so the endpoint cannot be used to probe which accounts exist.
func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNotAuthorized):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "login_failed",
			Err:     errors.New("invalid email or password"),
		})
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger().ErrorContext(r.Context(), "login backend unavailable", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "auth_backend_unavailable",
			Err:     errors.New("authentication backend unavailable"),
		})
	default:
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("login failed"),
		})
	}
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(AdminSessionCookie); err == nil && cookie.Value != "" {
		if revokeErr := h.Sessions.Revoke(r.Context(), cookie.Value); revokeErr != nil {
			h.logger().WarnContext(r.Context(), "revoking admin session failed", "error", revokeErr)
		}
	}
	h.clearCookie(w, r, AdminSessionCookie)

	if err := h.Auth.Logout(r.Context()); err != nil {
		metrics.EmitAuthEvent(h.Metrics, metrics.AuthEventMetric{Event: "logout", Result: metrics.ResultError, Err: err})
		h.logger().ErrorContext(r.Context(), "backend sign-out failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "logout_failed",
			Err:     errors.New("sign-out could not be completed"),
		})
		return
	}

	metrics.EmitAuthEvent(h.Metrics, metrics.AuthEventMetric{Event: "logout", Result: metrics.ResultSuccess})

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
		return
	}
	redirectURI := safeRedirectPath(r.FormValue("redirect_uri"))
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	state := h.Auth.CurrentState()

	var admin *domainauth.AdminSession
	if cookie, err := r.Cookie(AdminSessionCookie); err == nil && cookie.Value != "" {
		if sess, getErr := h.Sessions.Get(r.Context(), cookie.Value); getErr == nil {
			admin = sess
		} else {
			h.clearCookie(w, r, AdminSessionCookie)
		}
	}

	WriteJSON(w, http.StatusOK, statusResponse(state, admin))
}

// statusResponse shapes the auth state for API consumers. The admin flag
// is reported only while the browser also holds a live admin session.
func statusResponse(state domainauth.AuthState, admin *domainauth.AdminSession) map[string]any {
	resp := map[string]any{
		"authenticated": admin != nil && state.Authenticated(),
		"is_admin":      admin != nil && Allowed(state),
		"loading":       state.Loading,
	}
	if admin != nil && state.Identity != nil {
		resp["user"] = map[string]any{
			"id":    state.Identity.ID,
			"email": state.Identity.Email,
		}
		resp["expires_at"] = admin.ExpiresAt
	}
	return resp
}

// clearCookie clears a cookie by setting it to expire immediately. It
// mirrors key attributes (Secure, Path, Domain, SameSite) used when
// setting cookies to maximize compatibility across browsers.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie writes the admin session cookie based on its expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.AdminSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

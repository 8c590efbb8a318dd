package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/observability/metrics"
	"github.com/openfolio/portfolio-api/internal/observability/statsd"
)

// AdminSessionCookie is the cookie carrying the admin-area session ID.
const AdminSessionCookie = "admin_session"

// DefaultLoginPath is where browser requests are sent to authenticate.
const DefaultLoginPath = "/auth/login"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Metrics returns a middleware that emits request count and latency
// metrics for every served request.
func Metrics(sink statsd.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			metrics.EmitHTTPRequest(sink, metrics.HTTPRequestMetric{
				Method:   r.Method,
				Path:     r.URL.Path,
				Status:   ww.status,
				Duration: time.Since(start),
			})
		})
	}
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AuthStateProvider yields the current process-wide authentication state.
// Implemented by service.AuthController.
type AuthStateProvider interface {
	CurrentState() domainauth.AuthState
}

// AdminSessionGetter validates an admin session ID. Implemented by
// service.AdminSessionService; expired or unknown IDs return an error.
type AdminSessionGetter interface {
	Get(ctx context.Context, id string) (*domainauth.AdminSession, error)
}

// GuardOptions groups the dependencies of the admin route guard.
type GuardOptions struct {
	State    AuthStateProvider
	Sessions AdminSessionGetter

	// LoginPath is where unauthenticated browser requests are redirected.
	// Defaults to DefaultLoginPath.
	LoginPath string
}

// Allowed reports whether the state admits a request into the admin area.
// A loading state never admits; neither does a signed-in non-admin.
func Allowed(state domainauth.AuthState) bool {
	return !state.Loading && state.IsAdmin
}

// RequireAdmin returns the admin route guard. It is evaluated on every
// request against the live auth state, never as a one-time check:
//
//   - while the initial session check is still running, requests get a
//     503 with Retry-After instead of a premature allow/deny decision;
//   - unauthenticated or non-admin requests are redirected to the login
//     entry point (browsers) or get a 401/403 (API clients);
//   - admitted requests carry the validated admin session in context.
func RequireAdmin(opts GuardOptions) func(http.Handler) http.Handler {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := opts.State.CurrentState()
			if state.Loading {
				w.Header().Set("Retry-After", "1")
				WriteError(w, ErrorParams{
					Code:    http.StatusServiceUnavailable,
					ErrCode: "auth_initializing",
					Err:     errors.New("authentication state is initializing"),
				})
				return
			}

			session := adminSessionFromRequest(r, opts.Sessions)
			if session == nil {
				denyUnauthenticated(w, r, loginPath)
				return
			}

			// The cookie alone does not admit: the live state must still
			// carry the admin flag for the same identity, so a demotion or
			// an ended backend session locks the admin area immediately.
			if !Allowed(state) || !session.Role.IsAdmin() ||
				state.Identity == nil || state.Identity.ID != session.UserID {
				denyForbidden(w, r, loginPath)
				return
			}

			ctx := SetAdminSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminSessionFromRequest retrieves and validates the admin session bound
// to the request cookie. Any validation failure reads as "no session".
func adminSessionFromRequest(r *http.Request, sessions AdminSessionGetter) *domainauth.AdminSession {
	cookie, err := r.Cookie(AdminSessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	session, err := sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request, loginPath string) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	redirectToLogin(w, r, loginPath)
}

func denyForbidden(w http.ResponseWriter, r *http.Request, loginPath string) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}
	redirectToLogin(w, r, loginPath)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	u := url.URL{Path: loginPath}
	q := url.Values{}
	q.Set("redirect_uri", safeRedirectPath(r.URL.RequestURI()))
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// wantsJSON classifies the request as an API client rather than a
// navigating browser.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// safeRedirectPath ensures the provided redirect is a same-origin relative
// path starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

package httpx

import (
	"log/slog"
	"net/http"

	"github.com/openfolio/portfolio-api/internal/observability/statsd"
	"github.com/openfolio/portfolio-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          AuthControllerInterface
	AdminSessions AdminSessionManager
	Profile       *service.ProfileService
	Projects      *service.ProjectService
	Skills        *service.SkillService
	Contact       *service.ContactService
	Media         *service.MediaService

	CookieDomain string
	// LoginPath overrides where the guard redirects browsers; optional.
	LoginPath string
	Logger    *slog.Logger // Logger for HTTP errors (optional)
	Metrics   statsd.Sink  // Metrics sink for request metrics (optional)
}

// NewRouter creates and configures the HTTP router: public reads, the
// auth endpoints, and the admin area behind the route guard.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandlers := &AuthHandlers{
		Auth:         services.Auth,
		Sessions:     services.AdminSessions,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
		Metrics:      services.Metrics,
	}
	profileHandlers := &ProfileHandlers{Svc: services.Profile}
	projectHandlers := &ProjectHandlers{Svc: services.Projects}
	skillHandlers := &SkillHandlers{Svc: services.Skills}
	contactHandlers := &ContactHandlers{Svc: services.Contact}

	// Auth endpoints.
	mux.Handle("POST /auth/login", http.HandlerFunc(authHandlers.Login))
	mux.Handle("POST /auth/logout", http.HandlerFunc(authHandlers.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(authHandlers.Status))

	// Public reads and the contact form.
	mux.Handle("GET /api/profile", http.HandlerFunc(profileHandlers.Get))
	mux.Handle("GET /api/projects", http.HandlerFunc(projectHandlers.List))
	mux.Handle("GET /api/projects/{id}", http.HandlerFunc(projectHandlers.GetByID))
	mux.Handle("GET /api/skills", http.HandlerFunc(skillHandlers.List))
	mux.Handle("POST /api/contact", http.HandlerFunc(contactHandlers.Submit))

	// Admin area, every route behind the guard.
	guard := RequireAdmin(GuardOptions{
		State:     services.Auth,
		Sessions:  services.AdminSessions,
		LoginPath: services.LoginPath,
	})
	registerAdminRoutes(mux, guard, adminHandlers{
		Profile:  profileHandlers,
		Projects: projectHandlers,
		Skills:   skillHandlers,
		Contact:  contactHandlers,
		Uploads:  &UploadHandlers{Svc: services.Media},
	})

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	var handler http.Handler = Logging(logger)(mux)
	if services.Metrics != nil {
		handler = Metrics(services.Metrics)(handler)
	}
	return Recover(logger)(handler)
}

// adminHandlers groups the handlers mounted behind the route guard.
type adminHandlers struct {
	Profile  *ProfileHandlers
	Projects *ProjectHandlers
	Skills   *SkillHandlers
	Contact  *ContactHandlers
	Uploads  *UploadHandlers
}

func registerAdminRoutes(mux *http.ServeMux, guard func(http.Handler) http.Handler, h adminHandlers) {
	admin := func(fn http.HandlerFunc) http.Handler { return guard(fn) }

	mux.Handle("PUT /api/profile", admin(h.Profile.Update))

	mux.Handle("GET /api/admin/projects", admin(h.Projects.ListAll))
	mux.Handle("POST /api/admin/projects", admin(h.Projects.Create))
	mux.Handle("PUT /api/admin/projects/{id}", admin(h.Projects.Update))
	mux.Handle("DELETE /api/admin/projects/{id}", admin(h.Projects.Delete))

	mux.Handle("POST /api/admin/skills", admin(h.Skills.Create))
	mux.Handle("PUT /api/admin/skills/{id}", admin(h.Skills.Update))
	mux.Handle("DELETE /api/admin/skills/{id}", admin(h.Skills.Delete))

	mux.Handle("GET /api/admin/contact", admin(h.Contact.List))
	mux.Handle("DELETE /api/admin/contact/{id}", admin(h.Contact.Delete))

	mux.Handle("POST /api/admin/uploads", admin(h.Uploads.Upload))
}

package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/openfolio/portfolio-api/internal/domain/auth"
	"github.com/openfolio/portfolio-api/internal/domain/model"
	mockcore "github.com/openfolio/portfolio-api/internal/mocks/core"
	"github.com/openfolio/portfolio-api/internal/service"
)

// stubAuthController satisfies AuthControllerInterface with a fixed state.
type stubAuthController struct {
	state domainauth.AuthState
}

func (s stubAuthController) Login(context.Context, domainauth.Credentials) (*domainauth.Session, error) {
	return nil, nil
}
func (s stubAuthController) Logout(context.Context) error       { return nil }
func (s stubAuthController) CurrentState() domainauth.AuthState { return s.state }

// stubSessionManager extends stubSessions with no-op issue/revoke.
type stubSessionManager struct {
	stubSessions
}

func (s stubSessionManager) Issue(_ context.Context, sess *domainauth.Session, role domainauth.Role) (domainauth.AdminSession, error) {
	return domainauth.AdminSession{ID: "issued", UserID: sess.Identity.ID, Role: role}, nil
}
func (s stubSessionManager) Revoke(context.Context, string) error { return nil }

type routerFixture struct {
	handler  http.Handler
	projects *mockcore.MockProjectRepository
	skills   *mockcore.MockSkillRepository
	contact  *mockcore.MockContactRepository
	profile  *mockcore.MockProfileRepository
}

func newRouterFixture(t *testing.T, state domainauth.AuthState, sessions map[string]domainauth.AdminSession) routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	profileRepo := mockcore.NewMockProfileRepository(ctrl)
	projectRepo := mockcore.NewMockProjectRepository(ctrl)
	skillRepo := mockcore.NewMockSkillRepository(ctrl)
	contactRepo := mockcore.NewMockContactRepository(ctrl)

	profileSvc, err := service.NewProfileService(service.ProfileServiceOptions{Repo: profileRepo})
	require.NoError(t, err)
	projectSvc, err := service.NewProjectService(service.ProjectServiceOptions{Repo: projectRepo})
	require.NoError(t, err)
	skillSvc, err := service.NewSkillService(service.SkillServiceOptions{Repo: skillRepo})
	require.NoError(t, err)
	contactSvc, err := service.NewContactService(service.ContactServiceOptions{Repo: contactRepo})
	require.NoError(t, err)
	mediaSvc, err := service.NewMediaService(service.MediaServiceOptions{
		Uploader: &stubUploader{url: "https://cdn.example.com/x.png"},
	})
	require.NoError(t, err)

	handler := NewRouter(RouterServices{
		Auth:          stubAuthController{state: state},
		AdminSessions: stubSessionManager{stubSessions{sessions: sessions}},
		Profile:       profileSvc,
		Projects:      projectSvc,
		Skills:        skillSvc,
		Contact:       contactSvc,
		Media:         mediaSvc,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return routerFixture{
		handler:  handler,
		projects: projectRepo,
		skills:   skillRepo,
		contact:  contactRepo,
		profile:  profileRepo,
	}
}

func (f routerFixture) do(method, target string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicEndpointsNeedNoAuth(t *testing.T) {
	f := newRouterFixture(t, domainauth.AuthState{}, nil)

	f.profile.EXPECT().Get(gomock.Any()).Return(&model.Profile{ID: 1, Name: "Ada"}, nil)
	f.projects.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*model.Project{}, nil)
	f.skills.EXPECT().List(gomock.Any()).Return([]*model.Skill{}, nil)
	f.contact.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&model.ContactMessage{ID: "m1"}, nil)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/profile", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/projects", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/skills", "", nil).Code)
	assert.Equal(t, http.StatusCreated,
		f.do(http.MethodPost, "/api/contact", `{"name":"Ada","email":"a@b.c","message":"hi"}`, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", nil).Code)
}

func TestRouter_AdminEndpointsDeniedWithoutSession(t *testing.T) {
	f := newRouterFixture(t, adminState("user-1"), nil)

	targets := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/profile"},
		{http.MethodGet, "/api/admin/projects"},
		{http.MethodPost, "/api/admin/projects"},
		{http.MethodDelete, "/api/admin/projects/1"},
		{http.MethodPost, "/api/admin/skills"},
		{http.MethodGet, "/api/admin/contact"},
		{http.MethodPost, "/api/admin/uploads"},
	}
	for _, tt := range targets {
		rec := f.do(tt.method, tt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouter_AdminEndpointPassesWithSession(t *testing.T) {
	sess := adminSessionFor("user-1")
	f := newRouterFixture(t, adminState("user-1"), map[string]domainauth.AdminSession{sess.ID: sess})

	f.projects.EXPECT().
		List(gomock.Any(), model.ProjectsListOptions{Limit: 20}).
		Return([]*model.Project{{ID: 1, Title: "Draft"}}, nil)

	cookie := &http.Cookie{Name: AdminSessionCookie, Value: sess.ID}
	rec := f.do(http.MethodGet, "/api/admin/projects", "", cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Draft"`)
}

func TestRouter_AdminEndpointRejectsStaleCookieAfterDemotion(t *testing.T) {
	sess := adminSessionFor("user-1")
	state := domainauth.AuthState{
		Identity: &domainauth.Identity{ID: "user-1", Email: "user-1@example.com"},
		IsAdmin:  false,
	}
	f := newRouterFixture(t, state, map[string]domainauth.AdminSession{sess.ID: sess})

	cookie := &http.Cookie{Name: AdminSessionCookie, Value: sess.ID}
	rec := f.do(http.MethodGet, "/api/admin/projects", "", cookie)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_HealthHead(t *testing.T) {
	f := newRouterFixture(t, domainauth.AuthState{}, nil)

	rec := f.do(http.MethodHead, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openfolio/portfolio-api/internal/domain/model"
	mockcore "github.com/openfolio/portfolio-api/internal/mocks/core"
	"github.com/openfolio/portfolio-api/internal/service"
)

func newContactHandlers(t *testing.T) (*ContactHandlers, *mockcore.MockContactRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mockcore.NewMockContactRepository(ctrl)
	svc, err := service.NewContactService(service.ContactServiceOptions{Repo: repo})
	require.NoError(t, err)
	return &ContactHandlers{Svc: svc}, repo
}

func TestContactHandlers_Submit(t *testing.T) {
	h, repo := newContactHandlers(t)

	repo.EXPECT().
		Create(gomock.Any(), &model.CreateContactMessageRequest{
			Name:    "Ada",
			Email:   "ada@example.com",
			Message: "hello there",
		}).
		Return(&model.ContactMessage{ID: "msg-1", Name: "Ada"}, nil)

	body := `{"name":"Ada","email":"ada@example.com","message":"hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"msg-1"`)
	assert.Contains(t, rec.Body.String(), `"received"`)
}

func TestContactHandlers_SubmitTrimsFields(t *testing.T) {
	h, repo := newContactHandlers(t)

	repo.EXPECT().
		Create(gomock.Any(), &model.CreateContactMessageRequest{
			Name:    "Ada",
			Email:   "ada@example.com",
			Message: "hi",
		}).
		Return(&model.ContactMessage{ID: "msg-2"}, nil)

	body := `{"name":"  Ada ","email":" ada@example.com ","message":" hi "}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestContactHandlers_SubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"email":"a@b.c","message":"hi"}`, "name is required"},
		{"missing message", `{"name":"Ada","email":"a@b.c"}`, "message is required"},
		{"bad email", `{"name":"Ada","email":"nope","message":"hi"}`, "email is not valid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newContactHandlers(t)

			req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Submit(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestContactHandlers_List(t *testing.T) {
	h, repo := newContactHandlers(t)

	repo.EXPECT().
		List(gomock.Any(), 50, 0).
		Return([]*model.ContactMessage{{ID: "msg-1", Name: "Ada"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/contact", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"msg-1"`)
}

func TestContactHandlers_Delete(t *testing.T) {
	h, repo := newContactHandlers(t)

	repo.EXPECT().Delete(gomock.Any(), "msg-1").Return(true, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/contact/msg-1", nil)
	req.SetPathValue("id", "msg-1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContactHandlers_DeleteMissing(t *testing.T) {
	h, repo := newContactHandlers(t)

	repo.EXPECT().Delete(gomock.Any(), "nope").Return(false, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/contact/nope", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

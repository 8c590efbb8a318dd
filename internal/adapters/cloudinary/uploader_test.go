package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploader(t *testing.T, baseURL string) *Uploader {
	t.Helper()
	u, err := New(Config{
		CloudName: "demo",
		APIKey:    "key-123",
		APISecret: "secret-456",
		Folder:    "portfolio",
		BaseURL:   baseURL,
	})
	require.NoError(t, err)
	return u
}

func TestUploader_Upload(t *testing.T) {
	var gotPath string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotForm = map[string]string{}
		for k, vals := range r.MultipartForm.Value {
			gotForm[k] = vals[0]
		}
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "Avatar.PNG", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/portfolio/avatar.png"}`))
	}))
	defer srv.Close()

	u := newTestUploader(t, srv.URL)
	u.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := u.Upload(context.Background(), "Avatar.PNG", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/portfolio/avatar.png", url)

	assert.Equal(t, "/demo/image/upload", gotPath)
	assert.Equal(t, "key-123", gotForm["api_key"])
	assert.Equal(t, "1700000000", gotForm["timestamp"])
	assert.Equal(t, "portfolio", gotForm["folder"])

	// Signature covers the signed params in sorted key order plus secret.
	sum := sha1.Sum([]byte("folder=portfolio&timestamp=1700000000" + "secret-456"))
	assert.Equal(t, hex.EncodeToString(sum[:]), gotForm["signature"])
}

func TestUploader_UploadBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	u := newTestUploader(t, srv.URL)

	_, err := u.Upload(context.Background(), "a.png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}

func TestUploader_UploadEmptyContent(t *testing.T) {
	u := newTestUploader(t, "http://unused.invalid")

	_, err := u.Upload(context.Background(), "a.png", nil)
	require.Error(t, err)
}

func TestUploader_UploadMissingURLInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	u := newTestUploader(t, srv.URL)

	_, err := u.Upload(context.Background(), "a.png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing URL")
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"})
	require.Error(t, err)

	_, err = New(Config{APIKey: "k", APISecret: "s"})
	require.Error(t, err)
}

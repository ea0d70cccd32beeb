package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/storage"
)

func newTestHandler(t *testing.T, repo *mockAccountRepo) (*Handler, *storage.DiskStore) {
	t.Helper()
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, newTestService(repo, nil), store), store
}

func serveAs(h http.Handler, r *http.Request, principal *Account) *httptest.ResponseRecorder {
	if principal != nil {
		r = r.WithContext(auth.ContextWithPrincipal(r.Context(), principal))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	repo := newMockAccountRepo()
	h, _ := newTestHandler(t, repo)
	router := chi.NewRouter()
	router.Route("/users", h.MountPublicRoutes)

	t.Run("creates account without exposing the hash", func(t *testing.T) {
		body := `{"cin":"AB123456","first_name":"Nora","last_name":"Haddad","email":"nora@example.com","password":"correct horse"}`
		req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := serveAs(router, req, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "nora@example.com", got["email"])
		assert.Equal(t, "user", got["role"])
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		body := `{"cin":"CD789012","first_name":"Other","last_name":"Person","email":"nora@example.com","password":"some password"}`
		req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := serveAs(router, req, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		body := `{"cin":"EF345678","first_name":"A","last_name":"B","email":"ab@example.com","password":"short"}`
		req := httptest.NewRequest(http.MethodPost, "/users/create", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := serveAs(router, req, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProfileEndpoints(t *testing.T) {
	me := &Account{ID: 7, FirstName: "Nora", LastName: "Haddad", Email: "nora@example.com", Role: auth.RoleUser, Theme: "light"}
	repo := newMockAccountRepo(me)
	h, _ := newTestHandler(t, repo)
	router := chi.NewRouter()
	router.Route("/profile", h.MountProfileRoutes)

	t.Run("read own profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile/me", nil)
		rec := serveAs(router, req, me)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"first_name":"Nora"`)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/profile/me", strings.NewReader(`{"phone":"0601020304"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := serveAs(router, req, me)
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "0601020304", got["phone"])
		assert.Equal(t, "Nora", got["first_name"])
	})
}

func TestUploadProfilePicture(t *testing.T) {
	buildUpload := func(t *testing.T, filename, contentType string) *http.Request {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreatePart(map[string][]string{
			"Content-Disposition": {`form-data; name="file"; filename="` + filename + `"`},
			"Content-Type":        {contentType},
		})
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/profile/me/picture", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	t.Run("stores picture and updates path", func(t *testing.T) {
		me := &Account{ID: 7, Role: auth.RoleUser}
		repo := newMockAccountRepo(me)
		h, _ := newTestHandler(t, repo)
		router := chi.NewRouter()
		router.Route("/profile", h.MountProfileRoutes)

		rec := serveAs(router, buildUpload(t, "avatar.png", "image/png"), me)
		require.Equal(t, http.StatusOK, rec.Code)

		var got struct {
			ProfilePicture string `json:"profile_picture"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, strings.HasPrefix(got.ProfilePicture, "/static/profile_pictures/7_"))
		assert.True(t, strings.HasSuffix(got.ProfilePicture, ".png"))

		stored, err := repo.FindByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, got.ProfilePicture, stored.ProfilePicture)
	})

	t.Run("non-image rejected", func(t *testing.T) {
		me := &Account{ID: 7, Role: auth.RoleUser}
		repo := newMockAccountRepo(me)
		h, _ := newTestHandler(t, repo)
		router := chi.NewRouter()
		router.Route("/profile", h.MountProfileRoutes)

		rec := serveAs(router, buildUpload(t, "report.pdf", "application/pdf"), me)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	adminAcct := &Account{ID: 1, Email: "admin@clinic.test", Role: auth.RoleAdmin}
	target := &Account{ID: 2, Email: "user@clinic.test", Role: auth.RoleUser}

	newRouter := func(t *testing.T, repo *mockAccountRepo) chi.Router {
		t.Helper()
		h, _ := newTestHandler(t, repo)
		router := chi.NewRouter()
		router.Route("/admin", h.MountAdminRoutes)
		return router
	}

	t.Run("role change", func(t *testing.T) {
		repo := newMockAccountRepo(adminAcct, target)
		router := newRouter(t, repo)

		req := httptest.NewRequest(http.MethodPut, "/admin/users/2/role", strings.NewReader(`{"role":"doctor"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := serveAs(router, req, adminAcct)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"doctor"`)
	})

	t.Run("ban by non-admin is forbidden", func(t *testing.T) {
		repo := newMockAccountRepo(adminAcct, target)
		router := newRouter(t, repo)

		req := httptest.NewRequest(http.MethodDelete, "/admin/users/1", nil)
		rec := serveAs(router, req, target)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("ban removes user", func(t *testing.T) {
		repo := newMockAccountRepo(adminAcct, target)
		router := newRouter(t, repo)

		req := httptest.NewRequest(http.MethodDelete, "/admin/users/2", nil)
		rec := serveAs(router, req, adminAcct)
		require.Equal(t, http.StatusOK, rec.Code)

		_, err := repo.FindByID(context.Background(), 2)
		assert.Error(t, err)
	})
}

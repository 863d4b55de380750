package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roleconsole/internal/cache"
	"roleconsole/internal/permission"
	"roleconsole/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type stubLoader struct {
	matrices map[uuid.UUID]permission.Matrix
	calls    int
}

func (s *stubLoader) PermissionsForRole(_ context.Context, roleID uuid.UUID) (permission.Matrix, error) {
	s.calls++
	m, ok := s.matrices[roleID]
	if !ok {
		return nil, apperror.NotFound("role", roleID.String())
	}
	return m, nil
}

func setupRouter(auth *Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/open", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor": ActorID(c), "role": RoleID(c).String()})
	})
	r.PUT("/roles", auth.RequirePermission("roles", permission.ActionEdit), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueAndParseToken(t *testing.T) {
	roleID := uuid.New()
	token, err := IssueToken(testSecret, 7, roleID, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, roleID.String(), claims.RoleID)

	_, err = ParseToken([]byte("other"), token)
	assert.Error(t, err)

	expired, err := IssueToken(testSecret, 7, roleID, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	r := setupRouter(NewAuthenticator(testSecret, &stubLoader{}, nil, nil))

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/open", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/open", "garbage").Code)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := IssueToken(testSecret, 7, uuid.New(), time.Hour)
	require.NoError(t, err)
	w = doRequest(r, http.MethodGet, "/open", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actor":7`)
}

func TestRequireAuth_Cookie(t *testing.T) {
	r := setupRouter(NewAuthenticator(testSecret, &stubLoader{}, nil, nil))
	token, err := IssueToken(testSecret, 3, uuid.New(), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermission(t *testing.T) {
	editor, viewer, deleted := uuid.New(), uuid.New(), uuid.New()
	loader := &stubLoader{matrices: map[uuid.UUID]permission.Matrix{
		editor: {"roles": permission.Set{View: true, Edit: true}},
		viewer: {"roles": permission.Set{View: true}},
	}}
	r := setupRouter(NewAuthenticator(testSecret, loader, nil, nil))

	cases := []struct {
		name   string
		roleID uuid.UUID
		want   int
	}{
		{"holds edit", editor, http.StatusNoContent},
		{"view only", viewer, http.StatusForbidden},
		{"role gone", deleted, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := IssueToken(testSecret, 1, tc.roleID, time.Hour)
			require.NoError(t, err)
			assert.Equal(t, tc.want, doRequest(r, http.MethodPut, "/roles", token).Code)
		})
	}
}

func TestRequirePermission_UsesCache(t *testing.T) {
	roleID := uuid.New()
	loader := &stubLoader{matrices: map[uuid.UUID]permission.Matrix{
		roleID: {"roles": permission.All()},
	}}
	permCache := cache.NewMemoryCache(16, time.Minute)
	r := setupRouter(NewAuthenticator(testSecret, loader, permCache, nil))
	token, err := IssueToken(testSecret, 1, roleID, time.Hour)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodPut, "/roles", token).Code)
	}
	assert.Equal(t, 1, loader.calls)

	require.NoError(t, permCache.Invalidate(context.Background(), roleID))
	doRequest(r, http.MethodPut, "/roles", token)
	assert.Equal(t, 2, loader.calls)
}

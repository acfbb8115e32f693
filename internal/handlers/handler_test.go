package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rise171/system-control-defects/internal/apperrors"
	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/middleware"
	"github.com/rise171/system-control-defects/internal/models"
	"github.com/rise171/system-control-defects/internal/policy"
	"github.com/rise171/system-control-defects/internal/realtime"
	"github.com/rise171/system-control-defects/internal/repository"
	"github.com/rise171/system-control-defects/internal/service"
	"github.com/rise171/system-control-defects/internal/testutil"
)

type fixture struct {
	t      *testing.T
	db     *gorm.DB
	svc    *service.Services
	router *gin.Engine
}

func newFixture(t *testing.T, mode policy.Mode) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewInMemoryDB(t)
	tokens, err := auth.NewTokens(auth.TokenOptions{Secret: "handler-secret", Issuer: "test", Audience: "test", TTL: time.Minute})
	require.NoError(t, err)
	hub := realtime.NewHub(nil)
	svc := service.New(service.Deps{
		Store:    repository.New(db),
		Policy:   policy.New(mode),
		Tokens:   tokens,
		Notifier: hub,
	})
	h := New(svc, hub, nil)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	p := r.Group("")
	p.Use(middleware.JWTAuthMiddleware(svc.Sessions))
	p.GET("/auth/me", h.Me)
	p.GET("/users", h.GetAllUsers)
	p.GET("/users/:id", h.GetUser)
	p.POST("/users", h.CreateUser)
	p.PUT("/users/:id", h.UpdateUser)
	p.DELETE("/users/:id", h.DeleteUser)
	p.POST("/projects", h.CreateProject)
	p.DELETE("/projects/:id", h.DeleteProject)
	p.GET("/defects", h.GetDefects)
	p.GET("/defects/project/:project_id", h.GetDefectsByProject)
	p.GET("/defects/:id", h.GetDefect)
	p.POST("/defects", h.CreateDefect)
	p.PUT("/defects/:id", h.UpdateDefect)
	p.DELETE("/defects/:id", h.DeleteDefect)
	p.POST("/comments", h.CreateComment)
	p.GET("/comments/defect/:defect_id", h.GetCommentsByDefect)
	p.POST("/attachments", h.CreateAttachment)
	p.GET("/attachments/defect/:defect_id", h.GetAttachmentsByDefect)

	return &fixture{t: t, db: db, svc: svc, router: r}
}

// login seeds a user with role and returns a bearer token for it.
func (f *fixture) login(email string, role models.Role) (models.User, string) {
	f.t.Helper()
	u := testutil.SeedUser(f.t, f.db, email, "password123", role)
	w := f.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(f.t, http.StatusOK, w.Code)
	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &res))
	return u, res.AccessToken
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRespondError_MapsTaxonomy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, nil)
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperrors.NotFound("defect", 3), http.StatusNotFound, "defect 3"},
		{apperrors.Conflict("taken"), http.StatusConflict, "taken"},
		{apperrors.Invalid("bad"), http.StatusBadRequest, "bad"},
		{apperrors.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{apperrors.ErrUnauthorized, http.StatusForbidden, "forbidden"},
		{errors.New("pq: connection refused at 10.0.0.5"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.respondError(c, tc.err)
		require.Equal(t, tc.status, w.Code)
		require.Contains(t, w.Body.String(), tc.body)
		require.NotContains(t, w.Body.String(), "10.0.0.5")
	}
}

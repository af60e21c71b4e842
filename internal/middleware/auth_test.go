package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/lshigami/examcore/config"
	"github.com/lshigami/examcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() *Auth {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	return NewAuth(cfg)
}

func protectedRouter(auth *Auth, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{auth.RequireAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(ctx *gin.Context) {
		p, _ := PrincipalFrom(ctx)
		ctx.JSON(http.StatusOK, gin.H{"id": p.ID, "role": p.Role})
	})
	r.GET("/me", handlers...)
	return r
}

func call(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthAcceptsIssuedToken(t *testing.T) {
	auth := newTestAuth()
	token, err := auth.GenerateToken(42, model.RoleGrader, time.Hour)
	require.NoError(t, err)

	w := call(protectedRouter(auth), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"role":"grader"}`, w.Body.String())
}

func TestRequireAuthDefaultsToCandidate(t *testing.T) {
	auth := newTestAuth()
	token, err := auth.GenerateToken(5, "", time.Hour)
	require.NoError(t, err)

	w := call(protectedRouter(auth), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5,"role":"candidate"}`, w.Body.String())
}

func TestRequireAuthRejections(t *testing.T) {
	auth := newTestAuth()
	r := protectedRouter(auth)

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code, "missing header")
	assert.Equal(t, http.StatusUnauthorized, call(r, "not-a-jwt").Code, "garbage token")

	expired, err := auth.GenerateToken(1, model.RoleCandidate, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, expired).Code, "expired token")

	foreign, err := NewAuth(&config.Config{Auth: config.Auth{JWTSecret: "other"}}).GenerateToken(1, model.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, foreign).Code, "wrong signature")

	superuser, err := auth.GenerateToken(1, "superuser", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, superuser).Code, "unknown role")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(r, none).Code, "unsigned token")
}

func TestRequireRole(t *testing.T) {
	auth := newTestAuth()
	r := protectedRouter(auth, model.RoleAdmin, model.RoleGrader)

	candidate, err := auth.GenerateToken(1, model.RoleCandidate, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(r, candidate).Code)

	admin, err := auth.GenerateToken(2, model.RoleAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(r, admin).Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tkd-core/dojo-api/internal/identity"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ranks/:id", handlers...)
	return r
}

func serve(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ranks/3", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	verifier := identity.NewTokenVerifier("secret", "")
	r := newRouter(Auth(verifier), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer not-a-jwt").Code)

	other := identity.NewTokenVerifier("other-secret", "")
	forged, err := other.Sign(identity.Principal{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer "+forged).Code)
}

func TestAuthAttachesPrincipal(t *testing.T) {
	verifier := identity.NewTokenVerifier("secret", "")
	var resolved string
	r := newRouter(Auth(verifier), func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		require.True(t, ok)
		assert.Equal(t, "user-1", principal.UserID)
		resolved, _ = identity.ContextResolver{}.ResolveCurrentUser(c.Request.Context())
		c.Status(http.StatusOK)
	})

	token, err := verifier.Sign(identity.Principal{UserID: "user-1", Roles: []string{"coach"}}, time.Hour)
	require.NoError(t, err)
	w := serve(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", resolved)
}

func TestRequireRole(t *testing.T) {
	verifier := identity.NewTokenVerifier("secret", "")
	r := newRouter(Auth(verifier), RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	coach, err := verifier.Sign(identity.Principal{UserID: "u1", Roles: []string{"coach"}}, time.Hour)
	require.NoError(t, err)
	admin, err := verifier.Sign(identity.Principal{UserID: "u2", Roles: []string{"coach", "admin"}}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+coach).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer "+admin).Code)

	bare := newRouter(RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, serve(bare, "").Code)
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &observerStub{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/persons/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/persons/12", nil))
	assert.Equal(t, "/persons/:id", obs.path)
	assert.Equal(t, http.StatusOK, obs.status)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/at/all", nil))
	assert.Equal(t, "unmatched", obs.path)
	assert.Equal(t, http.StatusNotFound, obs.status)
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	verifier := identity.NewTokenVerifier("secret", "")
	r := newRouter(Auth(verifier), Audit(zap.New(core), "delete", "rank"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	token, err := verifier.Sign(identity.Principal{UserID: "admin-1"}, time.Hour)
	require.NoError(t, err)
	serve(r, "Bearer "+token)

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "admin-1", fields["user_id"])
	assert.Equal(t, "3", fields["resource_id"])
	assert.Equal(t, "delete", fields["action"])
}

func TestResponseMeta(t *testing.T) {
	r := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetMeta(c, "warnings", 1)
		meta := ExtractMeta(c)
		require.NotNil(t, meta)
		assert.Equal(t, 1, meta["warnings"])
		assert.Contains(t, meta, processingTimeMs)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(r, "").Code)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
}

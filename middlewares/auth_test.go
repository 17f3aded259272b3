package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexura/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("middleware-test-secret")
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	all := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(ContextID), "status": c.GetString(ContextStatus)})
	})
	r.GET("/", all...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	userToken, err := utils.GenerateJWTToken("u1", utils.PrincipalUser)
	require.NoError(t, err)
	projectToken, err := utils.GenerateJWTToken("p1", utils.PrincipalProject)
	require.NoError(t, err)
	refresh, err := utils.GenerateRefreshToken("u1", utils.PrincipalUser)
	require.NoError(t, err)

	r := newRouter(Authenticate(utils.PrincipalUser))

	w := get(r, userToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, projectToken).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, refresh).Code)
}

func TestAuthenticateOptional(t *testing.T) {
	userToken, err := utils.GenerateJWTToken("u1", utils.PrincipalUser)
	require.NoError(t, err)

	r := newRouter(AuthenticateOptional())

	w := get(r, userToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	w = get(r, "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
}

func TestAuthorize(t *testing.T) {
	enforcer, err := NewEnforcer()
	require.NoError(t, err)

	userToken, err := utils.GenerateJWTToken("u1", utils.PrincipalUser)
	require.NoError(t, err)
	adminToken, err := utils.GenerateJWTToken("a1", utils.PrincipalAdmin)
	require.NoError(t, err)

	r := newRouter(AuthenticateOptional(), Authorize(enforcer, ResourceQuest, "claim"))
	assert.Equal(t, http.StatusOK, get(r, userToken).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)

	admin := gin.New()
	admin.GET("/", Authenticate(utils.PrincipalAdmin), Authorize(enforcer, ResourceQuest, "claim"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusForbidden, get(admin, adminToken).Code)

	ok, err := enforcer.Enforce(utils.PrincipalAdmin, ResourceRelay, "retry")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(1, 2)
	r := newRouter(l.Middleware())

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "").Code)
}

func TestClaimCooldownWithoutRedis(t *testing.T) {
	r := newRouter(ClaimCooldown(nil))
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-adp-api/internal/models"
	"github.com/noah-isme/academy-adp-api/internal/service"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(role models.UserRole) models.JWTClaims {
	return models.JWTClaims{
		UserID: "admin-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "academy-adp-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newProtectedRouter(verifier *TokenVerifier, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(verifier), RequireRoles(roles...), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})
	return r
}

func TestJWTAcceptsValidToken(t *testing.T) {
	router := newProtectedRouter(NewTokenVerifier("secret", "academy-adp-api"), models.RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", validClaims(models.RoleAdmin), jwt.SigningMethodHS256))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", rec.Body.String())
}

func TestJWTRejectsMissingOrInvalidTokens(t *testing.T) {
	router := newProtectedRouter(NewTokenVerifier("secret", "academy-adp-api"), models.RoleAdmin)

	cases := map[string]string{
		"missing":      "",
		"bad scheme":   "Basic abc",
		"wrong secret": "Bearer " + signToken(t, "other", validClaims(models.RoleAdmin), jwt.SigningMethodHS256),
		"wrong issuer": "Bearer " + func() string {
			claims := validClaims(models.RoleAdmin)
			claims.Issuer = "someone-else"
			return signToken(t, "secret", claims, jwt.SigningMethodHS256)
		}(),
		"expired": "Bearer " + func() string {
			claims := validClaims(models.RoleAdmin)
			claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return signToken(t, "secret", claims, jwt.SigningMethodHS256)
		}(),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	router := newProtectedRouter(NewTokenVerifier("secret", ""), models.RoleAdmin, models.RoleSuperAdmin)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", validClaims(models.RoleStudent), jwt.SigningMethodHS256))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/enrollments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enrollments/e1", nil))
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `path="/enrollments/:id"`)
}

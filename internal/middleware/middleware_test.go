package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type observerStub struct {
	paths []string
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, method+" "+path)
}

func newEngine(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/owner", JWT(validatorStub{claims: claims}), OwnerOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func perform(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndOwnerOnly(t *testing.T) {
	owner := newEngine(&models.JWTClaims{Role: models.RoleOwner})
	assert.Equal(t, http.StatusOK, perform(owner, "Bearer good").Code)
	assert.Equal(t, http.StatusOK, perform(owner, "bearer  good").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(owner, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(owner, "Basic good").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(owner, "Bearer bad").Code)

	visitor := newEngine(&models.JWTClaims{Role: "VISITOR"})
	assert.Equal(t, http.StatusForbidden, perform(visitor, "Bearer good").Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/offerings/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/offerings/abc", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}
	require.Len(t, observer.paths, 2)
	assert.Equal(t, "GET /offerings/:id", observer.paths[0])
	assert.Equal(t, "GET unmatched", observer.paths[1])
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		assert.Nil(t, ExtractMeta(c))
		SetMeta(c, "rebuild", true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, true, meta["rebuild"])
}

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-site-api/internal/handler"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*models.JWTClaims, error) {
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Handlers{
		Auth:      handler.NewAuthHandler(nil),
		Semesters: handler.NewSemesterHandler(nil),
		Offerings: handler.NewOfferingHandler(nil),
		Pages:     handler.NewPageHandler(nil, nil),
		Publish:   handler.NewPublishHandler(nil),
		Metrics:   handler.NewMetricsHandler(nil, nil),
	}, Options{APIPrefix: "/api/v1", Tokens: rejectAll{}})
}

func TestRouterProtectsOwnerRoutes(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/semesters"},
		{http.MethodDelete, "/api/v1/semesters/sem-1"},
		{http.MethodPost, "/api/v1/semesters/sem-1/cancellations"},
		{http.MethodPost, "/api/v1/offerings"},
		{http.MethodPut, "/api/v1/offerings/off-1/topics"},
		{http.MethodPost, "/api/v1/offerings/off-1/pins"},
		{http.MethodPut, "/api/v1/offerings/off-1/assignments"},
		{http.MethodPost, "/api/v1/offerings/off-1/publish"},
		{http.MethodGet, "/api/v1/publish/job-1"},
		{http.MethodGet, "/api/v1/auth/me"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

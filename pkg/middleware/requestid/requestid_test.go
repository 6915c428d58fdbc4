package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var fromGin, fromCtx string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		fromGin = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, fromGin, fromCtx
}

func TestMiddlewareIssuesUUID(t *testing.T) {
	w, fromGin, fromCtx := serve(t, "")
	_, err := uuid.Parse(fromGin)
	require.NoError(t, err)
	assert.Equal(t, fromGin, fromCtx)
	assert.Equal(t, fromGin, w.Header().Get(Header))
}

func TestMiddlewareKeepsWellFormedInboundID(t *testing.T) {
	w, fromGin, _ := serve(t, "edge-proxy.42_a")
	assert.Equal(t, "edge-proxy.42_a", fromGin)
	assert.Equal(t, "edge-proxy.42_a", w.Header().Get(Header))
}

func TestMiddlewareReplacesUnsafeInboundID(t *testing.T) {
	for _, bad := range []string{"<script>", "a b", strings.Repeat("x", 65)} {
		_, fromGin, _ := serve(t, bad)
		assert.NotEqual(t, bad, fromGin)
		_, err := uuid.Parse(fromGin)
		assert.NoError(t, err)
	}
}

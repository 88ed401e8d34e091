package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/tracing"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logger(), CORS([]string{"https://admin.example.com"}))
	router.GET("/whoami", RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, Admin(c))
	})
	return router
}

func TestRequireAdmin(t *testing.T) {
	router := newEngine()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"short", "12345", http.StatusUnauthorized},
		{"letters", "98765abcde", http.StatusUnauthorized},
		{"valid", " 9876543210 ", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(platform.AdminHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "9876543210", w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	router := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	router := newEngine()

	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTagTransactionSharesRequestTransaction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := newrelic.NewApplication(newrelic.ConfigAppName("herdadmin-test"), newrelic.ConfigEnabled(false))
	require.NoError(t, err)
	defer app.Shutdown(time.Second)

	router := gin.New()
	router.Use(RequestID(), nrgin.Middleware(app), RequireAdmin(), TagTransaction())
	router.GET("/txn", func(c *gin.Context) {
		txn := tracing.FromContext(c.Request.Context())
		if txn == nil || txn != nrgin.Transaction(c) {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/txn", nil)
	req.Header.Set(platform.AdminHeader, "9876543210")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"example.com/backstage/services/herdadmin/config"
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/services"
	"example.com/backstage/services/herdadmin/internal/store"
	"example.com/backstage/services/herdadmin/internal/tracing"
	"example.com/backstage/services/herdadmin/internal/tracking"
)

type emptyPlatform struct{}

func (emptyPlatform) GetReferrals(context.Context) ([]models.User, error) { return nil, nil }
func (emptyPlatform) GetUsers(context.Context) ([]models.User, error) { return nil, nil }
func (emptyPlatform) GetProducts(context.Context) ([]models.Product, error) { return nil, nil }
func (emptyPlatform) ApproveUnit(context.Context, string, string) error { return nil }
func (emptyPlatform) RejectUnit(context.Context, string, string, string) error { return nil }
func (emptyPlatform) UpdateUser(context.Context, string, models.UserRequest) (string, error) {
	return "", nil
}
func (emptyPlatform) GetPendingUnits(context.Context, string) ([]models.OrderEntry, error) {
	return nil, nil
}
func (emptyPlatform) GetUserDetails(context.Context, string) (*models.User, error) {
	return nil, platform.ErrUserNotFound
}
func (emptyPlatform) CreateUser(context.Context, models.UserRequest) (platform.CreateResult, error) {
	return platform.CreateResult{}, nil
}

func newTestServer() *Server {
	cfg := config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Address:     "127.0.0.1:0",
			CorsEnabled: true,
			CorsOrigins: []string{"*"},
		},
	}
	tracker := tracking.NewTracker(tracking.NewMemoryStore())
	svc := services.NewAdminService(emptyPlatform{}, store.NewRegistry(), tracker)
	return NewServer(cfg, svc, &tracing.NewRelicTracer{})
}

func TestServerRoutes(t *testing.T) {
	router := newTestServer().Router()

	tests := []struct {
		name   string
		method string
		path   string
		admin  string
		status int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"state without admin", http.MethodGet, "/api/v1/state", "", http.StatusUnauthorized},
		{"state", http.MethodGet, "/api/v1/state", "9000000001", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nope", "9000000001", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.admin != "" {
				req.Header.Set(platform.AdminHeader, tt.admin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

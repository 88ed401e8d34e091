package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/herdadmin/internal/api/middleware"
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/services"
	"example.com/backstage/services/herdadmin/internal/store"
	"example.com/backstage/services/herdadmin/internal/tracing"
	"example.com/backstage/services/herdadmin/internal/tracking"
)

const testAdmin = "9000000001"

type stubPlatform struct {
	entries    []models.OrderEntry
	referrals  []models.User
	approveErr error
	createRes  platform.CreateResult
	createErr  error
	details    map[string]*models.User
}

func (p *stubPlatform) GetReferrals(context.Context) ([]models.User, error) { return p.referrals, nil }
func (p *stubPlatform) GetUsers(context.Context) ([]models.User, error) { return []models.User{}, nil }
func (p *stubPlatform) GetProducts(context.Context) ([]models.Product, error) {
	return []models.Product{{ID: "P1", Breed: "Murrah", InStock: true}}, nil
}
func (p *stubPlatform) GetPendingUnits(context.Context, string) ([]models.OrderEntry, error) {
	return p.entries, nil
}
func (p *stubPlatform) ApproveUnit(context.Context, string, string) error { return p.approveErr }
func (p *stubPlatform) RejectUnit(context.Context, string, string, string) error {
	return nil
}
func (p *stubPlatform) GetUserDetails(_ context.Context, mobile string) (*models.User, error) {
	if u, ok := p.details[mobile]; ok {
		return u, nil
	}
	return nil, platform.ErrUserNotFound
}
func (p *stubPlatform) CreateUser(context.Context, models.UserRequest) (platform.CreateResult, error) {
	return p.createRes, p.createErr
}
func (p *stubPlatform) UpdateUser(context.Context, string, models.UserRequest) (string, error) {
	return "User updated", nil
}

func newRouter(p services.Platform) *gin.Engine {
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	tracker := tracking.NewTracker(tracking.NewMemoryStore(), tracking.WithClock(clock))
	svc := services.NewAdminService(p, store.NewRegistry(), tracker, services.WithClock(clock))
	tracer := &tracing.NewRelicTracer{}

	router := gin.New()
	NewMetricsHandler(svc.Metrics(), tracer).RegisterRoutes(router)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAdmin())
	NewAdminHandler(svc, tracer).RegisterRoutes(v1)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(platform.AdminHeader, testAdmin)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestRequiresAdminHeader(t *testing.T) {
	router := newRouter(&stubPlatform{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/state", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActivateTabAndOrders(t *testing.T) {
	router := newRouter(&stubPlatform{entries: []models.OrderEntry{
		{Order: models.Order{ID: "U1", PaymentStatus: models.StatusPendingAdminVerification}},
		{Order: models.Order{ID: "U2", PaymentStatus: models.StatusPaid}},
	}})

	w := do(router, http.MethodPost, "/api/v1/tabs/orders", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view services.OrdersView
	decode(t, w, &view)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "U1", view.Entries[0].Order.ID.String())
	assert.Equal(t, 2, view.Stats.Total)

	w = do(router, http.MethodPut, "/api/v1/orders/filters",
		`{"searchQuery":"","paymentFilter":"All Payments","statusFilter":"All Status"}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Len(t, view.Entries, 2)

	w = do(router, http.MethodPost, "/api/v1/tabs/reports", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpansion(t *testing.T) {
	router := newRouter(&stubPlatform{})

	w := do(router, http.MethodPost, "/api/v1/orders/U1/expand", "")
	require.Equal(t, http.StatusOK, w.Code)
	var exp store.Expansion
	decode(t, w, &exp)
	assert.Equal(t, "U1", exp.ExpandedOrderID)
	require.NotNil(t, exp.ActiveUnitIndex)
	assert.Equal(t, 0, *exp.ActiveUnitIndex)

	w = do(router, http.MethodPost, "/api/v1/orders/U1/units/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApproveUpstreamError(t *testing.T) {
	router := newRouter(&stubPlatform{
		approveErr: &platform.APIError{StatusCode: http.StatusConflict, Message: "unit locked"},
	})

	w := do(router, http.MethodPost, "/api/v1/orders/U1/approve", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "unit locked", resp.Message)
	assert.Equal(t, ErrBadGateway.Code, resp.Code)
}

func TestRejectWithoutBody(t *testing.T) {
	router := newRouter(&stubPlatform{})
	w := do(router, http.MethodPost, "/api/v1/orders/U1/reject", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRejectWithEmptyChunkedBody(t *testing.T) {
	router := newRouter(&stubPlatform{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/U1/reject", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(platform.AdminHeader, testAdmin)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/orders/U1/reject", `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReferral(t *testing.T) {
	router := newRouter(&stubPlatform{createRes: platform.CreateResult{Message: "created"}})

	w := do(router, http.MethodPost, "/api/v1/referrals", `{"mobile":"98765","first_name":"Ravi"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, ErrValidation.Code, resp.Code)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "mobile", resp.Fields[0].Field)

	w = do(router, http.MethodPost, "/api/v1/referrals", `{"mobile":"9876543210","first_name":"Ravi","last_name":"Kumar","refered_by_mobile":"9123456780","refered_by_name":"Meera"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateReferralExisting(t *testing.T) {
	router := newRouter(&stubPlatform{createRes: platform.CreateResult{Message: platform.MsgUserExists, Exists: true}})

	w := do(router, http.MethodPost, "/api/v1/referrals", `{"mobile":"9876543210","first_name":"Ravi","last_name":"Kumar","refered_by_mobile":"9123456780","refered_by_name":"Meera"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp CreateReferralResponse
	decode(t, w, &resp)
	assert.True(t, resp.Exists)
	assert.Equal(t, platform.MsgUserExists, resp.Message)
}

func TestLookupReferrer(t *testing.T) {
	router := newRouter(&stubPlatform{details: map[string]*models.User{
		"9123456780": {Mobile: "9123456780", Name: "Meera"},
	}})

	w := do(router, http.MethodGet, "/api/v1/referrers/9123456780", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Meera"}`, w.Body.String())

	w = do(router, http.MethodGet, "/api/v1/referrers/9999999999", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":""}`, w.Body.String())
}

func TestTrackingEndpoints(t *testing.T) {
	router := newRouter(&stubPlatform{})

	w := do(router, http.MethodGet, "/api/v1/tracking/U1/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tl tracking.Timeline
	decode(t, w, &tl)
	assert.Equal(t, tracking.FirstStage, tl.CurrentStageID)

	w = do(router, http.MethodPost, "/api/v1/tracking/U1/1/advance", `{"stageId":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tl)
	assert.Equal(t, 2, tl.CurrentStageID)

	w = do(router, http.MethodPost, "/api/v1/tracking/U1/1/advance", `{"stageId":5}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/api/v1/tracking/U1/1/confirm", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodGet, "/api/v1/tracking/U1/3", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/tracking/U1/one", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/tracking/U1/1/events", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestModals(t *testing.T) {
	router := newRouter(&stubPlatform{})

	w := do(router, http.MethodPut, "/api/v1/modals/referral", `{"open":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPut, "/api/v1/modals/proof", `{"open":true,"orderId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPut, "/api/v1/modals/settings", `{"open":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildTree(t *testing.T) {
	router := newRouter(&stubPlatform{})

	w := do(router, http.MethodPost, "/api/v1/tree",
		`{"name":"Lakshmi","born":"2019","children":[{"name":"Ganga","born":2021}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Name       string `json:"name"`
		Attributes struct {
			TotalChildren int `json:"totalChildren"`
		} `json:"attributes"`
	}
	decode(t, w, &out)
	assert.Equal(t, "Lakshmi", out.Name)
	assert.Equal(t, 1, out.Attributes.TotalChildren)

	w = do(router, http.MethodGet, "/api/v1/tree", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newRouter(&stubPlatform{})

	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

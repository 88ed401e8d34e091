package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"example.com/backstage/services/herdadmin/internal/api/middleware"
	"example.com/backstage/services/herdadmin/internal/familytree"
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/services"
	"example.com/backstage/services/herdadmin/internal/store"
	"example.com/backstage/services/herdadmin/internal/tracing"
)

// AdminHandler serves the dashboard API
type AdminHandler struct {
	adminService *services.AdminService
	tracer       tracing.Tracer
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, tracer tracing.Tracer) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		tracer:       tracer,
	}
}

type sortRequest struct {
	Key string `json:"key" binding:"required"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type advanceRequest struct {
	StageID int `json:"stageId" binding:"required"`
}

// CreateReferralResponse is the outcome of a referral creation
type CreateReferralResponse struct {
	Message string `json:"message"`
	Exists  bool   `json:"exists"`
}

// HandleGetState returns the caller's full dashboard state
func (h *AdminHandler) HandleGetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.adminService.State(middleware.Admin(c)))
}

// HandleToggleSidebar opens or closes the sidebar
func (h *AdminHandler) HandleToggleSidebar(c *gin.Context) {
	c.JSON(http.StatusOK, h.adminService.Dispatch(middleware.Admin(c), store.ToggleSidebar{}))
}

// HandleActivateTab switches tab and loads its data
func (h *AdminHandler) HandleActivateTab(c *gin.Context) {
	st, err := h.adminService.ActivateTab(c.Request.Context(), middleware.Admin(c), store.Tab(c.Param("tab")))
	if err != nil {
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, st)
}

// HandleGetOrders returns the filtered orders with the dashboard counters
func (h *AdminHandler) HandleGetOrders(c *gin.Context) {
	c.JSON(http.StatusOK, h.adminService.Orders(middleware.Admin(c)))
}

// HandleSetFilters replaces the orders filter bar
func (h *AdminHandler) HandleSetFilters(c *gin.Context) {
	var f orders.FilterState
	if err := c.ShouldBindJSON(&f); err != nil {
		bindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.adminService.SetFilters(middleware.Admin(c), f))
}

// HandleToggleExpansion expands or collapses an order row
func (h *AdminHandler) HandleToggleExpansion(c *gin.Context) {
	st := h.adminService.Dispatch(middleware.Admin(c), store.ToggleOrderExpansion{OrderID: c.Param("id")})
	c.JSON(http.StatusOK, st.Orders.Expansion)
}

// HandleToggleUnit selects a unit of the expanded order
func (h *AdminHandler) HandleToggleUnit(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		WriteError(c, NewError("unit index must be a non-negative number", http.StatusBadRequest, ErrInvalidRequest.Code), "")
		return
	}
	st := h.adminService.Dispatch(middleware.Admin(c), store.ToggleUnit{Index: index})
	c.JSON(http.StatusOK, st.Orders.Expansion)
}

// HandleToggleFullDetails shows or hides the full order details
func (h *AdminHandler) HandleToggleFullDetails(c *gin.Context) {
	st := h.adminService.Dispatch(middleware.Admin(c), store.ToggleFullDetails{})
	c.JSON(http.StatusOK, st.Orders.Expansion)
}

// HandleApprove approves an order
func (h *AdminHandler) HandleApprove(c *gin.Context) {
	txn := tracing.FromContext(c.Request.Context())
	h.tracer.AddAttribute(txn, "order_id", c.Param("id"))

	if _, err := h.adminService.Approve(c.Request.Context(), middleware.Admin(c), c.Param("id")); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err, platform.MsgApproveOrder)
		return
	}
	c.JSON(http.StatusOK, h.adminService.Orders(middleware.Admin(c)))
}

// HandleReject rejects an order with an optional reason
func (h *AdminHandler) HandleReject(c *gin.Context) {
	txn := tracing.FromContext(c.Request.Context())
	h.tracer.AddAttribute(txn, "order_id", c.Param("id"))

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	if _, err := h.adminService.Reject(c.Request.Context(), middleware.Admin(c), c.Param("id"), req.Reason); err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err, platform.MsgRejectOrder)
		return
	}
	c.JSON(http.StatusOK, h.adminService.Orders(middleware.Admin(c)))
}

// HandleGetProof opens the payment proof of an order
func (h *AdminHandler) HandleGetProof(c *gin.Context) {
	proof, err := h.adminService.OpenProof(middleware.Admin(c), c.Param("id"))
	if err != nil {
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, proof)
}

// HandleGetReferrals returns the sorted referral table
func (h *AdminHandler) HandleGetReferrals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.adminService.Referrals(middleware.Admin(c))})
}

// HandleSortReferrals applies a column header click to the referral table
func (h *AdminHandler) HandleSortReferrals(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": h.adminService.SortReferrals(middleware.Admin(c), req.Key)})
}

// HandleCreateReferral creates a user from the referral form
func (h *AdminHandler) HandleCreateReferral(c *gin.Context) {
	txn := tracing.FromContext(c.Request.Context())

	var req models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.adminService.CreateReferral(c.Request.Context(), middleware.Admin(c), req)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err, platform.MsgCreateUser)
		return
	}

	status := http.StatusCreated
	if res.Exists {
		status = http.StatusOK
	}
	c.JSON(status, CreateReferralResponse{Message: res.Message, Exists: res.Exists})
}

// HandleUpdateReferral updates a referral
func (h *AdminHandler) HandleUpdateReferral(c *gin.Context) {
	txn := tracing.FromContext(c.Request.Context())

	var req models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	msg, err := h.adminService.UpdateReferral(c.Request.Context(), middleware.Admin(c), c.Param("mobile"), req)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err, platform.MsgUpdateUser)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// HandleLookupReferrer returns the name behind a referrer mobile
func (h *AdminHandler) HandleLookupReferrer(c *gin.Context) {
	name := h.adminService.LookupReferrer(c.Request.Context(), c.Param("mobile"))
	c.JSON(http.StatusOK, gin.H{"name": name})
}

// HandleGetInvestors returns the sorted investor table
func (h *AdminHandler) HandleGetInvestors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.adminService.Investors(middleware.Admin(c))})
}

// HandleSortInvestors applies a column header click to the investor table
func (h *AdminHandler) HandleSortInvestors(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": h.adminService.SortInvestors(middleware.Admin(c), req.Key)})
}

// HandleGetProducts returns the catalog
func (h *AdminHandler) HandleGetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.adminService.Products(middleware.Admin(c))})
}

// HandleSetModal opens or closes a dialog
func (h *AdminHandler) HandleSetModal(c *gin.Context) {
	var req services.ModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	st, err := h.adminService.SetModal(middleware.Admin(c), c.Param("name"), req)
	if err != nil {
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"modals": st.Modals, "showAdminDetails": st.ShowAdminDetails})
}

// HandleGetTracking lists trackable orders with their progress
func (h *AdminHandler) HandleGetTracking(c *gin.Context) {
	view, err := h.adminService.Tracking(c.Request.Context(), middleware.Admin(c), c.Query("q"))
	if err != nil {
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": view})
}

// HandleGetTimeline returns the progress of one sub-item
func (h *AdminHandler) HandleGetTimeline(c *gin.Context) {
	unit, ok := unitParam(c)
	if !ok {
		return
	}
	tl, err := h.adminService.Timeline(c.Request.Context(), c.Param("orderId"), unit)
	if err != nil {
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tl)
}

// HandleAdvanceStage moves a sub-item to the next stage
func (h *AdminHandler) HandleAdvanceStage(c *gin.Context) {
	txn := tracing.FromContext(c.Request.Context())

	unit, ok := unitParam(c)
	if !ok {
		return
	}
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tl, err := h.adminService.AdvanceStage(c.Request.Context(), middleware.Admin(c), c.Param("orderId"), unit, req.StageID)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tl)
}

// HandleConfirmDelivery confirms delivery of a sub-item at the final stage
func (h *AdminHandler) HandleConfirmDelivery(c *gin.Context) {
	txn := tracing.FromContext(c.Request.Context())

	unit, ok := unitParam(c)
	if !ok {
		return
	}
	tl, err := h.adminService.ConfirmDelivery(c.Request.Context(), middleware.Admin(c), c.Param("orderId"), unit)
	if err != nil {
		h.tracer.RecordError(txn, err)
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tl)
}

// HandleGetStageEvents returns the indexed stage history of a sub-item
func (h *AdminHandler) HandleGetStageEvents(c *gin.Context) {
	unit, ok := unitParam(c)
	if !ok {
		return
	}
	events, err := h.adminService.StageEvents(c.Request.Context(), c.Param("orderId"), unit)
	if err != nil {
		WriteError(c, err, "")
		return
	}
	if events == nil {
		events = []models.StageEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// HandleBuildTree converts a posted family tree for display
func (h *AdminHandler) HandleBuildTree(c *gin.Context) {
	root, err := familytree.Decode(c.Request.Body)
	if err != nil {
		bindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.adminService.BuildTree(root))
}

// HandleGetTree converts the configured family tree for display
func (h *AdminHandler) HandleGetTree(c *gin.Context) {
	tree, err := h.adminService.Tree()
	if err != nil {
		WriteError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tree)
}

func unitParam(c *gin.Context) (int, bool) {
	unit, err := strconv.Atoi(c.Param("unit"))
	if err != nil {
		WriteError(c, NewError("unit must be a number", http.StatusBadRequest, ErrInvalidRequest.Code), "")
		return 0, false
	}
	return unit, true
}

// RegisterRoutes registers the handler's routes
func (h *AdminHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/state", h.HandleGetState)
	router.POST("/sidebar", h.HandleToggleSidebar)
	router.POST("/tabs/:tab", h.HandleActivateTab)
	router.PUT("/modals/:name", h.HandleSetModal)

	router.GET("/orders", h.HandleGetOrders)
	router.PUT("/orders/filters", h.HandleSetFilters)
	router.POST("/orders/details", h.HandleToggleFullDetails)
	router.POST("/orders/:id/expand", h.HandleToggleExpansion)
	router.POST("/orders/:id/units/:index", h.HandleToggleUnit)
	router.POST("/orders/:id/approve", h.HandleApprove)
	router.POST("/orders/:id/reject", h.HandleReject)
	router.GET("/orders/:id/proof", h.HandleGetProof)

	router.GET("/referrals", h.HandleGetReferrals)
	router.POST("/referrals", h.HandleCreateReferral)
	router.POST("/referrals/sort", h.HandleSortReferrals)
	router.PUT("/referrals/:mobile", h.HandleUpdateReferral)
	router.GET("/referrers/:mobile", h.HandleLookupReferrer)

	router.GET("/investors", h.HandleGetInvestors)
	router.POST("/investors/sort", h.HandleSortInvestors)
	router.GET("/products", h.HandleGetProducts)

	router.GET("/tracking", h.HandleGetTracking)
	router.GET("/tracking/:orderId/:unit", h.HandleGetTimeline)
	router.POST("/tracking/:orderId/:unit/advance", h.HandleAdvanceStage)
	router.POST("/tracking/:orderId/:unit/confirm", h.HandleConfirmDelivery)
	router.GET("/tracking/:orderId/:unit/events", h.HandleGetStageEvents)

	router.GET("/tree", h.HandleGetTree)
	router.POST("/tree", h.HandleBuildTree)
}

package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/internal/cache"
	"example.com/backstage/services/herdadmin/internal/messaging"
	"example.com/backstage/services/herdadmin/internal/metrics"
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/store"
	"example.com/backstage/services/herdadmin/internal/table"
	"example.com/backstage/services/herdadmin/internal/tracing"
	"example.com/backstage/services/herdadmin/internal/tracking"
)

// Errors returned by AdminService
var (
	ErrUnknownTab        = errors.New("unknown tab")
	ErrUnknownModal      = errors.New("unknown modal")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserNotFound      = errors.New("user not found in referrals")
	ErrSearchDisabled    = errors.New("stage event search is not configured")
	ErrTreeNotConfigured = errors.New("family tree source is not configured")
)

// Platform is the upstream API used by the service
type Platform interface {
	GetReferrals(ctx context.Context) ([]models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetPendingUnits(ctx context.Context, adminMobile string) ([]models.OrderEntry, error)
	ApproveUnit(ctx context.Context, adminMobile, orderID string) error
	RejectUnit(ctx context.Context, adminMobile, orderID, reason string) error
	GetUserDetails(ctx context.Context, mobile string) (*models.User, error)
	CreateUser(ctx context.Context, req models.UserRequest) (platform.CreateResult, error)
	UpdateUser(ctx context.Context, mobile string, req models.UserRequest) (string, error)
}

// Cache stores looked up values
type Cache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventIndex stores and searches stage events
type EventIndex interface {
	IndexStageEvent(ctx context.Context, event models.StageEvent) error
	SearchStageEvents(ctx context.Context, key string, size int) ([]models.StageEvent, error)
}

// AdminService runs the dashboard: it fetches platform data into each admin's
// state, forwards order decisions and applies tracking commands.
type AdminService struct {
	platform  Platform
	registry  *store.Registry
	tracker   *tracking.Tracker
	cache     Cache
	cacheTTL  time.Duration
	publisher messaging.Publisher
	index     EventIndex
	tracer    tracing.Tracer
	metrics   *metrics.Metrics
	treePath  string
	now       func() time.Time
}

// Option configures an AdminService
type Option func(*AdminService)

// WithCache caches products and referrer names for ttl
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *AdminService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithPublisher publishes a stage event for every tracking change
func WithPublisher(p messaging.Publisher) Option {
	return func(s *AdminService) { s.publisher = p }
}

// WithEventIndex enables stage event history search
func WithEventIndex(idx EventIndex) Option {
	return func(s *AdminService) { s.index = idx }
}

// WithTracer sets the tracer
func WithTracer(t tracing.Tracer) Option {
	return func(s *AdminService) { s.tracer = t }
}

// WithMetrics sets the metrics collector
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AdminService) { s.metrics = m }
}

// WithTreePath sets the JSON file the family tree is read from
func WithTreePath(path string) Option {
	return func(s *AdminService) { s.treePath = path }
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *AdminService) { s.now = now }
}

// NewAdminService creates a new admin service
func NewAdminService(p Platform, registry *store.Registry, tracker *tracking.Tracker, opts ...Option) *AdminService {
	s := &AdminService{
		platform: p,
		registry: registry,
		tracker:  tracker,
		tracer:   &tracing.NewRelicTracer{},
		metrics:  metrics.NewMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the service's metrics collector
func (s *AdminService) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *AdminService) controller(admin string) *store.Controller {
	c := s.registry.Get(admin)
	s.metrics.SetGauge(metrics.ActiveDashboards, int64(s.registry.Len()))
	return c
}

// State returns the dashboard state of admin
func (s *AdminService) State(admin string) store.State {
	return s.controller(admin).Snapshot()
}

// Dispatch applies UI actions to admin's state
func (s *AdminService) Dispatch(admin string, actions ...store.Action) store.State {
	return s.controller(admin).Dispatch(actions...)
}

// ActivateTab switches admin's dashboard to tab and fetches the data it shows.
// Fetch failures are reflected in the returned state, not as an error.
func (s *AdminService) ActivateTab(ctx context.Context, admin string, tab store.Tab) (store.State, error) {
	if !tab.Valid() {
		return store.State{}, errors.Wrapf(ErrUnknownTab, "%q", tab)
	}

	txn, end := tracing.Begin(ctx, s.tracer, "activate-tab")
	defer end()
	s.tracer.AddAttribute(txn, "tab", string(tab))

	s.controller(admin).Dispatch(store.SetActiveTab{Tab: tab})

	switch tab {
	case store.TabOrders, store.TabTracking:
		return s.FetchOrders(ctx, admin), nil
	case store.TabNonVerified:
		return s.FetchReferrals(ctx, admin), nil
	case store.TabExisting:
		return s.FetchExistingCustomers(ctx, admin), nil
	case store.TabProducts:
		return s.FetchProducts(ctx, admin), nil
	}
	return s.State(admin), nil
}

// FetchOrders reloads the pending units of admin. On failure the list is
// cleared and the normalized error is kept in the state.
func (s *AdminService) FetchOrders(ctx context.Context, admin string) store.State {
	c := s.controller(admin)
	c.Dispatch(store.SetOrdersError{})

	start := time.Now()
	entries, err := s.platform.GetPendingUnits(ctx, admin)
	s.metrics.Since(metrics.PlatformCall, start)
	s.metrics.RecordResult(metrics.ComponentPlatform, err)

	if err != nil {
		log.Error().Err(err).Str("admin", admin).Msg("Error fetching pending units")
		return c.Dispatch(
			store.SetOrdersError{Message: errorMessage(err, platform.MsgLoadOrders)},
			store.SetPendingUnits{Entries: nil},
		)
	}

	s.metrics.IncrementCounter(metrics.OrdersFetched)
	s.metrics.SetGauge(metrics.PendingUnits, int64(len(entries)))
	return c.Dispatch(store.SetPendingUnits{Entries: entries})
}

// FetchReferrals reloads the referral table, clearing it on failure
func (s *AdminService) FetchReferrals(ctx context.Context, admin string) store.State {
	users, err := s.platform.GetReferrals(ctx)
	s.metrics.RecordResult(metrics.ComponentPlatform, err)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching referrals")
		users = nil
	}
	return s.controller(admin).Dispatch(store.SetReferrals{Users: users})
}

// FetchExistingCustomers reloads the investor table, clearing it on failure
func (s *AdminService) FetchExistingCustomers(ctx context.Context, admin string) store.State {
	users, err := s.platform.GetUsers(ctx)
	s.metrics.RecordResult(metrics.ComponentPlatform, err)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching existing customers")
		users = nil
	}
	return s.controller(admin).Dispatch(store.SetExistingCustomers{Users: users})
}

// FetchProducts reloads the catalog, served from cache when possible
func (s *AdminService) FetchProducts(ctx context.Context, admin string) store.State {
	products, err := s.products(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching products")
		products = nil
	}
	return s.controller(admin).Dispatch(store.SetProducts{Products: products})
}

func (s *AdminService) products(ctx context.Context) ([]models.Product, error) {
	key := cache.GetProductsCacheKey()
	if s.cache != nil {
		var cached []models.Product
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.IncrementCounter(metrics.CacheHits)
			return cached, nil
		}
		s.metrics.IncrementCounter(metrics.CacheMisses)
	}

	products, err := s.platform.GetProducts(ctx)
	s.metrics.RecordResult(metrics.ComponentPlatform, err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, products, s.cacheTTL); err != nil && !errors.Is(err, cache.ErrDisabled) {
			log.Warn().Err(err).Msg("Failed to cache products")
		}
	}
	return products, nil
}

// WarmProducts refreshes the cached catalog
func (s *AdminService) WarmProducts(ctx context.Context) (int, error) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.GetProductsCacheKey()); err != nil && !errors.Is(err, cache.ErrDisabled) {
			log.Warn().Err(err).Msg("Failed to drop cached products")
		}
	}
	products, err := s.products(ctx)
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

// Approve approves an order and reloads the orders
func (s *AdminService) Approve(ctx context.Context, admin, orderID string) (store.State, error) {
	txn, end := tracing.Begin(ctx, s.tracer, "approve-order")
	defer end()

	if err := s.platform.ApproveUnit(ctx, admin, orderID); err != nil {
		s.tracer.RecordError(txn, err)
		log.Error().Err(err).Str("order_id", orderID).Msg("Error approving order")
		return s.State(admin), err
	}

	log.Info().Str("admin", admin).Str("order_id", orderID).Msg("Order approved")
	s.metrics.IncrementCounter(metrics.OrdersApproved)
	return s.FetchOrders(ctx, admin), nil
}

// Reject rejects an order with an optional reason and reloads the orders
func (s *AdminService) Reject(ctx context.Context, admin, orderID, reason string) (store.State, error) {
	txn, end := tracing.Begin(ctx, s.tracer, "reject-order")
	defer end()

	if err := s.platform.RejectUnit(ctx, admin, orderID, reason); err != nil {
		s.tracer.RecordError(txn, err)
		log.Error().Err(err).Str("order_id", orderID).Msg("Error rejecting order")
		return s.State(admin), err
	}

	log.Info().Str("admin", admin).Str("order_id", orderID).Msg("Order rejected")
	s.metrics.IncrementCounter(metrics.OrdersRejected)
	s.controller(admin).Dispatch(store.SetRejectionModal{Open: false})
	return s.FetchOrders(ctx, admin), nil
}

// OrdersView is the filtered orders table with the dashboard counters
type OrdersView struct {
	Entries   []models.OrderEntry `json:"entries"`
	Stats     orders.Stats        `json:"stats"`
	Filters   orders.FilterState  `json:"filters"`
	Expansion store.Expansion     `json:"expansion"`
	Error     string              `json:"error,omitempty"`
}

// Orders returns the orders view of admin
func (s *AdminService) Orders(admin string) OrdersView {
	st := s.State(admin)
	return OrdersView{
		Entries:   orders.Apply(st.Orders.PendingUnits, st.Orders.Filters),
		Stats:     orders.Summarize(st.Orders.PendingUnits, s.now()),
		Filters:   st.Orders.Filters,
		Expansion: st.Orders.Expansion,
		Error:     st.Orders.Error,
	}
}

// SetFilters replaces the orders filter bar of admin
func (s *AdminService) SetFilters(admin string, f orders.FilterState) OrdersView {
	s.controller(admin).Dispatch(store.SetFilters{Filters: f})
	return s.Orders(admin)
}

// OpenProof opens the proof viewer on an order of admin
func (s *AdminService) OpenProof(admin, orderID string) (orders.Proof, error) {
	entry, ok := orders.Find(s.State(admin).Orders.PendingUnits, orderID)
	if !ok {
		return orders.Proof{}, errors.Wrapf(ErrOrderNotFound, "%s", orderID)
	}
	proof := orders.ProofOf(entry)
	s.controller(admin).Dispatch(store.SetProofModal{Open: true, Data: &proof})
	return proof, nil
}

// Referrals returns the referral table sorted by admin's sort config
func (s *AdminService) Referrals(admin string) []models.User {
	st := s.State(admin)
	return table.Sort(st.Users.Referrals, st.ReferralSort)
}

// SortReferrals applies a column header click to the referral table
func (s *AdminService) SortReferrals(admin, key string) []models.User {
	s.controller(admin).Dispatch(store.RequestReferralSort{Key: key})
	return s.Referrals(admin)
}

// Investors returns the investor table sorted by admin's sort config
func (s *AdminService) Investors(admin string) []models.User {
	st := s.State(admin)
	return table.Sort(st.Users.Existing, st.InvestorSort)
}

// SortInvestors applies a column header click to the investor table
func (s *AdminService) SortInvestors(admin, key string) []models.User {
	s.controller(admin).Dispatch(store.RequestInvestorSort{Key: key})
	return s.Investors(admin)
}

// Products returns the catalog of admin's dashboard
func (s *AdminService) Products(admin string) []models.Product {
	return s.State(admin).Products
}

// ModalRequest opens or closes a dialog
type ModalRequest struct {
	Open    bool   `json:"open"`
	Mobile  string `json:"mobile,omitempty"`
	OrderID string `json:"orderId,omitempty"`
}

// Modal names accepted by SetModal
const (
	ModalReferral     = "referral"
	ModalEditReferral = "editReferral"
	ModalProof        = "proof"
	ModalRejection    = "rejection"
	ModalAdminDetails = "adminDetails"
)

// SetModal opens or closes a dialog on admin's dashboard
func (s *AdminService) SetModal(admin, name string, req ModalRequest) (store.State, error) {
	c := s.controller(admin)

	switch name {
	case ModalReferral:
		return c.Dispatch(store.SetReferralModalOpen{Open: req.Open}), nil
	case ModalAdminDetails:
		return c.Dispatch(store.SetShowAdminDetails{Show: req.Open}), nil
	case ModalRejection:
		if req.Open && req.OrderID == "" {
			return store.State{}, errors.Wrap(ErrOrderNotFound, "rejection needs an order id")
		}
		return c.Dispatch(store.SetRejectionModal{Open: req.Open, UnitID: req.OrderID}), nil
	case ModalProof:
		if !req.Open {
			return c.Dispatch(store.SetProofModal{Open: false}), nil
		}
		if _, err := s.OpenProof(admin, req.OrderID); err != nil {
			return store.State{}, err
		}
		return c.Snapshot(), nil
	case ModalEditReferral:
		if !req.Open {
			return c.Dispatch(store.SetEditReferralModal{Open: false}), nil
		}
		for _, u := range c.Snapshot().Users.Referrals {
			if u.Mobile == req.Mobile {
				user := u
				return c.Dispatch(store.SetEditReferralModal{Open: true, User: &user}), nil
			}
		}
		return store.State{}, errors.Wrapf(ErrUserNotFound, "%s", req.Mobile)
	}
	return store.State{}, errors.Wrapf(ErrUnknownModal, "%q", name)
}

// errorMessage is the display message of a platform failure
func errorMessage(err error, fallback string) string {
	if apiErr, ok := platform.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

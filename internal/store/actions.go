package store

import (
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
)

// Action is a state change request handled by Reduce
type Action interface {
	Type() string
}

type (
	SetActiveTab        struct{ Tab Tab }
	ToggleSidebar       struct{}
	SetSidebarOpen      struct{ Open bool }
	SetShowAdminDetails struct{ Show bool }

	SetReferralModalOpen struct{ Open bool }
	// SetEditReferralModal keeps the previous user when User is nil
	SetEditReferralModal struct {
		Open bool
		User *models.User
	}
	// SetProofModal keeps the previous proof when Data is nil
	SetProofModal struct {
		Open bool
		Data *orders.Proof
	}
	SetRejectionModal struct {
		Open   bool
		UnitID string
	}

	SetPendingUnits  struct{ Entries []models.OrderEntry }
	SetOrdersError   struct{ Message string }
	SetSearchQuery   struct{ Query string }
	SetPaymentFilter struct{ Filter string }
	SetStatusFilter  struct{ Filter string }
	SetFilters       struct{ Filters orders.FilterState }

	// ToggleOrderExpansion collapses the order if it is expanded, otherwise
	// expands it on its first unit
	ToggleOrderExpansion struct{ OrderID string }
	// ToggleUnit selects a unit of the expanded order, or clears the
	// selection when the unit is already selected
	ToggleUnit        struct{ Index int }
	ToggleFullDetails struct{}

	SetReferrals         struct{ Users []models.User }
	SetExistingCustomers struct{ Users []models.User }
	SetProducts          struct{ Products []models.Product }

	RequestReferralSort struct{ Key string }
	RequestInvestorSort struct{ Key string }
)

func (SetActiveTab) Type() string         { return "ui/setActiveTab" }
func (ToggleSidebar) Type() string        { return "ui/toggleSidebar" }
func (SetSidebarOpen) Type() string       { return "ui/setSidebarOpen" }
func (SetShowAdminDetails) Type() string  { return "ui/setShowAdminDetails" }
func (SetReferralModalOpen) Type() string { return "ui/setReferralModalOpen" }
func (SetEditReferralModal) Type() string { return "ui/setEditReferralModal" }
func (SetProofModal) Type() string        { return "ui/setProofModal" }
func (SetRejectionModal) Type() string    { return "ui/setRejectionModal" }
func (SetPendingUnits) Type() string      { return "orders/setPendingUnits" }
func (SetOrdersError) Type() string       { return "orders/setOrdersError" }
func (SetSearchQuery) Type() string       { return "orders/setSearchQuery" }
func (SetPaymentFilter) Type() string     { return "orders/setPaymentFilter" }
func (SetStatusFilter) Type() string      { return "orders/setStatusFilter" }
func (SetFilters) Type() string           { return "orders/setFilters" }
func (ToggleOrderExpansion) Type() string { return "orders/toggleExpansion" }
func (ToggleUnit) Type() string           { return "orders/toggleUnit" }
func (ToggleFullDetails) Type() string    { return "orders/toggleFullDetails" }
func (SetReferrals) Type() string         { return "users/setReferralUsers" }
func (SetExistingCustomers) Type() string { return "users/setExistingCustomers" }
func (SetProducts) Type() string          { return "products/setProducts" }
func (RequestReferralSort) Type() string  { return "users/requestReferralSort" }
func (RequestInvestorSort) Type() string  { return "users/requestInvestorSort" }

// Package store holds the dashboard state of each admin. State only changes
// through Reduce, and Reduce never shares slices between the old and the new
// state.
package store

import (
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
	"example.com/backstage/services/herdadmin/internal/table"
)

// Tab is a dashboard view
type Tab string

// Dashboard views
const (
	TabOrders      Tab = "orders"
	TabNonVerified Tab = "nonVerified"
	TabExisting    Tab = "existing"
	TabTree        Tab = "tree"
	TabProducts    Tab = "products"
	TabTracking    Tab = "tracking"
)

// Tabs lists the views in sidebar order
var Tabs = []Tab{TabOrders, TabTracking, TabNonVerified, TabExisting, TabTree, TabProducts}

// Valid reports whether t names a known view
func (t Tab) Valid() bool {
	for _, known := range Tabs {
		if t == known {
			return true
		}
	}
	return false
}

// EditReferralModal is the referral edit form
type EditReferralModal struct {
	Open bool         `json:"isOpen"`
	User *models.User `json:"user"`
}

// ProofModal is the payment proof viewer
type ProofModal struct {
	Open bool          `json:"isOpen"`
	Data *orders.Proof `json:"data"`
}

// RejectionModal is the reject-with-reason dialog
type RejectionModal struct {
	Open   bool   `json:"isOpen"`
	UnitID string `json:"unitId"`
}

// Modals is the open/closed state of every dialog
type Modals struct {
	Referral     bool              `json:"referral"`
	EditReferral EditReferralModal `json:"editReferral"`
	Proof        ProofModal        `json:"proof"`
	Rejection    RejectionModal    `json:"rejection"`
}

// Expansion tracks which order row is expanded in the orders and tracking views
type Expansion struct {
	ExpandedOrderID string `json:"expandedOrderId"`
	ActiveUnitIndex *int   `json:"activeUnitIndex"`
	ShowFullDetails bool   `json:"showFullDetails"`
}

// OrdersState is the orders view data
type OrdersState struct {
	PendingUnits []models.OrderEntry `json:"pendingUnits"`
	Filters      orders.FilterState  `json:"filters"`
	Expansion    Expansion           `json:"expansion"`
	Error        string              `json:"error,omitempty"`
}

// UsersState holds both user tables
type UsersState struct {
	Referrals []models.User `json:"referralUsers"`
	Existing  []models.User `json:"existingCustomers"`
}

// State is everything one admin's dashboard shows
type State struct {
	ActiveTab        Tab              `json:"activeTab"`
	SidebarOpen      bool             `json:"isSidebarOpen"`
	ShowAdminDetails bool             `json:"showAdminDetails"`
	Modals           Modals           `json:"modals"`
	Orders           OrdersState      `json:"orders"`
	Users            UsersState       `json:"users"`
	Products         []models.Product `json:"products"`
	ReferralSort     table.SortConfig `json:"referralSort"`
	InvestorSort     table.SortConfig `json:"investorSort"`
}

// Initial is the state of a freshly opened dashboard
func Initial() State {
	return State{
		ActiveTab:   TabOrders,
		SidebarOpen: true,
		Orders: OrdersState{
			PendingUnits: []models.OrderEntry{},
			Filters:      orders.DefaultFilterState(),
		},
		Users: UsersState{
			Referrals: []models.User{},
			Existing:  []models.User{},
		},
		Products: []models.Product{},
	}
}

// Clone returns a copy of s that shares no slices or pointers with it.
// Order entries are copied by value; their transaction and investor parts are
// never mutated after decoding.
func (s State) Clone() State {
	out := s
	out.Orders.PendingUnits = append([]models.OrderEntry{}, s.Orders.PendingUnits...)
	out.Users.Referrals = append([]models.User{}, s.Users.Referrals...)
	out.Users.Existing = append([]models.User{}, s.Users.Existing...)
	out.Products = cloneProducts(s.Products)

	if s.Orders.Expansion.ActiveUnitIndex != nil {
		idx := *s.Orders.Expansion.ActiveUnitIndex
		out.Orders.Expansion.ActiveUnitIndex = &idx
	}
	if s.Modals.EditReferral.User != nil {
		u := *s.Modals.EditReferral.User
		out.Modals.EditReferral.User = &u
	}
	if s.Modals.Proof.Data != nil {
		p := *s.Modals.Proof.Data
		p.Files = append([]orders.ProofFile{}, p.Files...)
		out.Modals.Proof.Data = &p
	}
	return out
}

func cloneProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i, p := range in {
		p.BuffaloImages = append([]string(nil), p.BuffaloImages...)
		out[i] = p
	}
	return out
}

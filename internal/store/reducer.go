package store

import (
	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
)

// Reduce returns the state after a. The previous state is left untouched and
// unknown actions return a copy of it.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch a := a.(type) {
	case SetActiveTab:
		if a.Tab.Valid() {
			next.ActiveTab = a.Tab
		}
	case ToggleSidebar:
		next.SidebarOpen = !next.SidebarOpen
	case SetSidebarOpen:
		next.SidebarOpen = a.Open
	case SetShowAdminDetails:
		next.ShowAdminDetails = a.Show

	case SetReferralModalOpen:
		next.Modals.Referral = a.Open
	case SetEditReferralModal:
		next.Modals.EditReferral.Open = a.Open
		if a.User != nil {
			u := *a.User
			next.Modals.EditReferral.User = &u
		}
	case SetProofModal:
		next.Modals.Proof.Open = a.Open
		if a.Data != nil {
			p := *a.Data
			p.Files = append([]orders.ProofFile{}, p.Files...)
			next.Modals.Proof.Data = &p
		}
	case SetRejectionModal:
		next.Modals.Rejection = RejectionModal{Open: a.Open, UnitID: a.UnitID}
		if !a.Open {
			next.Modals.Rejection.UnitID = ""
		}

	case SetPendingUnits:
		next.Orders.PendingUnits = append([]models.OrderEntry{}, a.Entries...)
	case SetOrdersError:
		next.Orders.Error = a.Message
	case SetSearchQuery:
		next.Orders.Filters.SearchQuery = a.Query
	case SetPaymentFilter:
		next.Orders.Filters.PaymentFilter = a.Filter
	case SetStatusFilter:
		next.Orders.Filters.StatusFilter = a.Filter
	case SetFilters:
		next.Orders.Filters = a.Filters

	case ToggleOrderExpansion:
		if next.Orders.Expansion.ExpandedOrderID == a.OrderID {
			next.Orders.Expansion = Expansion{}
		} else {
			first := 0
			next.Orders.Expansion = Expansion{ExpandedOrderID: a.OrderID, ActiveUnitIndex: &first}
		}
	case ToggleUnit:
		current := next.Orders.Expansion.ActiveUnitIndex
		if current != nil && *current == a.Index {
			next.Orders.Expansion.ActiveUnitIndex = nil
		} else {
			idx := a.Index
			next.Orders.Expansion.ActiveUnitIndex = &idx
		}
	case ToggleFullDetails:
		next.Orders.Expansion.ShowFullDetails = !next.Orders.Expansion.ShowFullDetails

	case SetReferrals:
		next.Users.Referrals = append([]models.User{}, a.Users...)
	case SetExistingCustomers:
		next.Users.Existing = append([]models.User{}, a.Users...)
	case SetProducts:
		next.Products = cloneProducts(a.Products)

	case RequestReferralSort:
		next.ReferralSort = next.ReferralSort.Request(a.Key)
	case RequestInvestorSort:
		next.InvestorSort = next.InvestorSort.Request(a.Key)
	}

	return next
}

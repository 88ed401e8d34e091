// Package orders selects and summarizes the pending-unit entries shown in the
// orders and tracking views.
package orders

import (
	"strings"

	"example.com/backstage/services/herdadmin/internal/models"
)

// FilterState is the orders view filter bar
type FilterState struct {
	SearchQuery   string `json:"searchQuery"`
	PaymentFilter string `json:"paymentFilter"`
	StatusFilter  string `json:"statusFilter"`
}

// DefaultFilterState opens the orders view on the orders awaiting approval
func DefaultFilterState() FilterState {
	return FilterState{
		PaymentFilter: models.AllPayments,
		StatusFilter:  models.StatusPendingAdminVerification,
	}
}

// IdentityFilterState lets every entry through
func IdentityFilterState() FilterState {
	return FilterState{
		PaymentFilter: models.AllPayments,
		StatusFilter:  models.AllStatus,
	}
}

// Matches reports whether entry passes all three filters
func Matches(entry models.OrderEntry, f FilterState) bool {
	return matchesSearch(entry, f.SearchQuery) &&
		matchesPayment(entry, f.PaymentFilter) &&
		matchesStatus(entry, f.StatusFilter)
}

// Apply returns the entries that pass f, in their original order
func Apply(entries []models.OrderEntry, f FilterState) []models.OrderEntry {
	out := make([]models.OrderEntry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, f) {
			out = append(out, e)
		}
	}
	return out
}

func matchesSearch(entry models.OrderEntry, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return containsFold(entry.Order.ID.String(), q) ||
		containsFold(entry.Order.UserID.String(), q) ||
		containsFold(entry.Order.BreedID, q) ||
		containsFold(entry.InvestorName(), q)
}

func matchesPayment(entry models.OrderEntry, filter string) bool {
	if filter == models.AllPayments {
		return true
	}
	return entry.PaymentType() == filter
}

func matchesStatus(entry models.OrderEntry, filter string) bool {
	if filter == models.AllStatus {
		return true
	}
	return entry.Order.PaymentStatus == filter
}

// containsFold expects lowerQuery to be lower-cased already
func containsFold(field, lowerQuery string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), lowerQuery)
}

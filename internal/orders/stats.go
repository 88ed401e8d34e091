package orders

import (
	"strings"
	"time"

	"github.com/jinzhu/now"

	"example.com/backstage/services/herdadmin/internal/models"
)

// Stats are the counters above the orders table
type Stats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Today    int `json:"today"`
	Total    int `json:"total"`
}

// IsPending reports statuses still waiting on payment or approval
func IsPending(status string) bool {
	return status == models.StatusPendingPayment || status == models.StatusPendingAdminVerification
}

// IsApproved reports statuses of paid orders
func IsApproved(status string) bool {
	return status == models.StatusPaid || status == models.StatusApproved
}

// IsRejected reports both spellings of the rejected status
func IsRejected(status string) bool {
	return status == models.StatusRejected || status == models.StatusRejectedLegacy
}

// Summarize counts entries per status. Today counts the orders created on the
// calendar day of at, in at's location. Creation times sent without an offset
// are read in that location too.
func Summarize(entries []models.OrderEntry, at time.Time) Stats {
	start := now.With(at).BeginningOfDay()
	end := now.With(at).EndOfDay()

	s := Stats{Total: len(entries)}
	for _, e := range entries {
		status := e.Order.PaymentStatus
		switch {
		case IsPending(status):
			s.Pending++
		case IsApproved(status):
			s.Approved++
		case IsRejected(status):
			s.Rejected++
		}

		if created := e.Order.CreatedAt; created != nil && !created.Time.IsZero() {
			t := created.In(at.Location())
			if !t.Before(start) && !t.After(end) {
				s.Today++
			}
		}
	}
	return s
}

// Trackable returns the approved entries shown in the tracking view,
// optionally narrowed to those whose order id or investor name contains query.
func Trackable(entries []models.OrderEntry, query string) []models.OrderEntry {
	q := strings.ToLower(query)
	out := make([]models.OrderEntry, 0, len(entries))
	for _, e := range entries {
		if !IsApproved(e.Order.PaymentStatus) {
			continue
		}
		if q != "" && !containsFold(e.Order.ID.String(), q) && !containsFold(e.InvestorName(), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Find returns the entry with the given order id
func Find(entries []models.OrderEntry, orderID string) (models.OrderEntry, bool) {
	for _, e := range entries {
		if e.Order.ID.String() == orderID {
			return e, true
		}
	}
	return models.OrderEntry{}, false
}

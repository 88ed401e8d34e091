package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/herdadmin/internal/models"
	"example.com/backstage/services/herdadmin/internal/orders"
	"example.com/backstage/services/herdadmin/internal/table"
)

func TestInitialState(t *testing.T) {
	s := Initial()

	assert.Equal(t, TabOrders, s.ActiveTab)
	assert.Equal(t, orders.DefaultFilterState(), s.Orders.Filters)
	assert.Equal(t, models.StatusPendingAdminVerification, s.Orders.Filters.StatusFilter)
	assert.NotNil(t, s.Orders.PendingUnits)
	assert.Nil(t, s.Orders.Expansion.ActiveUnitIndex)
	assert.False(t, s.Modals.Referral)
}

func TestReduceDoesNotAliasPreviousState(t *testing.T) {
	entries := []models.OrderEntry{{Order: models.Order{ID: "U1"}}}
	prev := Reduce(Initial(), SetPendingUnits{Entries: entries})

	entries[0].Order.ID = "changed"
	assert.Equal(t, models.ID("U1"), prev.Orders.PendingUnits[0].Order.ID)

	next := Reduce(prev, SetSearchQuery{Query: "ali"})
	next.Orders.PendingUnits[0].Order.ID = "mutated"

	assert.Equal(t, models.ID("U1"), prev.Orders.PendingUnits[0].Order.ID)
	assert.Empty(t, prev.Orders.Filters.SearchQuery)
	assert.Equal(t, "ali", next.Orders.Filters.SearchQuery)
}

func TestReduceActiveTab(t *testing.T) {
	s := Reduce(Initial(), SetActiveTab{Tab: TabProducts})
	assert.Equal(t, TabProducts, s.ActiveTab)

	s = Reduce(s, SetActiveTab{Tab: Tab("settings")})
	assert.Equal(t, TabProducts, s.ActiveTab)
}

func TestReduceExpansion(t *testing.T) {
	s := Reduce(Initial(), ToggleOrderExpansion{OrderID: "U1"})
	assert.Equal(t, "U1", s.Orders.Expansion.ExpandedOrderID)
	require.NotNil(t, s.Orders.Expansion.ActiveUnitIndex)
	assert.Equal(t, 0, *s.Orders.Expansion.ActiveUnitIndex)

	s = Reduce(s, ToggleFullDetails{})
	assert.True(t, s.Orders.Expansion.ShowFullDetails)

	s = Reduce(s, ToggleUnit{Index: 1})
	assert.Equal(t, 1, *s.Orders.Expansion.ActiveUnitIndex)
	s = Reduce(s, ToggleUnit{Index: 1})
	assert.Nil(t, s.Orders.Expansion.ActiveUnitIndex)

	s = Reduce(s, ToggleOrderExpansion{OrderID: "U2"})
	assert.Equal(t, "U2", s.Orders.Expansion.ExpandedOrderID)
	assert.False(t, s.Orders.Expansion.ShowFullDetails)

	s = Reduce(s, ToggleOrderExpansion{OrderID: "U2"})
	assert.Equal(t, Expansion{}, s.Orders.Expansion)
}

func TestReduceModals(t *testing.T) {
	user := &models.User{Mobile: "9876543210", FirstName: "Asha"}
	s := Reduce(Initial(), SetEditReferralModal{Open: true, User: user})
	assert.True(t, s.Modals.EditReferral.Open)
	assert.Equal(t, "Asha", s.Modals.EditReferral.User.FirstName)

	s = Reduce(s, SetEditReferralModal{Open: false})
	assert.False(t, s.Modals.EditReferral.Open)
	require.NotNil(t, s.Modals.EditReferral.User)

	s = Reduce(s, SetProofModal{Open: true, Data: &orders.Proof{OrderID: "U1", InvestorName: "alice"}})
	assert.Equal(t, "alice", s.Modals.Proof.Data.InvestorName)

	s = Reduce(s, SetRejectionModal{Open: true, UnitID: "U1"})
	assert.Equal(t, RejectionModal{Open: true, UnitID: "U1"}, s.Modals.Rejection)
	s = Reduce(s, SetRejectionModal{Open: false, UnitID: "U1"})
	assert.Equal(t, RejectionModal{}, s.Modals.Rejection)

	s = Reduce(s, SetReferralModalOpen{Open: true})
	assert.True(t, s.Modals.Referral)
}

func TestReduceSortRequests(t *testing.T) {
	s := Reduce(Initial(), RequestReferralSort{Key: "mobile"})
	assert.Equal(t, table.SortConfig{Key: "mobile", Direction: table.Ascending}, s.ReferralSort)
	s = Reduce(s, RequestReferralSort{Key: "mobile"})
	assert.Equal(t, table.Descending, s.ReferralSort.Direction)
	assert.Empty(t, s.InvestorSort.Key)
}

func TestReduceSidebar(t *testing.T) {
	s := Reduce(Initial(), ToggleSidebar{})
	assert.False(t, s.SidebarOpen)
	s = Reduce(s, SetSidebarOpen{Open: true})
	assert.True(t, s.SidebarOpen)
	s = Reduce(s, SetShowAdminDetails{Show: true})
	assert.True(t, s.ShowAdminDetails)
}

func TestControllerSerializesDispatch(t *testing.T) {
	c := NewController("9999999999")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Dispatch(ToggleSidebar{})
		}()
	}
	wg.Wait()

	assert.True(t, c.Snapshot().SidebarOpen)
}

func TestControllerSnapshotIsACopy(t *testing.T) {
	c := NewController("9999999999")
	c.Dispatch(SetReferrals{Users: []models.User{{Mobile: "1111111111"}}})

	snap := c.Snapshot()
	snap.Users.Referrals[0].Mobile = "changed"

	assert.Equal(t, "1111111111", c.Snapshot().Users.Referrals[0].Mobile)
}

func TestRegistryPerAdmin(t *testing.T) {
	r := NewRegistry()
	a := r.Get("1111111111")
	b := r.Get("2222222222")

	assert.Same(t, a, r.Get("1111111111"))
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, r.Len())

	a.Dispatch(SetActiveTab{Tab: TabTree})
	assert.Equal(t, TabOrders, b.Snapshot().ActiveTab)
}

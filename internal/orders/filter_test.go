package orders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/herdadmin/internal/models"
)

func entry(id, status, paymentType, investor string) models.OrderEntry {
	e := models.OrderEntry{
		Order: models.Order{ID: models.ID(id), PaymentStatus: status},
	}
	if paymentType != "" {
		e.Transaction = &models.Transaction{PaymentType: paymentType}
	}
	if investor != "" {
		e.Investor = &models.Investor{Name: investor}
	}
	return e
}

func TestSearchScenario(t *testing.T) {
	e := entry("U1", models.StatusPendingAdminVerification, "", "Alice")
	f := DefaultFilterState()

	f.SearchQuery = "alice"
	assert.True(t, Matches(e, f))

	f.SearchQuery = "bob"
	assert.False(t, Matches(e, f))
}

func TestIdentityFilterKeepsEverything(t *testing.T) {
	entries := []models.OrderEntry{
		entry("U1", models.StatusPendingAdminVerification, models.PaymentCheque, "Alice"),
		entry("U2", models.StatusPaid, "", ""),
		{},
		entry("U3", models.StatusRejected, models.PaymentOnlineUPI, "Bob"),
	}

	for _, e := range entries {
		assert.True(t, Matches(e, IdentityFilterState()))
	}
	assert.Len(t, Apply(entries, IdentityFilterState()), len(entries))
}

func TestSearchFields(t *testing.T) {
	e := models.OrderEntry{
		Order: models.Order{
			ID:            "ORD-778",
			UserID:        "usr-42",
			BreedID:       "MURRAH-001",
			PaymentStatus: models.StatusPaid,
		},
		Investor: &models.Investor{Name: "Ravi Kumar"},
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"ord-7", true},
		{"USR-42", true},
		{"murrah", true},
		{"kumar", true},
		{"cheque", false},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := IdentityFilterState()
			f.SearchQuery = tt.query
			assert.Equal(t, tt.want, Matches(e, f))
		})
	}
}

func TestPaymentAndStatusFilters(t *testing.T) {
	entries := []models.OrderEntry{
		entry("1", models.StatusPendingAdminVerification, models.PaymentBankTransfer, "A"),
		entry("2", models.StatusPendingAdminVerification, models.PaymentCheque, "B"),
		entry("3", models.StatusPaid, models.PaymentBankTransfer, "C"),
		entry("4", models.StatusRejected, "", "D"),
	}

	f := IdentityFilterState()
	f.PaymentFilter = models.PaymentBankTransfer
	got := Apply(entries, f)
	require.Len(t, got, 2)
	assert.Equal(t, models.ID("1"), got[0].Order.ID)
	assert.Equal(t, models.ID("3"), got[1].Order.ID)

	f.StatusFilter = models.StatusPaid
	got = Apply(entries, f)
	require.Len(t, got, 1)
	assert.Equal(t, models.ID("3"), got[0].Order.ID)

	got = Apply(entries, DefaultFilterState())
	assert.Len(t, got, 2)
}

func TestSummarize(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2025, 6, 10, 15, 0, 0, 0, loc)

	raw := `[
		{"order":{"id":"1","paymentStatus":"PENDING_PAYMENT","createdAt":"2025-06-10T09:00:00+05:30"}},
		{"order":{"id":"2","paymentStatus":"PENDING_ADMIN_VERIFICATION","createdAt":"2025-06-09T23:59:00+05:30"}},
		{"order":{"id":"3","paymentStatus":"PAID"}},
		{"order":{"id":"4","paymentStatus":"Approved","createdAt":"2025-06-10T00:00:00+05:30"}},
		{"order":{"id":"5","paymentStatus":"Rejected"}},
		{"order":{"id":"6","paymentStatus":"SOMETHING_ELSE","createdAt":"not a date"}}
	]`
	var entries []models.OrderEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))

	s := Summarize(entries, at)
	assert.Equal(t, Stats{Pending: 2, Approved: 2, Rejected: 1, Today: 2, Total: 6}, s)
}

func TestSummarizeReadsWallClockTimesInLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	raw := `[{"order":{"id":"1","paymentStatus":"PAID","createdAt":"2025-05-24T23:30:00"}}]`
	var entries []models.OrderEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))

	sameEvening := time.Date(2025, 5, 24, 23, 45, 0, 0, loc)
	assert.Equal(t, 1, Summarize(entries, sameEvening).Today)

	nextMorning := time.Date(2025, 5, 25, 9, 0, 0, 0, loc)
	assert.Equal(t, 0, Summarize(entries, nextMorning).Today)
}

func TestTrackable(t *testing.T) {
	entries := []models.OrderEntry{
		entry("A1", models.StatusPaid, "", "Alice"),
		entry("A2", models.StatusApproved, "", "Bob"),
		entry("A3", models.StatusPendingAdminVerification, "", "Alice"),
		entry("A4", models.StatusRejected, "", "Alice"),
	}

	all := Trackable(entries, "")
	require.Len(t, all, 2)

	byName := Trackable(entries, "ALI")
	require.Len(t, byName, 1)
	assert.Equal(t, models.ID("A1"), byName[0].Order.ID)

	byID := Trackable(entries, "a2")
	require.Len(t, byID, 1)
	assert.Equal(t, "Bob", byID[0].InvestorName())
}

func TestProofOf(t *testing.T) {
	raw := `{
		"order":{"id":"U9","paymentStatus":"PENDING_ADMIN_VERIFICATION"},
		"investor":{"name":"Alice"},
		"transaction":{
			"paymentType":"CHEQUE",
			"amount":350000,
			"cheque_proof_url":"https://cdn.example.com/p/1.pdf",
			"pan_card":"https://cdn.example.com/p/pan",
			"receipt":"https://cdn.example.com/p/receipt.JPG?sig=1",
			"utr_number":"UTR123"
		}
	}`
	var e models.OrderEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	p := ProofOf(e)
	assert.Equal(t, "U9", p.OrderID)
	assert.Equal(t, "Alice", p.InvestorName)
	require.Len(t, p.Files, 3)
	assert.Equal(t, "cheque_proof_url", p.Files[0].Field)
	assert.Equal(t, "pan_card", p.Files[1].Field)
	assert.Equal(t, "receipt", p.Files[2].Field)
}

func TestProofOfWithoutTransaction(t *testing.T) {
	p := ProofOf(entry("U1", models.StatusPaid, "", ""))
	assert.NotNil(t, p.Files)
	assert.Empty(t, p.Files)
}

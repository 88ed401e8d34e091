package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Payment statuses reported by the platform for an order. The platform still
// emits the legacy title-case spellings for some historical orders.
const (
	StatusPendingPayment           = "PENDING_PAYMENT"
	StatusPendingAdminVerification = "PENDING_ADMIN_VERIFICATION"
	StatusPaid                     = "PAID"
	StatusApproved                 = "Approved"
	StatusRejected                 = "REJECTED"
	StatusRejectedLegacy           = "Rejected"
)

// Payment types accepted by the platform
const (
	PaymentBankTransfer = "BANK_TRANSFER"
	PaymentCheque       = "CHEQUE"
	PaymentOnlineUPI    = "ONLINE_UPI"
	PaymentManual       = "MANUAL_PAYMENT"
)

// Filter sentinels that disable the payment and status filters
const (
	AllPayments = "All Payments"
	AllStatus   = "All Status"
)

// ID is an identifier the platform sends either as a JSON string or a number.
type ID string

// UnmarshalJSON accepts both quoted and numeric identifiers
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// zonedLayout carries an offset; the rest are wall-clock times
const zonedLayout = time.RFC3339Nano

var wallClockLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a platform timestamp. Values in an unknown layout keep their raw
// text so they can still be displayed.
type Timestamp struct {
	time.Time
	Raw string

	// set when the platform sent no offset
	wallClock bool
}

// In returns the timestamp in loc. A value sent without an offset is read as
// wall-clock time in loc.
func (t Timestamp) In(loc *time.Location) time.Time {
	if !t.wallClock {
		return t.Time.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// UnmarshalJSON parses the known platform layouts and never fails on a string
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			t.Raw = string(data)
			return nil
		}
		t.Time = time.UnixMilli(ms)
		t.Raw = string(data)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Raw = s
	if parsed, err := time.Parse(zonedLayout, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range wallClockLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			t.wallClock = true
			return nil
		}
	}
	return nil
}

// MarshalJSON writes back the raw value the platform sent
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Raw != "" {
		return json.Marshal(t.Raw)
	}
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Order is the order part of a pending-unit entry
type Order struct {
	ID                ID         `json:"id"`
	UserID            ID         `json:"userId,omitempty"`
	NumUnits          int        `json:"numUnits"`
	BreedID           string     `json:"breedId,omitempty"`
	PaymentStatus     string     `json:"paymentStatus"`
	CreatedAt         *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt         *Timestamp `json:"updatedAt,omitempty"`
	PaymentApprovedAt *Timestamp `json:"paymentApprovedAt,omitempty"`
}

// Investor is the investor part of a pending-unit entry
type Investor struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Transaction is the payment part of a pending-unit entry. String attributes
// the platform adds beyond the known fields (proof document links, card
// images) are kept in Extra.
type Transaction struct {
	PaymentType string            `json:"paymentType"`
	Amount      float64           `json:"amount"`
	PaymentDate *Timestamp        `json:"payment_date,omitempty"`
	Extra       map[string]string `json:"-"`
}

type transactionFields Transaction

var knownTransactionKeys = map[string]bool{
	"paymentType":  true,
	"amount":       true,
	"payment_date": true,
}

// UnmarshalJSON decodes the known fields and collects the remaining string attributes
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var fields transactionFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Transaction(fields)
	for key, value := range raw {
		if knownTransactionKeys[key] {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			continue
		}
		if t.Extra == nil {
			t.Extra = make(map[string]string)
		}
		t.Extra[key] = s
	}
	return nil
}

// MarshalJSON flattens Extra back next to the known fields
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.Extra)+3)
	for key, value := range t.Extra {
		out[key] = value
	}
	out["paymentType"] = t.PaymentType
	out["amount"] = t.Amount
	if t.PaymentDate != nil {
		out["payment_date"] = t.PaymentDate
	}
	return json.Marshal(out)
}

// OrderEntry is one element of the platform's pending-units response
type OrderEntry struct {
	Order       Order        `json:"order"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Investor    *Investor    `json:"investor,omitempty"`
}

// InvestorName returns the investor's name or an empty string
func (e OrderEntry) InvestorName() string {
	if e.Investor == nil {
		return ""
	}
	return e.Investor.Name
}

// PaymentType returns the transaction payment type or an empty string
func (e OrderEntry) PaymentType() string {
	if e.Transaction == nil {
		return ""
	}
	return e.Transaction.PaymentType
}

// User is a platform user record, used both for referrals and verified investors
type User struct {
	Mobile          string `json:"mobile" validate:"required,mobile"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Name            string `json:"name,omitempty"`
	ReferedByMobile string `json:"refered_by_mobile,omitempty"`
	ReferedByName   string `json:"refered_by_name,omitempty"`
	Role            string `json:"role,omitempty"`
	Verified        bool   `json:"verified"`
	IsFormFilled    bool   `json:"isFormFilled"`
}

// FullName joins first and last name, falling back to Name
func (u User) FullName() string {
	if u.FirstName != "" || u.LastName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return u.Name
}

// Field exposes the sortable columns of the user tables
func (u User) Field(key string) (interface{}, bool) {
	switch key {
	case "mobile":
		return u.Mobile, true
	case "first_name":
		return u.FirstName, true
	case "last_name":
		return u.LastName, true
	case "name":
		return u.Name, true
	case "refered_by_mobile":
		return u.ReferedByMobile, true
	case "refered_by_name":
		return u.ReferedByName, true
	case "role":
		return u.Role, true
	case "verified":
		return u.Verified, true
	case "isFormFilled":
		return u.IsFormFilled, true
	}
	return nil, false
}

// Product is an item of the livestock catalog
type Product struct {
	ID            ID       `json:"id"`
	Breed         string   `json:"breed"`
	Age           float64  `json:"age"`
	Location      string   `json:"location"`
	Description   string   `json:"description"`
	InStock       bool     `json:"inStock"`
	Price         float64  `json:"price,omitempty"`
	BuffaloImages []string `json:"buffalo_images,omitempty"`
}

// Field exposes the sortable columns of the catalog
func (p Product) Field(key string) (interface{}, bool) {
	switch key {
	case "id":
		return p.ID.String(), true
	case "breed":
		return p.Breed, true
	case "age":
		return p.Age, true
	case "location":
		return p.Location, true
	case "inStock":
		return p.InStock, true
	case "price":
		return p.Price, true
	}
	return nil, false
}

// UserRequest is the body of the create and update user calls
type UserRequest struct {
	Mobile          string `json:"mobile,omitempty" validate:"omitempty,mobile"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	ReferedByMobile string `json:"refered_by_mobile" validate:"required,mobile"`
	ReferedByName   string `json:"refered_by_name" validate:"required"`
	Role            string `json:"role,omitempty"`
}

// StageEvent is published whenever a tracked sub-item changes stage
type StageEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Key         string    `json:"key"`
	OrderID     string    `json:"order_id"`
	Unit        int       `json:"unit"`
	StageID     int       `json:"stage_id"`
	StageLabel  string    `json:"stage_label"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	AdminMobile string    `json:"admin_mobile,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Stage event kinds
const (
	StageEventAdvanced          = "stage_advanced"
	StageEventDeliveryConfirmed = "delivery_confirmed"
)

package platform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Fallback messages used when the platform gives no usable detail
const (
	MsgLoadOrders     = "Failed to load orders"
	MsgApproveOrder   = "Failed to approve order."
	MsgRejectOrder    = "Failed to reject order."
	MsgLoadUsers      = "Failed to load users"
	MsgLoadProducts   = "Failed to load products"
	MsgLoadUser       = "Referrer not found"
	MsgCreateUser     = "Error creating user. Please try again."
	MsgUpdateUser     = "Error updating user. Please try again."
	MsgUserExists     = "User already exists"
	msgUnexpectedBody = "unexpected response body"
)

// APIError is a non-2xx response of the platform
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform returned %d: %s", e.StatusCode, e.Message)
}

// AsAPIError extracts an *APIError from err's chain
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type detailMessage struct {
	Msg *json.RawMessage `json:"msg"`
}

// NormalizeDetail turns an error body's detail into one display string. A
// string detail is used as is, a list uses its first element's msg and an
// object uses its own msg. Anything else yields fallback.
func NormalizeDetail(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return fallback
	}

	raw := strings.TrimSpace(string(eb.Detail))
	switch {
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return s
		}
	case strings.HasPrefix(raw, "["):
		var list []json.RawMessage
		if err := json.Unmarshal(eb.Detail, &list); err == nil && len(list) > 0 {
			if msg, ok := messageOf(list[0]); ok {
				return msg
			}
		}
	case strings.HasPrefix(raw, "{"):
		if msg, ok := messageOf(eb.Detail); ok {
			return msg
		}
	}
	return fallback
}

// messageOf returns the msg field of an object rendered as text
func messageOf(data json.RawMessage) (string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return "", false
	}
	var dm detailMessage
	if err := json.Unmarshal(data, &dm); err != nil || dm.Msg == nil {
		return "", false
	}

	var s string
	if err := json.Unmarshal(*dm.Msg, &s); err == nil {
		return s, true
	}
	return strings.TrimSpace(string(*dm.Msg)), true
}

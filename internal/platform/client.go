// Package platform is the HTTP client of the livestock platform API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/config"
	"example.com/backstage/services/herdadmin/internal/models"
)

// AdminHeader carries the mobile number of the acting admin
const AdminHeader = "X-Admin-Mobile"

// ErrUserNotFound is returned when a user lookup has no user in its response
var ErrUserNotFound = errors.New("user not found")

// Client calls the platform API
type Client struct {
	httpClient *http.Client
	baseURL    string
	endpoints  config.EndpointsConfig
}

// Option configures a Client
type Option func(*Client)

// WithTransport replaces the HTTP transport, e.g. with a tracing round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// NewClient creates a platform client
func NewClient(cfg config.PlatformConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		endpoints:  cfg.Endpoints,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type usersResponse struct {
	Users []models.User `json:"users"`
}

type productsResponse struct {
	Products []models.Product `json:"products"`
}

type ordersResponse struct {
	Orders []models.OrderEntry `json:"orders"`
}

type userResponse struct {
	User *models.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type unitRequest struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
}

// CreateResult is the outcome of a create-user call
type CreateResult struct {
	Message string `json:"message"`
	Exists  bool   `json:"exists"`
}

// GetReferrals returns the users created through referrals
func (c *Client) GetReferrals(ctx context.Context) ([]models.User, error) {
	var resp usersResponse
	if err := c.do(ctx, http.MethodGet, c.endpoints.Referrals, "", nil, &resp, MsgLoadUsers); err != nil {
		return nil, err
	}
	return orEmpty(resp.Users), nil
}

// GetUsers returns the verified investors
func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	var resp usersResponse
	if err := c.do(ctx, http.MethodGet, c.endpoints.Users, "", nil, &resp, MsgLoadUsers); err != nil {
		return nil, err
	}
	return orEmpty(resp.Users), nil
}

// GetProducts returns the livestock catalog
func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, c.endpoints.Products, "", nil, &resp, MsgLoadProducts); err != nil {
		return nil, err
	}
	return orEmpty(resp.Products), nil
}

// GetPendingUnits returns the order entries visible to adminMobile
func (c *Client) GetPendingUnits(ctx context.Context, adminMobile string) ([]models.OrderEntry, error) {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, c.endpoints.PendingUnits, adminMobile, nil, &resp, MsgLoadOrders); err != nil {
		return nil, err
	}
	return orEmpty(resp.Orders), nil
}

// ApproveUnit approves the payment of an order
func (c *Client) ApproveUnit(ctx context.Context, adminMobile, orderID string) error {
	body := unitRequest{OrderID: orderID}
	return c.do(ctx, http.MethodPost, c.endpoints.ApproveUnit, adminMobile, body, nil, MsgApproveOrder)
}

// RejectUnit rejects the payment of an order. An empty reason is omitted.
func (c *Client) RejectUnit(ctx context.Context, adminMobile, orderID, reason string) error {
	body := unitRequest{OrderID: orderID, Reason: strings.TrimSpace(reason)}
	return c.do(ctx, http.MethodPost, c.endpoints.RejectUnit, adminMobile, body, nil, MsgRejectOrder)
}

// GetUserDetails looks up a user by mobile number
func (c *Client) GetUserDetails(ctx context.Context, mobile string) (*models.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, c.userPath(c.endpoints.UserDetails, mobile), "", nil, &resp, MsgLoadUser); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrUserNotFound
	}
	return resp.User, nil
}

// CreateUser creates a referral. An existing user is not an error; it is
// reported through CreateResult.Exists.
func (c *Client) CreateUser(ctx context.Context, req models.UserRequest) (CreateResult, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, c.endpoints.CreateUser, "", req, &resp, MsgCreateUser); err != nil {
		return CreateResult{}, err
	}
	return CreateResult{
		Message: resp.Message,
		Exists:  resp.Message == MsgUserExists,
	}, nil
}

// UpdateUser updates the referral identified by mobile
func (c *Client) UpdateUser(ctx context.Context, mobile string, req models.UserRequest) (string, error) {
	req.Mobile = ""
	var resp messageResponse
	if err := c.do(ctx, http.MethodPut, c.userPath(c.endpoints.UpdateUser, mobile), "", req, &resp, MsgUpdateUser); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) userPath(pattern, mobile string) string {
	if strings.Contains(pattern, "%s") {
		return fmt.Sprintf(pattern, url.PathEscape(mobile))
	}
	return strings.TrimRight(pattern, "/") + "/" + url.PathEscape(mobile)
}

// do sends one request. Non-2xx responses become an *APIError whose message
// is the normalized detail, or fallback.
func (c *Client) do(ctx context.Context, method, path, adminMobile string, in, out interface{}, fallback string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminMobile != "" {
		req.Header.Set(AdminHeader, adminMobile)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Platform call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    NormalizeDetail(data, fallback),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, msgUnexpectedBody)
	}
	return nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

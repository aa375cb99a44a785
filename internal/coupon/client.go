package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Coupon is the subset of the discount service's coupon record this service
// needs.
type Coupon struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// ValidationResult is the discount service's verdict on a code.
type ValidationResult struct {
	Valid         bool   `json:"valid"`
	Message       string `json:"message,omitempty"`
	DiscountCents int64  `json:"discount_cents,omitempty"`
	Code          string `json:"code,omitempty"`
	CouponID      string `json:"coupon_id,omitempty"`
}

// Client talks to the external discount service. Lookups by id are memoized
// briefly; validation and apply always hit the service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	lookups    *gocache.Cache
}

func NewClient(baseURL string, lookupTTL time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		lookups: gocache.New(lookupTTL, 2*lookupTTL),
	}
}

// FindByID resolves a coupon id to its record, or nil when unknown.
func (c *Client) FindByID(ctx context.Context, couponID string) (*Coupon, error) {
	if cached, found := c.lookups.Get(couponID); found {
		coupon := cached.(Coupon)
		return &coupon, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coupons/"+couponID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coupon API returned non-OK status: %s", resp.Status)
	}

	var coupon Coupon
	if err := json.NewDecoder(resp.Body).Decode(&coupon); err != nil {
		return nil, err
	}
	c.lookups.SetDefault(couponID, coupon)
	return &coupon, nil
}

type validateRequest struct {
	Code               string `json:"code"`
	OrderAmountCents   int64  `json:"order_amount_cents"`
	UserID             string `json:"user_id"`
	HasPreviousBooking bool   `json:"has_previous_booking"`
}

// Validate checks a code against an order amount, including the
// first-booking-only eligibility flag.
func (c *Client) Validate(ctx context.Context, code string, orderAmountCents int64, userID uuid.UUID, hasPreviousBooking bool) (*ValidationResult, error) {
	var result ValidationResult
	err := c.post(ctx, "/coupons/validate", validateRequest{
		Code:               code,
		OrderAmountCents:   orderAmountCents,
		UserID:             userID.String(),
		HasPreviousBooking: hasPreviousBooking,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type applyRequest struct {
	CouponID string `json:"coupon_id"`
	UserID   string `json:"user_id"`
}

// Apply consumes one use of the coupon for the user.
func (c *Client) Apply(ctx context.Context, couponID string, userID uuid.UUID) error {
	return c.post(ctx, "/coupons/apply", applyRequest{
		CouponID: couponID,
		UserID:   userID.String(),
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("coupon API returned non-OK status: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

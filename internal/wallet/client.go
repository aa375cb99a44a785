package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client talks to the external wallet ledger. The ledger owns all balance
// accounting; this service only asks for holds and settlements.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

type holdRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	ReferenceID string `json:"reference_id"`
	Reason      string `json:"reason"`
}

type holdResponse struct {
	TransactionID string `json:"transaction_id"`
}

type refundRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	ReferenceID string `json:"reference_id"`
	Reason      string `json:"reason"`
}

type transferRequest struct {
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
	AmountCents int64  `json:"amount_cents"`
	ReferenceID string `json:"reference_id"`
	Reason      string `json:"reason"`
}

// HoldFunds reserves amount against the user's balance. Fails when the
// available balance is insufficient.
func (c *Client) HoldFunds(ctx context.Context, userID uuid.UUID, amountCents int64, referenceID, reason string) (string, error) {
	var resp holdResponse
	err := c.post(ctx, "/wallet/holds", holdRequest{
		UserID:      userID.String(),
		AmountCents: amountCents,
		ReferenceID: referenceID,
		Reason:      reason,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TransactionID, nil
}

func (c *Client) RefundHeldFunds(ctx context.Context, userID uuid.UUID, amountCents int64, referenceID, reason string) error {
	return c.post(ctx, "/wallet/refunds", refundRequest{
		UserID:      userID.String(),
		AmountCents: amountCents,
		ReferenceID: referenceID,
		Reason:      reason,
	}, nil)
}

func (c *Client) CompleteEscrowTransfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amountCents int64, referenceID, reason string) error {
	return c.post(ctx, "/wallet/escrow-transfers", transferRequest{
		FromUserID:  fromUserID.String(),
		ToUserID:    toUserID.String(),
		AmountCents: amountCents,
		ReferenceID: referenceID,
		Reason:      reason,
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
		return fmt.Errorf("wallet API returned non-OK status: %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

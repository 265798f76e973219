// Package knot integrates with the Knot TransactionLink API: linking
// merchant accounts and pulling SKU-level transaction data into local
// purchase history.
package knot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/balanceiq/balanceiq/internal/common"
	"github.com/balanceiq/balanceiq/internal/service"
)

const defaultBaseURL = "https://api.knotapi.com"

// productTransactionLink is the Knot product this backend consumes.
const productTransactionLink = "transaction_link"

// Config holds Knot API credentials.
type Config struct {
	BaseURL   string
	ClientID  string
	APISecret string
}

// Client is an HTTP client for the Knot TransactionLink API. Requests use
// basic auth with the client id and secret.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	authHeader string
	retryOpts  service.RetryOptions
}

// Merchant is a merchant available for linking.
type Merchant struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Session is a link session handed to the frontend SDK.
type Session struct {
	SessionID string `json:"session_id"`
}

// Account is a linked merchant account.
type Account struct {
	ID         string   `json:"id"`
	Merchant   Merchant `json:"merchant"`
	Connection struct {
		Status string `json:"status"`
	} `json:"connection"`
}

// Price carries Knot's string-encoded amounts.
type Price struct {
	Total     string `json:"total"`
	UnitPrice string `json:"unit_price"`
}

// Product is one SKU line within a transaction.
type Product struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Price      Price  `json:"price"`
	Quantity   int    `json:"quantity"`
}

// Transaction is a Knot transaction with its product lines. Merchant is not
// part of the wire payload; the sync loop fills it in from the account the
// transaction came from.
type Transaction struct {
	ID       string    `json:"id"`
	DateTime string    `json:"datetime"`
	Merchant string    `json:"-"`
	Products []Product `json:"products"`
	Price    Price     `json:"price"`
}

// SyncPage is one page of the transaction sync cursor.
type SyncPage struct {
	Transactions []Transaction `json:"transactions"`
	Cursor       string        `json:"cursor"`
	HasMore      bool          `json:"has_more"`
}

// NewClient creates a Knot API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("knot client id and api secret are required: %w", common.ErrMissingConfig)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":" + cfg.APISecret))

	return &Client{
		baseURL:    baseURL,
		authHeader: "Basic " + credentials,
		logger:     slog.Default().With("component", "knot"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
		},
	}, nil
}

// ListMerchants returns merchants available for TransactionLink.
func (c *Client) ListMerchants(ctx context.Context) ([]Merchant, error) {
	var response struct {
		Merchants []Merchant `json:"merchants"`
	}
	params := url.Values{"type": {productTransactionLink}}
	if err := c.get(ctx, "/merchants", params, &response); err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	return response.Merchants, nil
}

// CreateSession opens a link session for the user, optionally pre-selecting
// a merchant.
func (c *Client) CreateSession(ctx context.Context, userID string, merchantID int) (*Session, error) {
	payload := map[string]any{
		"user_id": userID,
		"product": productTransactionLink,
	}
	if merchantID > 0 {
		payload["merchant_id"] = merchantID
	}

	var session Session
	if err := c.post(ctx, "/sessions", payload, &session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

// MerchantAccounts returns the user's linked merchant accounts.
func (c *Client) MerchantAccounts(ctx context.Context, userID string) ([]Account, error) {
	var response struct {
		Accounts []Account `json:"accounts"`
	}
	params := url.Values{"user_id": {userID}}
	if err := c.get(ctx, "/accounts", params, &response); err != nil {
		return nil, fmt.Errorf("failed to list merchant accounts: %w", err)
	}
	return response.Accounts, nil
}

// SyncTransactions fetches one page of transactions for a merchant account.
func (c *Client) SyncTransactions(ctx context.Context, userID, merchantAccountID string, limit int, cursor string) (*SyncPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	params := url.Values{
		"user_id":             {userID},
		"merchant_account_id": {merchantAccountID},
		"limit":               {strconv.Itoa(limit)},
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var page SyncPage
	if err := c.get(ctx, "/transactions/sync", params, &page); err != nil {
		return nil, fmt.Errorf("failed to sync transactions: %w", err)
	}
	return &page, nil
}

// Transaction fetches a single transaction by id.
func (c *Client) Transaction(ctx context.Context, transactionID string) (*Transaction, error) {
	var txn Transaction
	if err := c.get(ctx, "/transactions/"+url.PathEscape(transactionID), nil, &txn); err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %s: %w", transactionID, err)
	}
	return &txn, nil
}

// AccountTransactions pages through every transaction for the user's
// connected merchant accounts. Each returned transaction carries the
// merchant name from its account.
func (c *Client) AccountTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	accounts, err := c.MerchantAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	var all []Transaction
	for _, account := range accounts {
		if account.Connection.Status != "connected" {
			continue
		}

		cursor := ""
		for {
			page, err := c.SyncTransactions(ctx, userID, account.ID, 100, cursor)
			if err != nil {
				return nil, err
			}
			for _, txn := range page.Transactions {
				if txn.Merchant == "" {
					txn.Merchant = account.Merchant.Name
				}
				all = append(all, txn)
			}
			if !page.HasMore {
				break
			}
			cursor = page.Cursor
		}
	}
	return all, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	operation := func() error {
		var reader io.Reader
		if body != nil {
			reader = strings.NewReader(string(body))
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrKnotConnection, err)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", common.ErrKnotRateLimit, common.ErrRateLimit)
		case resp.StatusCode >= 500:
			return fmt.Errorf("knot API error (status %d): %s", resp.StatusCode, string(respBody))
		case resp.StatusCode >= 400:
			return &common.RetryableError{
				Err:       fmt.Errorf("knot API error (status %d): %s", resp.StatusCode, string(respBody)),
				Retryable: false,
			}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return &common.RetryableError{
				Err:       fmt.Errorf("failed to decode response: %w", err),
				Retryable: false,
			}
		}
		return nil
	}

	return common.WithRetry(ctx, operation, c.retryOpts)
}

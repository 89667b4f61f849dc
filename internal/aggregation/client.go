// Package aggregation is a client for the bank data aggregation API that
// transactions and balances are fetched from.
package aggregation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured = errors.New("no aggregation API is configured for this server")
	ErrUnavailable   = errors.New("the aggregation API could not be reached")
)

// Default is the client used by the API handlers. It is nil when no
// aggregation API is configured.
var Default *Client

// APIError is an error reported by the aggregation API.
type APIError struct {
	Status  int    `json:"-"`
	Type    string `json:"error_type"`
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("aggregation API responded with status %d", e.Status)
	}
	return fmt.Sprintf("aggregation API error %s: %s", e.Code, e.Message)
}

// Config configures a Client.
type Config struct {
	URL               string
	ClientID          string
	Secret            string
	RequestsPerSecond float64       // Defaults to 5
	Burst             int           // Defaults to 10
	BalanceTTL        time.Duration // Defaults to 5 minutes
	PageSize          int           // Defaults to 500
	HTTPClient        *http.Client
}

type Client struct {
	url      string
	clientID string
	secret   string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	balances *cache.Cache
}

// New returns a client for the API at cfg.URL.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}

	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	if cfg.BalanceTTL <= 0 {
		cfg.BalanceTTL = 5 * time.Minute
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		url:      strings.TrimRight(cfg.URL, "/"),
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
		pageSize: cfg.PageSize,
		http:     cfg.HTTPClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		balances: cache.New(cfg.BalanceTTL, 2*cfg.BalanceTTL),
	}, nil
}

type credentials struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

// post sends a JSON request to the API and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("aggregation API")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %w", ErrUnavailable, apiErr)
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}

	return nil
}

// Link is the result of a token exchange.
type Link struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// ExchangePublicToken exchanges the public token from the account linking
// flow for a permanent access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (Link, error) {
	req := struct {
		credentials
		PublicToken string `json:"public_token"`
	}{
		credentials: credentials{c.clientID, c.secret},
		PublicToken: publicToken,
	}

	var link Link
	if err := c.post(ctx, "/item/public_token/exchange", req, &link); err != nil {
		return Link{}, err
	}

	return link, nil
}

// Transaction is a transaction as returned by the API.
type Transaction struct {
	ID           string          `json:"transaction_id"`
	AccountID    string          `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	Name         string          `json:"name"`
	MerchantName *string         `json:"merchant_name"`
	Category     []string        `json:"category"`
	Pending      bool            `json:"pending"`
}

type transactionsRequest struct {
	credentials
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Options     struct {
		Count  int `json:"count"`
		Offset int `json:"offset"`
	} `json:"options"`
}

type transactionsResponse struct {
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"total_transactions"`
}

// Transactions fetches all transactions dated from from until to, both inclusive.
func (c *Client) Transactions(ctx context.Context, accessToken string, from, to time.Time) ([]Transaction, error) {
	req := transactionsRequest{
		credentials: credentials{c.clientID, c.secret},
		AccessToken: accessToken,
		StartDate:   from.Format(time.DateOnly),
		EndDate:     to.Format(time.DateOnly),
	}
	req.Options.Count = c.pageSize

	transactions := make([]Transaction, 0)
	for {
		req.Options.Offset = len(transactions)

		var resp transactionsResponse
		if err := c.post(ctx, "/transactions/get", req, &resp); err != nil {
			return nil, err
		}

		transactions = append(transactions, resp.Transactions...)

		if len(resp.Transactions) == 0 || len(transactions) >= resp.TotalTransactions {
			break
		}
	}

	return transactions, nil
}

// Account is an account with its balances.
type Account struct {
	ID       string   `json:"account_id" example:"BxBXxLj1m4HMXBm9WZZmCWVbPjX16EHwv99vp"`
	Name     string   `json:"name" example:"Plaid Checking"`
	Type     string   `json:"type" example:"depository"`
	Subtype  string   `json:"subtype" example:"checking"`
	Balances Balances `json:"balances"`
}

type Balances struct {
	Available *decimal.Decimal `json:"available" example:"100"`
	Current   *decimal.Decimal `json:"current" example:"110"`
	Currency  string           `json:"iso_currency_code" example:"USD"`
}

// Balances returns the accounts of an item with their current balances.
// Results are cached per access token.
func (c *Client) Balances(ctx context.Context, accessToken string) ([]Account, error) {
	if cached, ok := c.balances.Get(accessToken); ok {
		return cached.([]Account), nil
	}

	req := struct {
		credentials
		AccessToken string `json:"access_token"`
	}{
		credentials: credentials{c.clientID, c.secret},
		AccessToken: accessToken,
	}

	var resp struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.post(ctx, "/accounts/balance/get", req, &resp); err != nil {
		return nil, err
	}

	if resp.Accounts == nil {
		resp.Accounts = make([]Account, 0)
	}

	c.balances.Set(accessToken, resp.Accounts, cache.DefaultExpiration)
	return resp.Accounts, nil
}

// Forget drops cached data for an access token.
func (c *Client) Forget(accessToken string) {
	c.balances.Delete(accessToken)
}

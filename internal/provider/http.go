package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finpulse/finpulse/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP implementation of Source for a plaid-style aggregation
// API: POST /transactions/sync for delta fetches and POST /transactions/get
// for date-range fetches. Client credentials ride in the request body; the
// per-user access token is passed per call.
type Client struct {
	baseURL  string
	clientID string
	secret   string
	http     *http.Client
}

// NewClient builds a provider client. timeout bounds each request; zero
// selects the default.
func NewClient(baseURL, clientID, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		http:     &http.Client{Timeout: timeout},
	}
}

// wire format for transactions; dates are plain YYYY-MM-DD strings.
type wireTransaction struct {
	TransactionID  string   `json:"transaction_id"`
	AccountID      string   `json:"account_id"`
	Amount         float64  `json:"amount"`
	Date           string   `json:"date"`
	Name           string   `json:"name"`
	MerchantName   string   `json:"merchant_name"`
	Pending        bool     `json:"pending"`
	Category       []string `json:"category"`
	Location       string   `json:"location"`
	PaymentChannel string   `json:"payment_channel"`
}

type wireAccount struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	Mask      string `json:"mask"`
	Balances  struct {
		Current         float64 `json:"current"`
		Available       float64 `json:"available"`
		IsoCurrencyCode string  `json:"iso_currency_code"`
	} `json:"balances"`
}

type wireError struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// FetchDelta implements Source.
func (c *Client) FetchDelta(ctx context.Context, accessToken, cursor string) (*DeltaPage, error) {
	reqBody := map[string]interface{}{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
	}
	if cursor != "" {
		reqBody["cursor"] = cursor
	}

	raw, err := c.post(ctx, "/transactions/sync", reqBody)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Added    []wireTransaction `json:"added"`
		Modified []wireTransaction `json:"modified"`
		Removed  []struct {
			TransactionID string `json:"transaction_id"`
		} `json:"removed"`
		NextCursor string `json:"next_cursor"`
		HasMore    bool   `json:"has_more"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("FetchDelta: decoding response: %w", err)
	}

	page := &DeltaPage{
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
		Raw:        raw,
	}
	for _, wt := range resp.Added {
		page.Added = append(page.Added, wt.toDomain())
	}
	for _, wt := range resp.Modified {
		page.Modified = append(page.Modified, wt.toDomain())
	}
	for _, r := range resp.Removed {
		page.RemovedIDs = append(page.RemovedIDs, r.TransactionID)
	}
	return page, nil
}

// FetchRange implements Source.
func (c *Client) FetchRange(ctx context.Context, accessToken string, start, end time.Time, opts PageOptions) (*RangePage, error) {
	if opts.Count <= 0 {
		opts.Count = 100
	}
	reqBody := map[string]interface{}{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"access_token": accessToken,
		"start_date":   start.Format("2006-01-02"),
		"end_date":     end.Format("2006-01-02"),
		"options": map[string]int{
			"count":  opts.Count,
			"offset": opts.Offset,
		},
	}

	raw, err := c.post(ctx, "/transactions/get", reqBody)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Transactions      []wireTransaction `json:"transactions"`
		Accounts          []wireAccount     `json:"accounts"`
		TotalTransactions int               `json:"total_transactions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("FetchRange: decoding response: %w", err)
	}

	page := &RangePage{TotalCount: resp.TotalTransactions}
	for _, wt := range resp.Transactions {
		page.Transactions = append(page.Transactions, wt.toDomain())
	}
	for _, wa := range resp.Accounts {
		page.Accounts = append(page.Accounts, domain.Account{
			ID:      wa.AccountID,
			Name:    wa.Name,
			Type:    wa.Type,
			Subtype: wa.Subtype,
			Mask:    wa.Mask,
			Balances: domain.Balances{
				Current:   wa.Balances.Current,
				Available: wa.Balances.Available,
				Currency:  wa.Balances.IsoCurrencyCode,
			},
		})
	}
	return page, nil
}

// post sends one JSON request and returns the raw response body. Non-2xx
// responses are decoded into a domain.ProviderError so callers can inspect
// the provider's code and message.
func (c *Client) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("provider: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("provider: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider: %s: %w", path, &domain.ProviderError{
			Code:    "REQUEST_FAILED",
			Message: err.Error(),
		})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var we wireError
		if json.Unmarshal(raw, &we) == nil && we.ErrorCode != "" {
			return nil, fmt.Errorf("provider: %s: %w", path, &domain.ProviderError{
				Code:    we.ErrorCode,
				Message: we.ErrorMessage,
			})
		}
		return nil, fmt.Errorf("provider: %s: %w", path, &domain.ProviderError{
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
		})
	}
	return raw, nil
}

func (wt wireTransaction) toDomain() domain.Transaction {
	date, _ := time.Parse("2006-01-02", wt.Date)
	return domain.Transaction{
		ID:             wt.TransactionID,
		AccountID:      wt.AccountID,
		Amount:         wt.Amount,
		Date:           date,
		Name:           wt.Name,
		MerchantName:   wt.MerchantName,
		Pending:        wt.Pending,
		Categories:     wt.Category,
		Location:       wt.Location,
		PaymentChannel: wt.PaymentChannel,
	}
}

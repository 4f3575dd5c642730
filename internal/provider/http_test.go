package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finpulse/finpulse/internal/domain"
)

func TestClient_FetchDelta(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/sync" {
			t.Errorf("path = %s, want /transactions/sync", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"added": [{
				"transaction_id": "t1",
				"account_id": "a1",
				"amount": 12.5,
				"date": "2024-06-01",
				"name": "SQ *COFFEE",
				"merchant_name": "Coffee Shop",
				"pending": true,
				"category": ["Food and Drink", "Coffee Shop"]
			}],
			"modified": [],
			"removed": [{"transaction_id": "t0"}],
			"next_cursor": "cursor-2",
			"has_more": true
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "client-id", "secret", 5*time.Second)
	page, err := c.FetchDelta(context.Background(), "access-token", "cursor-1")
	if err != nil {
		t.Fatalf("FetchDelta: %v", err)
	}

	if gotBody["access_token"] != "access-token" || gotBody["cursor"] != "cursor-1" {
		t.Errorf("request body = %v", gotBody)
	}

	if len(page.Added) != 1 {
		t.Fatalf("Added = %d, want 1", len(page.Added))
	}
	tx := page.Added[0]
	if tx.ID != "t1" || tx.Amount != 12.5 || tx.MerchantName != "Coffee Shop" || !tx.Pending {
		t.Errorf("decoded transaction = %+v", tx)
	}
	if tx.PrimaryCategory() != "Food and Drink" {
		t.Errorf("PrimaryCategory = %q, want category order preserved", tx.PrimaryCategory())
	}
	if !tx.Date.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", tx.Date)
	}
	if page.NextCursor != "cursor-2" || !page.HasMore {
		t.Errorf("page = %+v", page)
	}
	if page.RemovedIDs[0] != "t0" {
		t.Errorf("RemovedIDs = %v", page.RemovedIDs)
	}
	if len(page.Raw) == 0 {
		t.Error("Raw payload not retained")
	}
}

func TestClient_FetchDelta_OmitsEmptyCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["cursor"]; ok {
			t.Error("empty cursor was sent; full-history fetch must omit it")
		}
		w.Write([]byte(`{"added": [], "next_cursor": "c1", "has_more": false}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "id", "secret", 5*time.Second)
	if _, err := c.FetchDelta(context.Background(), "tok", ""); err != nil {
		t.Fatal(err)
	}
}

func TestClient_ProviderErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_code": "ITEM_LOGIN_REQUIRED", "error_message": "the login details have changed"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "id", "secret", 5*time.Second)
	_, err := c.FetchDelta(context.Background(), "tok", "")
	if err == nil {
		t.Fatal("want error on 400 response")
	}

	pe, ok := domain.IsProviderError(err)
	if !ok {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if pe.Code != "ITEM_LOGIN_REQUIRED" {
		t.Errorf("Code = %q", pe.Code)
	}
	if pe.Message != "the login details have changed" {
		t.Errorf("Message = %q", pe.Message)
	}
}

func TestClient_FetchRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/get" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			StartDate string         `json:"start_date"`
			EndDate   string         `json:"end_date"`
			Options   map[string]int `json:"options"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.StartDate != "2024-01-01" || body.EndDate != "2024-06-01" {
			t.Errorf("dates = %s..%s", body.StartDate, body.EndDate)
		}
		if body.Options["count"] != 100 || body.Options["offset"] != 0 {
			t.Errorf("options = %v", body.Options)
		}

		w.Write([]byte(`{
			"transactions": [{"transaction_id": "t1", "amount": -900, "date": "2024-03-15", "name": "PAYROLL"}],
			"accounts": [{
				"account_id": "a1",
				"name": "Checking",
				"type": "depository",
				"subtype": "checking",
				"mask": "4321",
				"balances": {"current": 1000.5, "available": 900, "iso_currency_code": "USD"}
			}],
			"total_transactions": 1
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "id", "secret", 5*time.Second)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	page, err := c.FetchRange(context.Background(), "tok", start, end, PageOptions{})
	if err != nil {
		t.Fatalf("FetchRange: %v", err)
	}

	if page.TotalCount != 1 || len(page.Transactions) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if !page.Transactions[0].IsIncome() {
		t.Error("negative amount must classify as income")
	}
	acct := page.Accounts[0]
	if acct.Balances.Current != 1000.5 || acct.Balances.Currency != "USD" || acct.Mask != "4321" {
		t.Errorf("account = %+v", acct)
	}
}

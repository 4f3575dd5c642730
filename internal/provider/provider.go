// Package provider talks to the upstream account-aggregation provider. The
// rest of the engine only sees the Source interface; the concrete client
// speaks the provider's plaid-style JSON API.
package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/finpulse/finpulse/internal/domain"
)

// DeltaPage is one page of the incremental change stream.
type DeltaPage struct {
	Added      []domain.Transaction
	Modified   []domain.Transaction
	RemovedIDs []string
	NextCursor string
	HasMore    bool

	// Raw is the undecoded provider response body, kept for archival.
	Raw json.RawMessage
}

// RangePage is one page of a full historical range fetch.
type RangePage struct {
	Transactions []domain.Transaction
	Accounts     []domain.Account
	TotalCount   int
}

// PageOptions controls range-fetch pagination.
type PageOptions struct {
	Count  int
	Offset int
}

// Source is the narrow view of the aggregation provider consumed by the
// sync coordinator. FetchDelta returns changes after the opaque cursor
// (empty cursor = full history from epoch); FetchRange returns transactions
// and accounts for a date window without involving the cursor.
type Source interface {
	FetchDelta(ctx context.Context, accessToken, cursor string) (*DeltaPage, error)
	FetchRange(ctx context.Context, accessToken string, start, end time.Time, opts PageOptions) (*RangePage, error)
}

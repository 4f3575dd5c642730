// Package store defines the document store consumed by the sync coordinator
// and the analytics surface. Two implementations exist: memory (tests, local
// development) and bigquery (production).
package store

import (
	"context"

	"github.com/finpulse/finpulse/internal/domain"
)

// DocumentStore persists transactions, accounts and per-user sync state.
//
// UpsertTransactions must be idempotent keyed on transaction ID: the sync
// protocol is at-least-once and duplicated pages must collapse to a single
// record. SetSyncState writes for the same user must be serialized by the
// implementation.
type DocumentStore interface {
	UpsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error
	DeleteTransactions(ctx context.Context, userID string, ids []string) error
	UpsertAccounts(ctx context.Context, userID string, accounts []domain.Account) error
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)

	// GetSyncState returns nil (no error) when the user has no state yet.
	GetSyncState(ctx context.Context, userID string) (*domain.SyncState, error)
	SetSyncState(ctx context.Context, userID string, state domain.SyncState) error
}

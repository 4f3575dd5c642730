// Package memory is an in-memory DocumentStore.
// It is safe for concurrent use. Data is lost on service restart - for
// persistence, use the BigQuery-backed store.
package memory

import (
	"context"
	"sync"

	"github.com/finpulse/finpulse/internal/domain"
)

// Store keeps per-user transaction, account and sync-state maps guarded by a
// single RWMutex. Per-user SetSyncState serialization falls out of the write
// lock.
type Store struct {
	mu       sync.RWMutex
	txs      map[string]map[string]domain.Transaction // userID -> txID -> tx
	accounts map[string]map[string]domain.Account     // userID -> accountID -> account
	states   map[string]domain.SyncState              // userID -> state
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		txs:      make(map[string]map[string]domain.Transaction),
		accounts: make(map[string]map[string]domain.Account),
		states:   make(map[string]domain.SyncState),
	}
}

// UpsertTransactions inserts or replaces transactions keyed by ID.
// Re-upserting the same page is a no-op beyond overwriting equal values, so
// duplicated delta pages never create duplicate records.
func (s *Store) UpsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.txs[userID]
	if !ok {
		byID = make(map[string]domain.Transaction)
		s.txs[userID] = byID
	}
	for _, tx := range txs {
		if tx.ID == "" {
			continue
		}
		byID[tx.ID] = tx
	}
	return nil
}

// DeleteTransactions removes the given IDs for the user. Unknown IDs are
// ignored.
func (s *Store) DeleteTransactions(ctx context.Context, userID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.txs[userID]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(byID, id)
	}
	return nil
}

// UpsertAccounts inserts or replaces accounts keyed by ID.
func (s *Store) UpsertAccounts(ctx context.Context, userID string, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.accounts[userID]
	if !ok {
		byID = make(map[string]domain.Account)
		s.accounts[userID] = byID
	}
	for _, a := range accounts {
		if a.ID == "" {
			continue
		}
		byID[a.ID] = a
	}
	return nil
}

// ListTransactions returns a copy of the user's transactions. Order is not
// specified; callers that care sort by date themselves.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.txs[userID]
	out := make([]domain.Transaction, 0, len(byID))
	for _, tx := range byID {
		out = append(out, tx)
	}
	return out, nil
}

// GetSyncState returns a copy of the user's sync state, or nil when the user
// has never synced.
func (s *Store) GetSyncState(ctx context.Context, userID string) (*domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil, nil
	}
	stateCopy := state
	return &stateCopy, nil
}

// SetSyncState stores the user's sync state.
func (s *Store) SetSyncState(ctx context.Context, userID string, state domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.UserID = userID
	s.states[userID] = state
	return nil
}

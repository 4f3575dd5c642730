// Package syncer keeps a user's local transaction set current against the
// aggregation provider. The protocol is cursor-based and at-least-once: a
// failed run leaves the persisted cursor untouched so the next run resumes
// from the last confirmed position, and replayed pages are absorbed by the
// store's idempotent upsert.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/domain"
	"github.com/finpulse/finpulse/internal/provider"
	"github.com/finpulse/finpulse/internal/store"
)

// DeltaArchiver receives raw provider pages for archival. Optional.
type DeltaArchiver interface {
	WriteDelta(ctx context.Context, userID string, payload []byte) (string, error)
}

// SyncResult is what one incremental sync produced.
type SyncResult struct {
	Added      []domain.Transaction `json:"added"`
	Modified   []domain.Transaction `json:"modified"`
	RemovedIDs []string             `json:"removedIds,omitempty"`
	Cursor     string               `json:"cursor"`
}

// RangeResult is what one historical range fetch produced.
type RangeResult struct {
	Transactions []domain.Transaction `json:"transactions"`
	Accounts     []domain.Account     `json:"accounts"`
}

// Coordinator drives the fetch loop and owns SyncState mutation. Syncs for
// the same user are serialized on a per-user mutex: an overlapping call
// waits for the in-flight one instead of interleaving cursor reads.
type Coordinator struct {
	source   provider.Source
	docs     store.DocumentStore
	archiver DeltaArchiver // nil disables archival
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Coordinator. archiver may be nil.
func New(source provider.Source, docs store.DocumentStore, archiver DeltaArchiver, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		source:   source,
		docs:     docs,
		archiver: archiver,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Sync runs one incremental sync for the user. It pages through the delta
// stream accumulating changes, and only after the whole loop succeeds does
// it upsert the batch and commit the final cursor. Store write failures are
// logged warnings, never errors: the freshly fetched data is still returned.
func (c *Coordinator) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "must not be empty")
	}

	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	state, err := c.docs.GetSyncState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Sync: loading sync state: %w", err)
	}
	if state == nil || state.AccessToken == "" {
		return nil, fmt.Errorf("Sync: user %s: %w", userID, domain.ErrAuthenticationMissing)
	}

	result := &SyncResult{Cursor: state.Cursor}
	cursor := state.Cursor
	pages := 0
	for {
		page, err := c.source.FetchDelta(ctx, state.AccessToken, cursor)
		if err != nil {
			// Persisted cursor is untouched; a retry resumes from the
			// last confirmed position.
			return nil, fmt.Errorf("Sync: fetching delta page %d: %w", pages+1, err)
		}
		pages++

		result.Added = append(result.Added, page.Added...)
		result.Modified = append(result.Modified, page.Modified...)
		result.RemovedIDs = append(result.RemovedIDs, page.RemovedIDs...)
		cursor = page.NextCursor

		c.archiveDelta(ctx, userID, page.Raw)

		if !page.HasMore {
			break
		}
	}
	result.Cursor = cursor

	c.log.Info().
		Str("user_id", userID).
		Int("pages", pages).
		Int("added", len(result.Added)).
		Int("modified", len(result.Modified)).
		Int("removed", len(result.RemovedIDs)).
		Msg("Delta fetch complete")

	// Best-effort persistence from here on.
	upserts := make([]domain.Transaction, 0, len(result.Added)+len(result.Modified))
	upserts = append(upserts, result.Added...)
	upserts = append(upserts, result.Modified...)
	if len(upserts) > 0 {
		if err := c.docs.UpsertTransactions(ctx, userID, upserts); err != nil {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to persist synced transactions")
		}
	}
	if len(result.RemovedIDs) > 0 {
		if err := c.docs.DeleteTransactions(ctx, userID, result.RemovedIDs); err != nil {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to delete removed transactions")
		}
	}

	state.Cursor = cursor
	if err := c.docs.SetSyncState(ctx, userID, *state); err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to persist cursor; next sync will replay")
	}

	return result, nil
}

// FetchRange pulls the full transaction and account set for a date window,
// paging until the provider's reported total is reached. Used for one-shot
// historical pulls (initial link); the cursor is never touched.
func (c *Coordinator) FetchRange(ctx context.Context, userID string, start, end time.Time) (*RangeResult, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "must not be empty")
	}

	state, err := c.docs.GetSyncState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("FetchRange: loading sync state: %w", err)
	}
	if state == nil || state.AccessToken == "" {
		return nil, fmt.Errorf("FetchRange: user %s: %w", userID, domain.ErrAuthenticationMissing)
	}

	const pageSize = 100
	result := &RangeResult{}
	offset := 0
	for {
		page, err := c.source.FetchRange(ctx, state.AccessToken, start, end, provider.PageOptions{
			Count:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("FetchRange: fetching at offset %d: %w", offset, err)
		}

		result.Transactions = append(result.Transactions, page.Transactions...)
		if offset == 0 {
			result.Accounts = page.Accounts
		}

		offset += len(page.Transactions)
		if offset >= page.TotalCount || len(page.Transactions) == 0 {
			break
		}
	}

	if len(result.Transactions) > 0 {
		if err := c.docs.UpsertTransactions(ctx, userID, result.Transactions); err != nil {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to persist range transactions")
		}
	}
	if len(result.Accounts) > 0 {
		if err := c.docs.UpsertAccounts(ctx, userID, result.Accounts); err != nil {
			c.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to persist accounts")
		}
	}

	return result, nil
}

func (c *Coordinator) archiveDelta(ctx context.Context, userID string, raw []byte) {
	if c.archiver == nil || len(raw) == 0 {
		return
	}
	if _, err := c.archiver.WriteDelta(ctx, userID, raw); err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to archive delta page")
	}
}

// userLock returns the mutex serializing syncs for one user, creating it on
// first use. Lock entries are never removed; the per-user footprint is one
// mutex.
func (c *Coordinator) userLock(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[userID] = lock
	}
	return lock
}

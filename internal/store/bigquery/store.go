// Package bigquery is the production DocumentStore backed by BigQuery.
// Upserts use MERGE statements keyed on record ID so replayed delta pages
// collapse to one row.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/finpulse/finpulse/internal/domain"
)

// Store implements store.DocumentStore on top of a shared BigQuery client.
type Store struct {
	client  *bigquery.Client
	dataset string
}

// NewStore creates a Store for the given project and dataset.
func NewStore(ctx context.Context, projectID, dataset string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return &Store{client: client, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UpsertTransactions merges the batch into the transactions table, one MERGE
// per row, keyed on (user_id, transaction_id).
func (s *Store) UpsertTransactions(ctx context.Context, userID string, txs []domain.Transaction) error {
	stmt := fmt.Sprintf(`
		MERGE %s.transactions T
		USING (SELECT @transaction_id AS transaction_id, @user_id AS user_id) S
		ON T.transaction_id = S.transaction_id AND T.user_id = S.user_id
		WHEN MATCHED THEN UPDATE SET
			account_id = @account_id,
			transaction_date = @transaction_date,
			amount = @amount,
			raw_name = @raw_name,
			merchant_name = @merchant_name,
			pending = @pending,
			categories = @categories,
			location = @location,
			payment_channel = @payment_channel,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (
			transaction_id, user_id, account_id, transaction_date, amount,
			raw_name, merchant_name, pending, categories, location,
			payment_channel, updated_ts
		) VALUES (
			@transaction_id, @user_id, @account_id, @transaction_date, @amount,
			@raw_name, @merchant_name, @pending, @categories, @location,
			@payment_channel, @updated_ts
		)
	`, s.dataset)

	for _, tx := range txs {
		row := transactionToRow(userID, tx)
		q := s.client.Query(stmt)
		q.Parameters = []bigquery.QueryParameter{
			{Name: "transaction_id", Value: row.TransactionID},
			{Name: "user_id", Value: row.UserID},
			{Name: "account_id", Value: row.AccountID},
			{Name: "transaction_date", Value: row.TransactionDate},
			{Name: "amount", Value: row.Amount},
			{Name: "raw_name", Value: row.RawName},
			{Name: "merchant_name", Value: row.MerchantName.StringVal},
			{Name: "pending", Value: row.Pending},
			{Name: "categories", Value: row.Categories},
			{Name: "location", Value: row.Location.StringVal},
			{Name: "payment_channel", Value: row.PaymentChannel.StringVal},
			{Name: "updated_ts", Value: row.UpdatedTS},
		}
		if err := s.runQuery(ctx, q, "UpsertTransactions"); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTransactions removes the given IDs for the user.
func (s *Store) DeleteTransactions(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := s.client.Query(fmt.Sprintf(`
		DELETE FROM %s.transactions
		WHERE user_id = @user_id AND transaction_id IN UNNEST(@ids)
	`, s.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "ids", Value: ids},
	}
	return s.runQuery(ctx, q, "DeleteTransactions")
}

// UpsertAccounts merges the batch into the accounts table keyed on
// (user_id, account_id).
func (s *Store) UpsertAccounts(ctx context.Context, userID string, accounts []domain.Account) error {
	stmt := fmt.Sprintf(`
		MERGE %s.accounts T
		USING (SELECT @account_id AS account_id, @user_id AS user_id) S
		ON T.account_id = S.account_id AND T.user_id = S.user_id
		WHEN MATCHED THEN UPDATE SET
			account_name = @account_name,
			account_type = @account_type,
			subtype = @subtype,
			mask = @mask,
			balance_current = @balance_current,
			balance_available = @balance_available,
			currency = @currency,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (
			account_id, user_id, account_name, account_type, subtype, mask,
			balance_current, balance_available, currency, updated_ts
		) VALUES (
			@account_id, @user_id, @account_name, @account_type, @subtype, @mask,
			@balance_current, @balance_available, @currency, @updated_ts
		)
	`, s.dataset)

	for _, a := range accounts {
		q := s.client.Query(stmt)
		q.Parameters = []bigquery.QueryParameter{
			{Name: "account_id", Value: a.ID},
			{Name: "user_id", Value: userID},
			{Name: "account_name", Value: a.Name},
			{Name: "account_type", Value: a.Type},
			{Name: "subtype", Value: a.Subtype},
			{Name: "mask", Value: a.Mask},
			{Name: "balance_current", Value: a.Balances.Current},
			{Name: "balance_available", Value: a.Balances.Available},
			{Name: "currency", Value: a.Balances.Currency},
			{Name: "updated_ts", Value: time.Now()},
		}
		if err := s.runQuery(ctx, q, "UpsertAccounts"); err != nil {
			return err
		}
	}
	return nil
}

// ListTransactions returns all transactions for the user, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			account_id,
			transaction_date,
			amount,
			raw_name,
			merchant_name,
			pending,
			categories,
			location,
			payment_channel,
			updated_ts
		FROM %s.transactions
		WHERE user_id = @user_id
		ORDER BY transaction_date DESC
	`, s.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: reading query: %w", err)
	}

	var out []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iterating: %w", err)
		}
		out = append(out, rowToTransaction(&row))
	}
	return out, nil
}

// GetSyncState returns the user's sync state, or nil when the user has
// never been linked.
func (s *Store) GetSyncState(ctx context.Context, userID string) (*domain.SyncState, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT user_id, access_token, cursor, updated_ts
		FROM %s.sync_state
		WHERE user_id = @user_id
		LIMIT 1
	`, s.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetSyncState: reading query: %w", err)
	}

	var row SyncStateRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetSyncState: iterating: %w", err)
	}

	return &domain.SyncState{
		UserID:      row.UserID,
		AccessToken: row.AccessToken,
		Cursor:      row.Cursor,
	}, nil
}

// SetSyncState merges the user's sync state. BigQuery serializes DML on the
// same row, which satisfies the per-user single-writer requirement together
// with the coordinator's per-user lock.
func (s *Store) SetSyncState(ctx context.Context, userID string, state domain.SyncState) error {
	q := s.client.Query(fmt.Sprintf(`
		MERGE %s.sync_state T
		USING (SELECT @user_id AS user_id) S
		ON T.user_id = S.user_id
		WHEN MATCHED THEN UPDATE SET
			access_token = @access_token,
			cursor = @cursor,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (user_id, access_token, cursor, updated_ts)
		VALUES (@user_id, @access_token, @cursor, @updated_ts)
	`, s.dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "access_token", Value: state.AccessToken},
		{Name: "cursor", Value: state.Cursor},
		{Name: "updated_ts", Value: time.Now()},
	}
	return s.runQuery(ctx, q, "SetSyncState")
}

func (s *Store) runQuery(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/finpulse/finpulse/internal/domain"
)

// TransactionRow maps domain.Transaction onto the finpulse.transactions
// table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED
	AccountID     string `bigquery:"account_id"`     // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount float64 `bigquery:"amount"` // REQUIRED, signed (negative = income)

	RawName      string              `bigquery:"raw_name"` // REQUIRED
	MerchantName bigquery.NullString `bigquery:"merchant_name"`

	Pending bool `bigquery:"pending"`

	Categories []string `bigquery:"categories"` // REPEATED, primary first

	Location       bigquery.NullString `bigquery:"location"`
	PaymentChannel bigquery.NullString `bigquery:"payment_channel"`

	UpdatedTS time.Time `bigquery:"updated_ts"`
}

// AccountRow maps domain.Account onto the finpulse.accounts table schema.
type AccountRow struct {
	AccountID string `bigquery:"account_id"` // REQUIRED
	UserID    string `bigquery:"user_id"`    // REQUIRED

	AccountName string `bigquery:"account_name"`
	AccountType string `bigquery:"account_type"`
	Subtype     string `bigquery:"subtype"`
	Mask        string `bigquery:"mask"`

	BalanceCurrent   float64 `bigquery:"balance_current"`
	BalanceAvailable float64 `bigquery:"balance_available"`
	Currency         string  `bigquery:"currency"`

	UpdatedTS time.Time `bigquery:"updated_ts"`
}

// SyncStateRow maps domain.SyncState onto the finpulse.sync_state table.
// One row per user; cursor empty until the first successful delta sync.
type SyncStateRow struct {
	UserID      string    `bigquery:"user_id"` // REQUIRED
	AccessToken string    `bigquery:"access_token"`
	Cursor      string    `bigquery:"cursor"`
	UpdatedTS   time.Time `bigquery:"updated_ts"`
}

func transactionToRow(userID string, tx domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          userID,
		AccountID:       tx.AccountID,
		TransactionDate: civil.DateOf(tx.Date),
		Amount:          tx.Amount,
		RawName:         tx.Name,
		MerchantName:    bigquery.NullString{StringVal: tx.MerchantName, Valid: tx.MerchantName != ""},
		Pending:         tx.Pending,
		Categories:      tx.Categories,
		Location:        bigquery.NullString{StringVal: tx.Location, Valid: tx.Location != ""},
		PaymentChannel:  bigquery.NullString{StringVal: tx.PaymentChannel, Valid: tx.PaymentChannel != ""},
		UpdatedTS:       time.Now(),
	}
}

func rowToTransaction(row *TransactionRow) domain.Transaction {
	return domain.Transaction{
		ID:             row.TransactionID,
		AccountID:      row.AccountID,
		Amount:         row.Amount,
		Date:           row.TransactionDate.In(time.UTC),
		Name:           row.RawName,
		MerchantName:   row.MerchantName.StringVal,
		Pending:        row.Pending,
		Categories:     row.Categories,
		Location:       row.Location.StringVal,
		PaymentChannel: row.PaymentChannel.StringVal,
	}
}

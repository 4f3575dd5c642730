package domain

import (
	"time"
)

// Transaction is one transaction record as delivered by the aggregation
// provider and stored locally. Records are immutable once synced except for
// Pending flipping to false when the transaction settles; identity is the
// provider-issued ID, unique per account.
//
// Sign convention (provider-defined, preserved everywhere): a negative
// amount is money IN (income/credit), a positive amount is money OUT
// (expense/debit).
type Transaction struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	Amount       float64   `json:"amount"` // signed, see convention above
	Date         time.Time `json:"date"`
	Name         string    `json:"name"`                   // raw descriptor from the provider
	MerchantName string    `json:"merchantName,omitempty"` // cleaned merchant name, may be empty
	Pending      bool      `json:"pending"`

	// Categories is the provider taxonomy path, primary category first.
	Categories []string `json:"categories,omitempty"`

	Location       string `json:"location,omitempty"`
	PaymentChannel string `json:"paymentChannel,omitempty"`
}

// IsIncome reports whether the transaction is money in. This is the single
// income/expense predicate for the whole engine; peer selection, ranking
// scope and income profiles must all go through it rather than re-checking
// the sign inline.
func (t Transaction) IsIncome() bool {
	return t.Amount < 0
}

// AbsAmount returns the unsigned amount. Every stat contribution of a
// transaction is its absolute amount.
func (t Transaction) AbsAmount() float64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// DisplayName returns the merchant name when the provider supplied one,
// otherwise the raw descriptor. Peer grouping keys on this value.
func (t Transaction) DisplayName() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Name
}

// PrimaryCategory returns the first (most significant) category, or "" when
// the provider returned none.
func (t Transaction) PrimaryCategory() string {
	if len(t.Categories) == 0 {
		return ""
	}
	return t.Categories[0]
}

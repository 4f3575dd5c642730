package domain

// Balances holds the point-in-time balance snapshot for an account.
type Balances struct {
	Current   float64 `json:"current"`
	Available float64 `json:"available"`
	Currency  string  `json:"currency"`
}

// Account is a linked bank account as reported by the aggregation provider.
type Account struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Subtype  string   `json:"subtype"`
	Balances Balances `json:"balances"`
	Mask     string   `json:"mask"` // last digits of the account number
}

// SyncState is the per-user sync position: the provider access token and the
// opaque cursor marking the last confirmed position in the change stream.
// A nil/empty cursor means "fetch full history from epoch". Owned exclusively
// by the sync coordinator and mutated only after a successful batch.
type SyncState struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
	Cursor      string `json:"cursor"`
}

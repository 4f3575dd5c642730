package domain

import (
	"time"
)

// DefaultAnnualIncome is assumed when a user has no income-sign transactions
// at all, so that percent-of-income ratios stay defined instead of dividing
// by zero.
const DefaultAnnualIncome = 50000.0

// MerchantStat is the derived spending/income profile for one merchant
// relative to a reference transaction. Not persisted.
type MerchantStat struct {
	MerchantName   string    `json:"merchantName"`
	TotalAbsAmount float64   `json:"totalAbsAmount"`
	Count          int       `json:"count"`
	AverageAmount  float64   `json:"averageAmount"`
	FirstDate      time.Time `json:"firstDate"`
	DaysSinceFirst int       `json:"daysSinceFirst"`
	MonthlyAverage float64   `json:"monthlyAverage"`
	AnnualPacing   float64   `json:"annualPacing"`

	// Rank orders this merchant among all same-sign peers by monthly
	// average, descending, 1-based. Zero when ranking does not apply
	// (income references are not ranked).
	Rank       int `json:"rank,omitempty"`
	TotalPeers int `json:"totalPeers,omitempty"`
}

// CategoryStat mirrors MerchantStat, scoped to transactions sharing the
// reference's primary category and income/expense sign.
type CategoryStat struct {
	Category       string    `json:"category"`
	TotalAbsAmount float64   `json:"totalAbsAmount"`
	Count          int       `json:"count"`
	AverageAmount  float64   `json:"averageAmount"`
	FirstDate      time.Time `json:"firstDate"`
	DaysSinceFirst int       `json:"daysSinceFirst"`
	MonthlyAverage float64   `json:"monthlyAverage"`
	AnnualPacing   float64   `json:"annualPacing"`
	Rank           int       `json:"rank,omitempty"`
	TotalPeers     int       `json:"totalPeers,omitempty"`
}

// IncomeSource is one distinct origin of income-sign transactions.
type IncomeSource struct {
	Amount         float64 `json:"amount"` // total absolute amount observed
	Count          int     `json:"count"`
	MonthlyAverage float64 `json:"monthlyAverage"`
	AnnualPace     float64 `json:"annualPace"`
	PercentOfTotal float64 `json:"percentOfTotal"`
}

// IncomeProfile aggregates all income-sign transactions of a user.
// AnnualIncome falls back to DefaultAnnualIncome when BySource is empty.
type IncomeProfile struct {
	MonthlyIncome float64                 `json:"monthlyIncome"`
	AnnualIncome  float64                 `json:"annualIncome"`
	BySource      map[string]IncomeSource `json:"bySource"`
}

// Stats is the full analytics result for one reference transaction.
type Stats struct {
	Reference       Transaction   `json:"reference"`
	IsIncome        bool          `json:"isIncome"`
	Merchant        MerchantStat  `json:"merchant"`
	Category        *CategoryStat `json:"category,omitempty"` // nil when the reference has no category
	Income          IncomeProfile `json:"income"`
	PercentOfIncome float64       `json:"percentOfIncome"` // merchant pacing vs annual income, uncapped
}

// Package stats derives comparative spending/income analytics from a
// snapshot of a user's transactions. All computations are pure and read-only
// over the given slice; they may run in parallel across users and calls.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/finpulse/finpulse/internal/domain"
)

// Pacing formulas. Expense pacing extrapolates the observed daily rate to a
// year; income pacing scales the 30-day average by 12. The two formulas do
// NOT converge for identical inputs. Do not change one side without
// changing stored expectations downstream.
const (
	daysPerMonth  = 30
	daysPerYear   = 365
	monthsPerYear = 12
)

// peerSummary is the shared aggregate over one peer set.
type peerSummary struct {
	Total          float64
	Count          int
	Average        float64
	First          time.Time
	DaysSinceFirst int
	MonthlyAverage float64
}

// Compute derives the full Stats for one reference transaction against the
// user's whole transaction set. Returns nil when the reference is absent.
// now anchors the elapsed-time windows; callers pass time.Now() outside
// tests.
func Compute(ref *domain.Transaction, all []domain.Transaction, now time.Time) *domain.Stats {
	if ref == nil {
		return nil
	}

	isIncome := ref.IsIncome()

	var merchantPeers, categoryPeers []domain.Transaction
	refName := ref.DisplayName()
	refCategory := ref.PrimaryCategory()
	for _, tx := range all {
		if tx.DisplayName() == refName {
			merchantPeers = append(merchantPeers, tx)
		}
		if refCategory != "" && tx.PrimaryCategory() == refCategory && tx.IsIncome() == isIncome {
			categoryPeers = append(categoryPeers, tx)
		}
	}

	merchantSum := summarize(merchantPeers, now)
	merchant := domain.MerchantStat{
		MerchantName:   refName,
		TotalAbsAmount: merchantSum.Total,
		Count:          merchantSum.Count,
		AverageAmount:  merchantSum.Average,
		FirstDate:      merchantSum.First,
		DaysSinceFirst: merchantSum.DaysSinceFirst,
		MonthlyAverage: merchantSum.MonthlyAverage,
		AnnualPacing:   annualPacing(merchantSum, isIncome),
	}

	var category *domain.CategoryStat
	if refCategory != "" {
		catSum := summarize(categoryPeers, now)
		category = &domain.CategoryStat{
			Category:       refCategory,
			TotalAbsAmount: catSum.Total,
			Count:          catSum.Count,
			AverageAmount:  catSum.Average,
			FirstDate:      catSum.First,
			DaysSinceFirst: catSum.DaysSinceFirst,
			MonthlyAverage: catSum.MonthlyAverage,
			AnnualPacing:   annualPacing(catSum, isIncome),
		}
	}

	// Income profile spans ALL income transactions, not just peers, so
	// percent-of-income compares against the user's whole income.
	income := BuildIncomeProfile(all, now)

	// Rankings apply to expense references only; income and expenses are
	// never ranked against each other.
	if !isIncome {
		merchant.Rank, merchant.TotalPeers = rankBy(all, now, func(tx domain.Transaction) string {
			return tx.DisplayName()
		}, refName)
		if category != nil {
			category.Rank, category.TotalPeers = rankBy(all, now, func(tx domain.Transaction) string {
				return tx.PrimaryCategory()
			}, refCategory)
		}
	}

	percent := 0.0
	if income.AnnualIncome > 0 {
		percent = merchant.AnnualPacing / income.AnnualIncome * 100
	}

	return &domain.Stats{
		Reference:       *ref,
		IsIncome:        isIncome,
		Merchant:        merchant,
		Category:        category,
		Income:          income,
		PercentOfIncome: percent,
	}
}

// summarize computes the shared aggregate over one peer set. Zero peers
// yield a zeroed summary (no NaN averages).
func summarize(peers []domain.Transaction, now time.Time) peerSummary {
	var s peerSummary
	if len(peers) == 0 {
		return s
	}

	s.First = peers[0].Date
	for _, tx := range peers {
		s.Total += tx.AbsAmount()
		s.Count++
		if tx.Date.Before(s.First) {
			s.First = tx.Date
		}
	}
	s.Average = s.Total / float64(s.Count)
	s.DaysSinceFirst = daysSince(s.First, now)
	s.MonthlyAverage = s.Total / float64(s.DaysSinceFirst) * daysPerMonth
	return s
}

// annualPacing applies the sign-dependent projection formula (see the
// package constants for why the two branches differ).
func annualPacing(s peerSummary, isIncome bool) float64 {
	if s.Count == 0 {
		return 0
	}
	if isIncome {
		return s.MonthlyAverage * monthsPerYear
	}
	return s.Total / float64(s.DaysSinceFirst) * daysPerYear
}

// daysSince is ceil(now-first) in days, floored at 1 so same-day history
// still produces finite projections.
func daysSince(first, now time.Time) int {
	days := int(math.Ceil(now.Sub(first).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// rankBy ranks the reference key among all distinct expense-sign keys by
// monthly average, descending. Ties keep first-appearance order (stable
// sort). Returns rank 0 when the key has no expense transactions.
func rankBy(all []domain.Transaction, now time.Time, keyOf func(domain.Transaction) string, refKey string) (rank, totalPeers int) {
	groups := make(map[string][]domain.Transaction)
	var order []string
	for _, tx := range all {
		if tx.IsIncome() {
			continue
		}
		key := keyOf(tx)
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	type ranked struct {
		key     string
		monthly float64
	}
	entries := make([]ranked, 0, len(order))
	for _, key := range order {
		entries = append(entries, ranked{key: key, monthly: summarize(groups[key], now).MonthlyAverage})
	}
	// Stable: equal monthly averages keep first-appearance order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].monthly > entries[j].monthly
	})

	for i, e := range entries {
		if e.key == refKey {
			return i + 1, len(entries)
		}
	}
	return 0, len(entries)
}

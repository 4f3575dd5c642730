package stats

import (
	"time"

	"github.com/finpulse/finpulse/internal/domain"
)

// BuildIncomeProfile aggregates every income-sign transaction in the set,
// grouped by source (merchant name falling back to the raw descriptor).
// Income pacing is monthly-average x 12 (see the package pacing note).
//
// A user with no income transactions gets domain.DefaultAnnualIncome so
// percent-of-income ratios downstream stay finite.
func BuildIncomeProfile(all []domain.Transaction, now time.Time) domain.IncomeProfile {
	groups := make(map[string][]domain.Transaction)
	for _, tx := range all {
		if !tx.IsIncome() {
			continue
		}
		name := tx.DisplayName()
		groups[name] = append(groups[name], tx)
	}

	profile := domain.IncomeProfile{
		BySource: make(map[string]domain.IncomeSource, len(groups)),
	}

	if len(groups) == 0 {
		profile.AnnualIncome = domain.DefaultAnnualIncome
		profile.MonthlyIncome = domain.DefaultAnnualIncome / monthsPerYear
		return profile
	}

	for name, txs := range groups {
		s := summarize(txs, now)
		profile.BySource[name] = domain.IncomeSource{
			Amount:         s.Total,
			Count:          s.Count,
			MonthlyAverage: s.MonthlyAverage,
			AnnualPace:     s.MonthlyAverage * monthsPerYear,
		}
		profile.MonthlyIncome += s.MonthlyAverage
		profile.AnnualIncome += s.MonthlyAverage * monthsPerYear
	}

	if profile.AnnualIncome > 0 {
		for name, src := range profile.BySource {
			src.PercentOfTotal = src.AnnualPace / profile.AnnualIncome * 100
			profile.BySource[name] = src
		}
	}
	return profile
}

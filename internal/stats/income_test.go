package stats

import (
	"math"
	"testing"

	"github.com/finpulse/finpulse/internal/domain"
)

func TestBuildIncomeProfile_Fallback(t *testing.T) {
	// Only expenses: the profile must fall back to the default annual
	// income instead of reporting zero.
	txs := []domain.Transaction{
		{ID: "t1", Amount: 50, Date: daysAgo(10), Name: "Store"},
	}

	got := BuildIncomeProfile(txs, testNow)
	if got.AnnualIncome != domain.DefaultAnnualIncome {
		t.Errorf("AnnualIncome = %v, want %v", got.AnnualIncome, domain.DefaultAnnualIncome)
	}
	if want := domain.DefaultAnnualIncome / 12; got.MonthlyIncome != want {
		t.Errorf("MonthlyIncome = %v, want %v", got.MonthlyIncome, want)
	}
	if len(got.BySource) != 0 {
		t.Errorf("BySource = %v, want empty", got.BySource)
	}
}

func TestBuildIncomeProfile_SingleSource(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Amount: -300, Date: daysAgo(30), Name: "ACME PAYROLL"},
		{ID: "t2", Amount: 40, Date: daysAgo(5), Name: "Store"}, // expense, ignored
	}

	got := BuildIncomeProfile(txs, testNow)
	src, ok := got.BySource["ACME PAYROLL"]
	if !ok {
		t.Fatalf("BySource missing ACME PAYROLL: %v", got.BySource)
	}
	if src.Amount != 300 || src.Count != 1 {
		t.Errorf("source = %+v, want Amount 300 Count 1", src)
	}
	// 30 elapsed days: monthly average 300, annual pace 300*12.
	if src.MonthlyAverage != 300 {
		t.Errorf("MonthlyAverage = %v, want 300", src.MonthlyAverage)
	}
	if src.AnnualPace != 3600 {
		t.Errorf("AnnualPace = %v, want 3600", src.AnnualPace)
	}
	if src.PercentOfTotal != 100 {
		t.Errorf("PercentOfTotal = %v, want 100", src.PercentOfTotal)
	}
	if got.AnnualIncome != 3600 {
		t.Errorf("AnnualIncome = %v, want 3600", got.AnnualIncome)
	}
}

func TestBuildIncomeProfile_MultipleSources(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Amount: -900, Date: daysAgo(30), Name: "EMPLOYER"},
		{ID: "t2", Amount: -300, Date: daysAgo(30), Name: "SIDE GIG"},
	}

	got := BuildIncomeProfile(txs, testNow)
	if len(got.BySource) != 2 {
		t.Fatalf("BySource size = %d, want 2", len(got.BySource))
	}

	var percentSum float64
	for _, src := range got.BySource {
		percentSum += src.PercentOfTotal
	}
	if math.Abs(percentSum-100) > 1e-9 {
		t.Errorf("sum of PercentOfTotal = %v, want 100", percentSum)
	}

	employer := got.BySource["EMPLOYER"]
	if math.Abs(employer.PercentOfTotal-75) > 1e-9 {
		t.Errorf("EMPLOYER PercentOfTotal = %v, want 75", employer.PercentOfTotal)
	}
	if math.Abs(got.MonthlyIncome-1200) > 1e-9 {
		t.Errorf("MonthlyIncome = %v, want 1200", got.MonthlyIncome)
	}
}

func TestBuildIncomeProfile_GroupsByMerchantName(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Amount: -100, Date: daysAgo(20), Name: "DEPOSIT 123", MerchantName: "Employer"},
		{ID: "t2", Amount: -100, Date: daysAgo(10), Name: "DEPOSIT 456", MerchantName: "Employer"},
	}

	got := BuildIncomeProfile(txs, testNow)
	if len(got.BySource) != 1 {
		t.Fatalf("BySource = %v, want a single Employer source", got.BySource)
	}
	if got.BySource["Employer"].Count != 2 {
		t.Errorf("Count = %d, want 2", got.BySource["Employer"].Count)
	}
}

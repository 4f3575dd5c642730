package stats

import (
	"math"
	"testing"
	"time"

	"github.com/finpulse/finpulse/internal/domain"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func TestCompute_NilReference(t *testing.T) {
	if got := Compute(nil, []domain.Transaction{{ID: "t1", Amount: 10}}, testNow); got != nil {
		t.Fatalf("Compute(nil, ...) = %+v, want nil", got)
	}
}

// The two pacing formulas are intentionally different: expense pacing is
// daily-rate x 365, income pacing is monthly-average x 12. Identical raw
// numbers must produce 3650 vs 3600.
func TestCompute_PacingFormulas(t *testing.T) {
	tests := []struct {
		name        string
		amount      float64
		wantMonthly float64
		wantAnnual  float64
	}{
		{
			name:        "expense merchant",
			amount:      300, // positive = money out
			wantMonthly: 300,
			wantAnnual:  3650, // (300/30)*365
		},
		{
			name:        "income source",
			amount:      -300, // negative = money in
			wantMonthly: 300,
			wantAnnual:  3600, // 300*12
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := domain.Transaction{
				ID:     "t1",
				Amount: tt.amount,
				Date:   daysAgo(30),
				Name:   "ACME",
			}
			got := Compute(&ref, []domain.Transaction{ref}, testNow)
			if got == nil {
				t.Fatal("Compute returned nil")
			}
			if got.Merchant.DaysSinceFirst != 30 {
				t.Errorf("DaysSinceFirst = %d, want 30", got.Merchant.DaysSinceFirst)
			}
			if got.Merchant.MonthlyAverage != tt.wantMonthly {
				t.Errorf("MonthlyAverage = %v, want %v", got.Merchant.MonthlyAverage, tt.wantMonthly)
			}
			if got.Merchant.AnnualPacing != tt.wantAnnual {
				t.Errorf("AnnualPacing = %v, want %v", got.Merchant.AnnualPacing, tt.wantAnnual)
			}
		})
	}
}

func TestCompute_MerchantPeersGroupByDisplayName(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Amount: 10, Date: daysAgo(10), Name: "SQ *COFFEE 001", MerchantName: "Coffee Shop"},
		{ID: "t2", Amount: 15, Date: daysAgo(5), Name: "SQ *COFFEE 002", MerchantName: "Coffee Shop"},
		{ID: "t3", Amount: 50, Date: daysAgo(3), Name: "GROCER"},
	}

	got := Compute(&txs[0], txs, testNow)
	if got.Merchant.Count != 2 {
		t.Fatalf("merchant Count = %d, want 2", got.Merchant.Count)
	}
	if got.Merchant.TotalAbsAmount != 25 {
		t.Errorf("merchant TotalAbsAmount = %v, want 25", got.Merchant.TotalAbsAmount)
	}
	if got.Merchant.AverageAmount != 12.5 {
		t.Errorf("merchant AverageAmount = %v, want 12.5", got.Merchant.AverageAmount)
	}
	if !got.Merchant.FirstDate.Equal(daysAgo(10)) {
		t.Errorf("merchant FirstDate = %v, want %v", got.Merchant.FirstDate, daysAgo(10))
	}
}

func TestCompute_CategoryPeersRespectSign(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Amount: 100, Date: daysAgo(20), Name: "STORE A", Categories: []string{"Shops"}},
		{ID: "t2", Amount: 40, Date: daysAgo(10), Name: "STORE B", Categories: []string{"Shops"}},
		// Same category but income sign: a refund must not join the
		// expense peer set.
		{ID: "t3", Amount: -40, Date: daysAgo(5), Name: "STORE B", Categories: []string{"Shops"}},
	}

	got := Compute(&txs[0], txs, testNow)
	if got.Category == nil {
		t.Fatal("Category stat missing")
	}
	if got.Category.Count != 2 {
		t.Errorf("category Count = %d, want 2 (income-sign peer must be excluded)", got.Category.Count)
	}
	if got.Category.TotalAbsAmount != 140 {
		t.Errorf("category TotalAbsAmount = %v, want 140", got.Category.TotalAbsAmount)
	}
}

func TestCompute_NoCategory(t *testing.T) {
	ref := domain.Transaction{ID: "t1", Amount: 10, Date: daysAgo(1), Name: "X"}
	got := Compute(&ref, []domain.Transaction{ref}, testNow)
	if got.Category != nil {
		t.Fatalf("Category = %+v, want nil for an uncategorized reference", got.Category)
	}
}

func TestCompute_ExpenseRanking(t *testing.T) {
	// Monthly averages: Big spends the most, then Mid, then Small.
	txs := []domain.Transaction{
		{ID: "t1", Amount: 30, Date: daysAgo(30), Name: "Small"},
		{ID: "t2", Amount: 900, Date: daysAgo(30), Name: "Big"},
		{ID: "t3", Amount: 300, Date: daysAgo(30), Name: "Mid"},
		{ID: "t4", Amount: -5000, Date: daysAgo(30), Name: "Employer"}, // income, never ranked
	}

	tests := []struct {
		refID    string
		wantRank int
	}{
		{"t2", 1},
		{"t3", 2},
		{"t1", 3},
	}
	for _, tt := range tests {
		ref := findTx(t, txs, tt.refID)
		got := Compute(ref, txs, testNow)
		if got.Merchant.Rank != tt.wantRank {
			t.Errorf("rank(%s) = %d, want %d", ref.Name, got.Merchant.Rank, tt.wantRank)
		}
		if got.Merchant.TotalPeers != 3 {
			t.Errorf("TotalPeers = %d, want 3 (income merchant excluded)", got.Merchant.TotalPeers)
		}
	}

	// Income references are not ranked at all.
	got := Compute(findTx(t, txs, "t4"), txs, testNow)
	if got.Merchant.Rank != 0 || got.Merchant.TotalPeers != 0 {
		t.Errorf("income rank = (%d, %d), want (0, 0)", got.Merchant.Rank, got.Merchant.TotalPeers)
	}
}

func TestCompute_RankingDeterministicAndStable(t *testing.T) {
	// Alpha and Beta tie on monthly average; Alpha appears first in the
	// set, so the stable sort must keep it ahead on every run.
	txs := []domain.Transaction{
		{ID: "t1", Amount: 100, Date: daysAgo(10), Name: "Alpha"},
		{ID: "t2", Amount: 100, Date: daysAgo(10), Name: "Beta"},
		{ID: "t3", Amount: 500, Date: daysAgo(10), Name: "Gamma"},
	}

	for i := 0; i < 20; i++ {
		a := Compute(findTx(t, txs, "t1"), txs, testNow)
		b := Compute(findTx(t, txs, "t2"), txs, testNow)
		if a.Merchant.Rank != 2 {
			t.Fatalf("run %d: rank(Alpha) = %d, want 2", i, a.Merchant.Rank)
		}
		if b.Merchant.Rank != 3 {
			t.Fatalf("run %d: rank(Beta) = %d, want 3", i, b.Merchant.Rank)
		}
		if a.Merchant.TotalPeers != 3 || b.Merchant.TotalPeers != 3 {
			t.Fatalf("run %d: TotalPeers changed across runs", i)
		}
	}
}

// Summing TotalAbsAmount over each distinct expense merchant must equal the
// sum of abs(amount) over all expense transactions.
func TestCompute_TotalConservation(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Amount: 12.5, Date: daysAgo(40), Name: "A"},
		{ID: "t2", Amount: 7.5, Date: daysAgo(30), Name: "A"},
		{ID: "t3", Amount: 100, Date: daysAgo(20), Name: "B"},
		{ID: "t4", Amount: 3.25, Date: daysAgo(10), Name: "C"},
		{ID: "t5", Amount: -2000, Date: daysAgo(15), Name: "Payroll"},
	}

	var wantTotal float64
	for _, tx := range txs {
		if !tx.IsIncome() {
			wantTotal += tx.AbsAmount()
		}
	}

	seen := make(map[string]bool)
	var gotTotal float64
	for i := range txs {
		if txs[i].IsIncome() || seen[txs[i].DisplayName()] {
			continue
		}
		seen[txs[i].DisplayName()] = true
		gotTotal += Compute(&txs[i], txs, testNow).Merchant.TotalAbsAmount
	}

	if math.Abs(gotTotal-wantTotal) > 1e-9 {
		t.Fatalf("sum of merchant totals = %v, want %v", gotTotal, wantTotal)
	}
}

func TestCompute_SignConservation(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Amount: 10, Date: daysAgo(5), Name: "A"},
		{ID: "t2", Amount: -10, Date: daysAgo(5), Name: "B"},
		{ID: "t3", Amount: 0, Date: daysAgo(5), Name: "C"},
	}
	for _, tx := range txs {
		if tx.IsIncome() != (tx.Amount < 0) {
			t.Errorf("IsIncome(%v) = %v, want %v", tx.Amount, tx.IsIncome(), tx.Amount < 0)
		}
	}
}

func TestCompute_PercentOfIncome(t *testing.T) {
	// No income transactions: the default annual income keeps the
	// percentage finite.
	ref := domain.Transaction{ID: "t1", Amount: 300, Date: daysAgo(30), Name: "ACME"}
	got := Compute(&ref, []domain.Transaction{ref}, testNow)

	if got.Income.AnnualIncome != domain.DefaultAnnualIncome {
		t.Fatalf("AnnualIncome = %v, want default %v", got.Income.AnnualIncome, domain.DefaultAnnualIncome)
	}
	want := 3650.0 / domain.DefaultAnnualIncome * 100
	if math.Abs(got.PercentOfIncome-want) > 1e-9 {
		t.Errorf("PercentOfIncome = %v, want %v", got.PercentOfIncome, want)
	}
	if math.IsNaN(got.PercentOfIncome) || math.IsInf(got.PercentOfIncome, 0) {
		t.Errorf("PercentOfIncome is not finite: %v", got.PercentOfIncome)
	}
}

func TestDaysSince_FloorsAtOne(t *testing.T) {
	if got := daysSince(testNow, testNow); got != 1 {
		t.Errorf("daysSince(now, now) = %d, want 1", got)
	}
	if got := daysSince(testNow.Add(-time.Hour), testNow); got != 1 {
		t.Errorf("daysSince(1h ago) = %d, want 1", got)
	}
	if got := daysSince(daysAgo(30), testNow); got != 30 {
		t.Errorf("daysSince(30d ago) = %d, want 30", got)
	}
}

func findTx(t *testing.T, txs []domain.Transaction, id string) *domain.Transaction {
	t.Helper()
	for i := range txs {
		if txs[i].ID == id {
			return &txs[i]
		}
	}
	t.Fatalf("transaction %s not in fixture", id)
	return nil
}

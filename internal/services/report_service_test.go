package services

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/core"
)

// seedMonth writes a month record directly so report math can be tested
// against known totals.
func seedMonth(t *testing.T, svc *ReportService, period string, income, assets, liabilities int64) {
	t.Helper()
	err := svc.store.Update(context.Background(), func(doc *core.Document) error {
		rec := doc.EnsureMonth(period, svc.now())
		add := func(list *[]core.Entry, cents int64, desc string) {
			if cents == 0 {
				return
			}
			*list = append(*list, core.Entry{
				ID: core.NewEntryID(svc.now()), Description: desc,
				Amount: core.Money{Cents: cents}, CreatedAt: svc.now(),
			})
		}
		add(&rec.Income, income, "income")
		add(&rec.Assets, assets, "assets")
		add(&rec.Liabilities, liabilities, "liabilities")
		return nil
	})
	if err != nil {
		t.Fatalf("seed month %s: %v", period, err)
	}
}

func TestGenerateSnapshot(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store)
	svc.now = fixedClock(date(2024, 3, 31))
	ctx := context.Background()

	seedMonth(t, svc, "2024-03", 300000000, 500000000, 200000000)

	snap, err := svc.Generate(ctx, "2024-03")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	sum := snap.Summary
	if sum.TotalIncome.Cents != 300000000 {
		t.Errorf("TotalIncome = %d", sum.TotalIncome.Cents)
	}
	if sum.NetWorth.Cents != 300000000 {
		t.Errorf("NetWorth = %d, want assets minus liabilities", sum.NetWorth.Cents)
	}
	if sum.Liquidity.Cents != 100000000 {
		t.Errorf("Liquidity = %d, want income minus liabilities", sum.Liquidity.Cents)
	}
	if sum.DebtRatio != 40 {
		t.Errorf("DebtRatio = %v, want 40", sum.DebtRatio)
	}

	if snap.Analysis.Patrimony != core.PatrimonyPositive {
		t.Errorf("Patrimony = %q", snap.Analysis.Patrimony)
	}
	if snap.Analysis.Liquidity != core.LiquidityGood {
		t.Errorf("Liquidity = %q", snap.Analysis.Liquidity)
	}
	if snap.Analysis.Indebtedness != core.DebtModerate {
		t.Errorf("Indebtedness = %q, want moderate at 40%%", snap.Analysis.Indebtedness)
	}

	if len(snap.Details.Income) != 1 || len(snap.Details.Assets) != 1 || len(snap.Details.Liabilities) != 1 {
		t.Errorf("unexpectedly shaped details: %+v", snap.Details)
	}

	// Stored and retrievable
	got, err := svc.Get(ctx, "2024-03")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Summary.NetWorth.Cents != snap.Summary.NetWorth.Cents {
		t.Error("stored snapshot differs from returned one")
	}
}

func TestGenerateAnalysisLabels(t *testing.T) {
	tests := []struct {
		name                           string
		income, assets, liabilities    int64
		patrimony, liquidity, indebted string
	}{
		{
			name:   "healthy month",
			income: 100, assets: 1000, liabilities: 100,
			patrimony: core.PatrimonyPositive, liquidity: core.LiquidityGood, indebted: core.DebtLow,
		},
		{
			name:   "underwater and tight",
			income: 100, assets: 100, liabilities: 500,
			patrimony: core.PatrimonyNegative, liquidity: core.LiquidityTight, indebted: core.DebtHigh,
		},
		{
			name:   "no assets yields zero ratio",
			income: 100, assets: 0, liabilities: 300,
			patrimony: core.PatrimonyNegative, liquidity: core.LiquidityTight, indebted: core.DebtLow,
		},
		{
			name:   "boundary sixty is high",
			income: 1000, assets: 1000, liabilities: 600,
			patrimony: core.PatrimonyPositive, liquidity: core.LiquidityGood, indebted: core.DebtHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			svc := NewReportService(store)
			svc.now = fixedClock(date(2024, 3, 31))

			seedMonth(t, svc, "2024-03", tt.income, tt.assets, tt.liabilities)
			snap, err := svc.Generate(context.Background(), "2024-03")
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}
			if snap.Analysis.Patrimony != tt.patrimony {
				t.Errorf("Patrimony = %q, want %q", snap.Analysis.Patrimony, tt.patrimony)
			}
			if snap.Analysis.Liquidity != tt.liquidity {
				t.Errorf("Liquidity = %q, want %q", snap.Analysis.Liquidity, tt.liquidity)
			}
			if snap.Analysis.Indebtedness != tt.indebted {
				t.Errorf("Indebtedness = %q, want %q", snap.Analysis.Indebtedness, tt.indebted)
			}
		})
	}
}

func TestGenerateMissingMonth(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store)
	_, err := svc.Generate(context.Background(), "2030-01")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Generate() = %v, want ErrNotFound", err)
	}
}

func TestCompare(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store)
	ctx := context.Background()

	svc.now = fixedClock(date(2024, 2, 28))
	seedMonth(t, svc, "2024-02", 200000000, 400000000, 100000000)
	if _, err := svc.Generate(ctx, "2024-02"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	svc.now = fixedClock(date(2024, 3, 31))
	seedMonth(t, svc, "2024-03", 300000000, 500000000, 200000000)
	if _, err := svc.Generate(ctx, "2024-03"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	cmp, err := svc.Compare(ctx, "2024-02", "2024-03")
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if cmp.Deltas.Income.Cents != 100000000 {
		t.Errorf("delta income = %d", cmp.Deltas.Income.Cents)
	}
	if cmp.Percents.Income != 50 {
		t.Errorf("income percent = %v, want 50", cmp.Percents.Income)
	}
	if cmp.Deltas.Liabilities.Cents != 100000000 || cmp.Percents.Liabilities != 100 {
		t.Errorf("liabilities delta = %d pct = %v", cmp.Deltas.Liabilities.Cents, cmp.Percents.Liabilities)
	}
}

func TestCompareZeroBaseline(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store)
	ctx := context.Background()

	svc.now = fixedClock(date(2024, 2, 28))
	seedMonth(t, svc, "2024-02", 0, 100, 100) // net worth 0
	if _, err := svc.Generate(ctx, "2024-02"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	svc.now = fixedClock(date(2024, 3, 31))
	seedMonth(t, svc, "2024-03", 500, 200, 100)
	if _, err := svc.Generate(ctx, "2024-03"); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	cmp, err := svc.Compare(ctx, "2024-02", "2024-03")
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if cmp.Percents.Income != 0 {
		t.Errorf("zero baseline income percent = %v, want 0", cmp.Percents.Income)
	}
	if cmp.Percents.NetWorth != 0 {
		t.Errorf("zero baseline net worth percent = %v, want 0", cmp.Percents.NetWorth)
	}
	if cmp.Deltas.Income.Cents != 500 {
		t.Errorf("delta still reported: %d, want 500", cmp.Deltas.Income.Cents)
	}
}

func TestCompareMissingReport(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store)
	_, err := svc.Compare(context.Background(), "2024-01", "2024-02")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Compare() = %v, want ErrNotFound", err)
	}
}

func TestTrends(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store)
	ctx := context.Background()

	months := []struct {
		period string
		day    int
		income int64
	}{
		{"2024-01", 31, 100},
		{"2024-02", 59, 200}, // generated later
		{"2024-03", 90, 300},
	}
	for _, m := range months {
		svc.now = fixedClock(date(2024, 1, 1).AddDate(0, 0, m.day))
		seedMonth(t, svc, m.period, m.income, 0, 0)
		if _, err := svc.Generate(ctx, m.period); err != nil {
			t.Fatalf("Generate(%s) error: %v", m.period, err)
		}
	}

	trends, err := svc.Trends(ctx, 2)
	if err != nil {
		t.Fatalf("Trends() error: %v", err)
	}
	if len(trends.Periods) != 2 {
		t.Fatalf("expected 2 periods, got %v", trends.Periods)
	}
	// Newest generation first
	if trends.Periods[0] != "2024-03" || trends.Periods[1] != "2024-02" {
		t.Errorf("Periods = %v, want [2024-03 2024-02]", trends.Periods)
	}
	if trends.Income[0].Cents != 300 || trends.Income[1].Cents != 200 {
		t.Errorf("Income series = %v", trends.Income)
	}
	if trends.Averages.Income != 250 {
		t.Errorf("average income = %v, want 250", trends.Averages.Income)
	}
}

func TestTrendsEmpty(t *testing.T) {
	store := newTestStore(t)
	svc := NewReportService(store)
	_, err := svc.Trends(context.Background(), 6)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Trends() = %v, want ErrNotFound", err)
	}
}

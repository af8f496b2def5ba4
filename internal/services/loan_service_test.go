package services

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/core"
)

func seedCashAsset(t *testing.T, ledger *LedgerService, cents int64) core.Entry {
	t.Helper()
	liquid := true
	entry, err := ledger.AddAsset(context.Background(), EntryInput{
		Description: "Cuenta de ahorros",
		Amount:      core.Money{Cents: cents},
		Liquid:      &liquid,
	})
	if err != nil {
		t.Fatalf("AddAsset() error: %v", err)
	}
	return entry
}

func TestDisburseDerivesProfitAndDebitsCash(t *testing.T) {
	store := newTestStore(t)
	now := date(2024, 3, 10)
	ledger := NewLedgerService(store)
	ledger.now = fixedClock(now)
	svc := NewLoanService(store)
	svc.now = fixedClock(now)
	ctx := context.Background()

	seedCashAsset(t, ledger, 50000000)

	loan, err := svc.Disburse(ctx, DisburseInput{
		BorrowerName: "Carlos",
		Principal:    core.Money{Cents: 10000000},
		AmountDue:    core.Money{Cents: 12000000},
		DueDate:      date(2024, 5, 1),
		ReminderDays: 3,
	})
	if err != nil {
		t.Fatalf("Disburse() error: %v", err)
	}

	if loan.Profit.Cents != 2000000 {
		t.Errorf("Profit = %d, want 2000000", loan.Profit.Cents)
	}
	if loan.ProfitPercent != 20 {
		t.Errorf("ProfitPercent = %v, want 20", loan.ProfitPercent)
	}
	if !loan.LoanDate.Equal(now) {
		t.Errorf("LoanDate = %v, want defaulted to now", loan.LoanDate)
	}
	if !loan.Reminder.Active || loan.Reminder.DaysBefore != 3 {
		t.Errorf("Reminder = %+v, want active 3 days", loan.Reminder)
	}
	if got := loan.Status(now); got != core.LoanActive {
		t.Errorf("Status = %v, want active", got)
	}

	rec, err := ledger.Month(ctx, "2024-03")
	if err != nil {
		t.Fatalf("Month() error: %v", err)
	}
	if len(rec.Assets) != 1 {
		t.Fatalf("expected single cash asset, got %+v", rec.Assets)
	}
	if rec.Assets[0].Amount.Cents != 40000000 {
		t.Errorf("cash after disburse = %d, want 40000000", rec.Assets[0].Amount.Cents)
	}
}

func TestDisburseValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewLoanService(store)
	svc.now = fixedClock(date(2024, 3, 10))
	ctx := context.Background()

	tests := []struct {
		name string
		in   DisburseInput
	}{
		{
			name: "empty borrower",
			in:   DisburseInput{Principal: core.Money{Cents: 100}, AmountDue: core.Money{Cents: 100}},
		},
		{
			name: "zero principal",
			in:   DisburseInput{BorrowerName: "x", AmountDue: core.Money{Cents: 100}},
		},
		{
			name: "due below principal",
			in:   DisburseInput{BorrowerName: "x", Principal: core.Money{Cents: 200}, AmountDue: core.Money{Cents: 100}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Disburse(ctx, tt.in); !errors.Is(err, core.ErrValidation) {
				t.Errorf("Disburse() = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDisburseInsufficientCashAddsNegativeEntry(t *testing.T) {
	store := newTestStore(t)
	now := date(2024, 3, 10)
	ledger := NewLedgerService(store)
	ledger.now = fixedClock(now)
	svc := NewLoanService(store)
	svc.now = fixedClock(now)
	ctx := context.Background()

	seedCashAsset(t, ledger, 5000)

	if _, err := svc.Disburse(ctx, DisburseInput{
		BorrowerName: "Ana",
		Principal:    core.Money{Cents: 10000000},
		AmountDue:    core.Money{Cents: 10000000},
		DueDate:      date(2024, 5, 1),
	}); err != nil {
		t.Fatalf("Disburse() error: %v", err)
	}

	rec, err := ledger.Month(ctx, "2024-03")
	if err != nil {
		t.Fatalf("Month() error: %v", err)
	}
	if len(rec.Assets) != 2 {
		t.Fatalf("expected fallback asset entry, got %+v", rec.Assets)
	}
	// The undersized cash asset stays untouched.
	if rec.Assets[0].Amount.Cents != 5000 {
		t.Errorf("existing asset = %d, want 5000", rec.Assets[0].Amount.Cents)
	}
	fallback := rec.Assets[1]
	if fallback.Amount.Cents != -10000000 || !fallback.Liquid {
		t.Errorf("fallback = %+v, want liquid -10000000", fallback)
	}
	if fallback.Description != "Money lent to Ana" {
		t.Errorf("fallback description = %q", fallback.Description)
	}
}

func TestRecordPaymentLifecycle(t *testing.T) {
	store := newTestStore(t)
	now := date(2024, 3, 10)
	ledger := NewLedgerService(store)
	ledger.now = fixedClock(now)
	svc := NewLoanService(store)
	svc.now = fixedClock(now)
	ctx := context.Background()

	seedCashAsset(t, ledger, 50000000)
	loan, err := svc.Disburse(ctx, DisburseInput{
		BorrowerName: "Carlos",
		Principal:    core.Money{Cents: 10000000},
		AmountDue:    core.Money{Cents: 12000000},
		DueDate:      date(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("Disburse() error: %v", err)
	}

	// Partial payment
	updated, err := svc.RecordPayment(ctx, loan.ID, PaymentInput{Amount: core.Money{Cents: 7000000}})
	if err != nil {
		t.Fatalf("RecordPayment() error: %v", err)
	}
	if updated.AmountPaid.Cents != 7000000 {
		t.Errorf("AmountPaid = %d, want 7000000", updated.AmountPaid.Cents)
	}
	if got := updated.Status(now); got != core.LoanPartial {
		t.Errorf("Status = %v, want partial", got)
	}
	if len(updated.Payments) != 1 || updated.Payments[0].ID == "" {
		t.Fatalf("expected one payment with id, got %+v", updated.Payments)
	}

	// Overshoot rejected, state untouched
	if _, err := svc.RecordPayment(ctx, loan.ID, PaymentInput{Amount: core.Money{Cents: 6000000}}); !errors.Is(err, core.ErrExceedsDue) {
		t.Fatalf("overshoot = %v, want ErrExceedsDue", err)
	}
	after, err := svc.Get(ctx, loan.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if after.AmountPaid.Cents != 7000000 || len(after.Payments) != 1 {
		t.Fatalf("rejected payment mutated the loan: %+v", after)
	}

	// Exact completion books the profit as income
	updated, err = svc.RecordPayment(ctx, loan.ID, PaymentInput{Amount: core.Money{Cents: 5000000}})
	if err != nil {
		t.Fatalf("RecordPayment() error: %v", err)
	}
	if got := updated.Status(now); got != core.LoanPaid {
		t.Errorf("Status = %v, want paid", got)
	}
	if updated.PaidAt == nil {
		t.Error("expected PaidAt set on completion")
	}

	rec, err := ledger.Month(ctx, "2024-03")
	if err != nil {
		t.Fatalf("Month() error: %v", err)
	}
	// 50000000 - 10000000 + 7000000 + 5000000
	if rec.Assets[0].Amount.Cents != 52000000 {
		t.Errorf("cash = %d, want 52000000", rec.Assets[0].Amount.Cents)
	}
	if len(rec.Income) != 1 {
		t.Fatalf("expected profit income entry, got %+v", rec.Income)
	}
	if rec.Income[0].Amount.Cents != 2000000 {
		t.Errorf("profit income = %d, want 2000000", rec.Income[0].Amount.Cents)
	}
	if rec.Income[0].Description != "Loan profit from Carlos" {
		t.Errorf("profit description = %q", rec.Income[0].Description)
	}
}

func TestRecordPaymentErrors(t *testing.T) {
	store := newTestStore(t)
	svc := NewLoanService(store)
	svc.now = fixedClock(date(2024, 3, 10))
	ctx := context.Background()

	if _, err := svc.RecordPayment(ctx, "missing", PaymentInput{Amount: core.Money{Cents: 100}}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing loan = %v, want ErrNotFound", err)
	}
	if _, err := svc.RecordPayment(ctx, "any", PaymentInput{Amount: core.Money{Cents: 0}}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("zero amount = %v, want ErrValidation", err)
	}
}

func TestDeleteRecoversOutstanding(t *testing.T) {
	store := newTestStore(t)
	now := date(2024, 3, 10)
	ledger := NewLedgerService(store)
	ledger.now = fixedClock(now)
	svc := NewLoanService(store)
	svc.now = fixedClock(now)
	ctx := context.Background()

	seedCashAsset(t, ledger, 50000000)
	loan, err := svc.Disburse(ctx, DisburseInput{
		BorrowerName: "Carlos",
		Principal:    core.Money{Cents: 10000000},
		AmountDue:    core.Money{Cents: 12000000},
		DueDate:      date(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("Disburse() error: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, loan.ID, PaymentInput{Amount: core.Money{Cents: 7000000}}); err != nil {
		t.Fatalf("RecordPayment() error: %v", err)
	}

	if err := svc.Delete(ctx, loan.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := svc.Get(ctx, loan.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get() after delete = %v, want ErrNotFound", err)
	}

	rec, err := ledger.Month(ctx, "2024-03")
	if err != nil {
		t.Fatalf("Month() error: %v", err)
	}
	// 50000000 - 10000000 + 7000000 + 5000000 outstanding recovery
	if rec.Assets[0].Amount.Cents != 52000000 {
		t.Errorf("cash after delete = %d, want 52000000", rec.Assets[0].Amount.Cents)
	}
}

func TestLoanStatistics(t *testing.T) {
	store := newTestStore(t)
	now := date(2024, 3, 10)
	ledger := NewLedgerService(store)
	ledger.now = fixedClock(now)
	svc := NewLoanService(store)
	svc.now = fixedClock(now)
	ctx := context.Background()

	seedCashAsset(t, ledger, 100000000)

	paid, err := svc.Disburse(ctx, DisburseInput{
		BorrowerName: "Carlos",
		Principal:    core.Money{Cents: 10000000},
		AmountDue:    core.Money{Cents: 12000000},
		DueDate:      date(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("Disburse() error: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, paid.ID, PaymentInput{Amount: core.Money{Cents: 12000000}}); err != nil {
		t.Fatalf("RecordPayment() error: %v", err)
	}

	if _, err := svc.Disburse(ctx, DisburseInput{
		BorrowerName: "Ana",
		Principal:    core.Money{Cents: 5000000},
		AmountDue:    core.Money{Cents: 5000000},
		DueDate:      date(2024, 2, 1), // already past
	}); err != nil {
		t.Fatalf("Disburse() error: %v", err)
	}

	stats := svc.Statistics(ctx)
	if stats.Total != 2 {
		t.Fatalf("Total = %d, want 2", stats.Total)
	}
	if stats.ByStatus[core.LoanPaid] != 1 || stats.ByStatus[core.LoanOverdue] != 1 {
		t.Errorf("ByStatus = %+v", stats.ByStatus)
	}
	if stats.TotalPrincipal.Cents != 15000000 {
		t.Errorf("TotalPrincipal = %d", stats.TotalPrincipal.Cents)
	}
	if stats.TotalCollected.Cents != 12000000 {
		t.Errorf("TotalCollected = %d", stats.TotalCollected.Cents)
	}
	if stats.TotalRealizedProfit.Cents != 2000000 {
		t.Errorf("TotalRealizedProfit = %d", stats.TotalRealizedProfit.Cents)
	}
	if stats.TotalOutstanding.Cents != 5000000 {
		t.Errorf("TotalOutstanding = %d", stats.TotalOutstanding.Cents)
	}
}

package core

import (
	"testing"
	"time"
)

func TestLoanValidate(t *testing.T) {
	good := Loan{
		BorrowerName: "Carlos",
		Principal:    Money{Cents: 100000},
		AmountDue:    Money{Cents: 120000},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Loan{
		{BorrowerName: "", Principal: Money{Cents: 1}, AmountDue: Money{Cents: 1}},
		{BorrowerName: "  ", Principal: Money{Cents: 1}, AmountDue: Money{Cents: 1}},
		{BorrowerName: "c", Principal: Money{Cents: 0}, AmountDue: Money{Cents: 1}},
		{BorrowerName: "c", Principal: Money{Cents: 1}, AmountDue: Money{Cents: 0}},
		{BorrowerName: "c", Principal: Money{Cents: 100}, AmountDue: Money{Cents: 99}}, // lending at a loss
	}
	for i, l := range bads {
		if err := l.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestLoanStatus(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	future := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		loan Loan
		want LoanStatus
	}{
		{
			name: "no payments before due date",
			loan: Loan{AmountDue: Money{Cents: 1000}, DueDate: future},
			want: LoanActive,
		},
		{
			name: "partial payment before due date",
			loan: Loan{AmountDue: Money{Cents: 1000}, AmountPaid: Money{Cents: 400}, DueDate: future},
			want: LoanPartial,
		},
		{
			name: "fully paid",
			loan: Loan{AmountDue: Money{Cents: 1000}, AmountPaid: Money{Cents: 1000}, DueDate: future},
			want: LoanPaid,
		},
		{
			name: "overpaid still paid",
			loan: Loan{AmountDue: Money{Cents: 1000}, AmountPaid: Money{Cents: 1200}, DueDate: past},
			want: LoanPaid,
		},
		{
			name: "past due date",
			loan: Loan{AmountDue: Money{Cents: 1000}, DueDate: past},
			want: LoanOverdue,
		},
		{
			name: "paid wins over overdue",
			loan: Loan{AmountDue: Money{Cents: 1000}, AmountPaid: Money{Cents: 1000}, DueDate: past},
			want: LoanPaid,
		},
		{
			name: "partial past due date is overdue",
			loan: Loan{AmountDue: Money{Cents: 1000}, AmountPaid: Money{Cents: 400}, DueDate: past},
			want: LoanOverdue,
		},
		{
			name: "due today is not overdue",
			loan: Loan{AmountDue: Money{Cents: 1000}, DueDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
			want: LoanActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loan.Status(now); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoanOutstanding(t *testing.T) {
	l := Loan{AmountDue: Money{Cents: 120000}, AmountPaid: Money{Cents: 70000}}
	if got := l.Outstanding(); got.Cents != 50000 {
		t.Fatalf("expected 50000, got %d", got.Cents)
	}
}

func TestLoanDueInfoReminderWindow(t *testing.T) {
	asOf := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)

	withReminder := Loan{AmountDue: Money{Cents: 1000}, DueDate: due, Reminder: Reminder{DaysBefore: 3, Active: true}}
	info := withReminder.DueInfo(asOf)
	if !info.Upcoming {
		t.Fatalf("expected upcoming inside reminder window")
	}

	narrow := Loan{AmountDue: Money{Cents: 1000}, DueDate: due, Reminder: Reminder{DaysBefore: 2, Active: true}}
	if narrow.DueInfo(asOf).Upcoming {
		t.Fatalf("expected not upcoming outside narrow window")
	}

	inactive := Loan{AmountDue: Money{Cents: 1000}, DueDate: due, Reminder: Reminder{DaysBefore: 3, Active: false}}
	if inactive.DueInfo(asOf).Upcoming {
		t.Fatalf("expected not upcoming with inactive reminder")
	}
}

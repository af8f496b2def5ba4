package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// LoanService tracks money lent to third parties and its side effects
// on the asset ledger: disbursement debits a cash-like asset, payments
// credit it back, and the profit is booked as income on completion.
type LoanService struct {
	store *storage.Store
	now   func() time.Time
}

func NewLoanService(store *storage.Store) *LoanService {
	return &LoanService{store: store, now: time.Now}
}

// DisburseInput carries a new loan request.
type DisburseInput struct {
	BorrowerName string
	Principal    core.Money
	AmountDue    core.Money
	Category     string
	Memo         string
	LoanDate     time.Time
	DueDate      time.Time
	ReminderDays int
}

// PaymentInput carries one repayment.
type PaymentInput struct {
	Amount core.Money
	Date   time.Time
	Memo   string
}

// Disburse validates the request, derives profit, debits a cash-like
// asset by the principal and persists the loan. Lending at a loss is
// rejected by construction: the amount due is the lender's expected
// return and must cover the principal.
func (s *LoanService) Disburse(ctx context.Context, in DisburseInput) (*core.Loan, error) {
	now := s.now()
	loan := core.Loan{
		ID:           core.NewEntryID(now),
		BorrowerName: strings.TrimSpace(in.BorrowerName),
		Principal:    in.Principal,
		AmountDue:    in.AmountDue,
		Category:     strings.TrimSpace(in.Category),
		Memo:         strings.TrimSpace(in.Memo),
		LoanDate:     in.LoanDate,
		DueDate:      in.DueDate,
		Payments:     []core.Payment{},
		Reminder:     core.Reminder{DaysBefore: in.ReminderDays, Active: in.ReminderDays > 0},
		CreatedAt:    now,
	}
	if loan.LoanDate.IsZero() {
		loan.LoanDate = now
	}
	if err := loan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	loan.Profit = core.Money{Cents: loan.AmountDue.Cents - loan.Principal.Cents}
	loan.ProfitPercent = roundPercent(float64(loan.Profit.Cents) / float64(loan.Principal.Cents) * 100)

	err := s.store.Update(ctx, func(doc *core.Document) error {
		rec := doc.EnsureMonth(core.Period(now), now)
		debitCash(rec, loan.Principal,
			fmt.Sprintf("Money lent to %s", loan.BorrowerName), now)
		doc.Loans[loan.ID] = &loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Loan disbursed",
		"id", loan.ID,
		"borrower", loan.BorrowerName,
		"principal_cents", loan.Principal.Cents,
		"due_cents", loan.AmountDue.Cents,
		"profit_cents", loan.Profit.Cents)
	return &loan, nil
}

// RecordPayment appends a payment, credits a cash-like asset and, on
// the payment that completes full repayment, books the loan's profit as
// income. A payment overshooting the amount due is rejected with the
// document left untouched.
func (s *LoanService) RecordPayment(ctx context.Context, loanID string, in PaymentInput) (*core.Loan, error) {
	if in.Amount.Cents <= 0 {
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, core.ErrInvalidAmount)
	}
	now := s.now()
	if in.Date.IsZero() {
		in.Date = now
	}

	var updated core.Loan
	err := s.store.Update(ctx, func(doc *core.Document) error {
		loan, ok := doc.Loans[loanID]
		if !ok {
			return fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound)
		}
		if loan.AmountPaid.Cents+in.Amount.Cents > loan.AmountDue.Cents {
			return fmt.Errorf("%w: paid %d + payment %d exceeds due %d",
				core.ErrExceedsDue, loan.AmountPaid.Cents, in.Amount.Cents, loan.AmountDue.Cents)
		}

		loan.Payments = append(loan.Payments, core.Payment{
			ID:         uuid.NewString(),
			Date:       in.Date,
			Amount:     in.Amount,
			Memo:       strings.TrimSpace(in.Memo),
			RecordedAt: now,
		})
		loan.AmountPaid.Cents += in.Amount.Cents
		mod := now
		loan.ModifiedAt = &mod

		rec := doc.EnsureMonth(core.Period(now), now)
		creditCash(rec, in.Amount,
			fmt.Sprintf("Loan repayment from %s", loan.BorrowerName), now)

		if loan.AmountPaid.Cents >= loan.AmountDue.Cents {
			paid := now
			loan.PaidAt = &paid
			if loan.Profit.Cents > 0 {
				rec.Income = append(rec.Income, core.Entry{
					ID:          core.NewEntryID(now),
					Description: fmt.Sprintf("Loan profit from %s", loan.BorrowerName),
					Amount:      loan.Profit,
					CreatedAt:   now,
				})
			}
		}
		updated = *loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Loan payment recorded",
		"id", loanID,
		"amount_cents", in.Amount.Cents,
		"paid_cents", updated.AmountPaid.Cents,
		"status", string(updated.Status(now)))
	return &updated, nil
}

// Delete removes the loan. A loan not yet fully repaid has its
// uncollected remainder returned to a cash-like asset first, treating
// the deletion as collection that happened off the books.
func (s *LoanService) Delete(ctx context.Context, loanID string) error {
	now := s.now()
	err := s.store.Update(ctx, func(doc *core.Document) error {
		loan, ok := doc.Loans[loanID]
		if !ok {
			return fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound)
		}
		if remainder := loan.Outstanding(); remainder.Cents > 0 {
			rec := doc.EnsureMonth(core.Period(now), now)
			creditCash(rec, remainder,
				fmt.Sprintf("Loan write-off recovery from %s", loan.BorrowerName), now)
		}
		delete(doc.Loans, loanID)
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Loan deleted", "id", loanID)
	return nil
}

// Get returns a single loan.
func (s *LoanService) Get(ctx context.Context, loanID string) (*core.Loan, error) {
	doc := s.store.Load(ctx)
	loan, ok := doc.Loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound)
	}
	return loan, nil
}

// List returns all loans sorted by creation time.
func (s *LoanService) List(ctx context.Context) []core.Loan {
	doc := s.store.Load(ctx)
	return sortedLoans(doc)
}

// WithDueInfo decorates every loan with its status and the reminder
// window arithmetic.
func (s *LoanService) WithDueInfo(ctx context.Context, asOf time.Time) []core.LoanDueInfo {
	doc := s.store.Load(ctx)

	var infos []core.LoanDueInfo
	for _, loan := range sortedLoans(doc) {
		infos = append(infos, loan.DueInfo(asOf))
	}
	return infos
}

// Statistics aggregates over all loans. Realized profit counts paid
// loans only; outstanding sums the uncollected remainder of the rest.
func (s *LoanService) Statistics(ctx context.Context) *core.LoanStatistics {
	doc := s.store.Load(ctx)
	now := s.now()

	stats := &core.LoanStatistics{ByStatus: map[core.LoanStatus]int{}}
	for _, loan := range doc.Loans {
		status := loan.Status(now)
		stats.Total++
		stats.ByStatus[status]++
		stats.TotalPrincipal.Cents += loan.Principal.Cents
		stats.TotalDue.Cents += loan.AmountDue.Cents
		stats.TotalCollected.Cents += loan.AmountPaid.Cents
		stats.TotalExpectedProfit.Cents += loan.Profit.Cents
		if status == core.LoanPaid {
			stats.TotalRealizedProfit.Cents += loan.Profit.Cents
		} else {
			stats.TotalOutstanding.Cents += loan.Outstanding().Cents
		}
	}
	return stats
}

// debitCash reduces the first cash-like asset by the amount. When that
// asset cannot cover it, or none exists, the loan is still recorded: a
// negative asset entry stands in for the money that left, so recording
// always wins over strict balance enforcement.
func debitCash(rec *core.MonthRecord, amount core.Money, fallbackDesc string, now time.Time) {
	for i := range rec.Assets {
		a := &rec.Assets[i]
		if !a.Liquid {
			continue
		}
		if a.Amount.Cents >= amount.Cents {
			a.Amount.Cents -= amount.Cents
			mod := now
			a.ModifiedAt = &mod
			return
		}
		break
	}
	rec.Assets = append(rec.Assets, core.Entry{
		ID:          core.NewEntryID(now),
		Description: fallbackDesc,
		Amount:      core.Money{Cents: -amount.Cents},
		Liquid:      true,
		CreatedAt:   now,
	})
}

// creditCash increases the first cash-like asset, creating a new one
// when none exists.
func creditCash(rec *core.MonthRecord, amount core.Money, fallbackDesc string, now time.Time) {
	for i := range rec.Assets {
		a := &rec.Assets[i]
		if a.Liquid {
			a.Amount.Cents += amount.Cents
			mod := now
			a.ModifiedAt = &mod
			return
		}
	}
	rec.Assets = append(rec.Assets, core.Entry{
		ID:          core.NewEntryID(now),
		Description: fallbackDesc,
		Amount:      amount,
		Liquid:      true,
		CreatedAt:   now,
	})
}

func sortedLoans(doc *core.Document) []core.Loan {
	loans := make([]core.Loan, 0, len(doc.Loans))
	for _, l := range doc.Loans {
		loans = append(loans, *l)
	}
	sort.Slice(loans, func(i, j int) bool {
		if loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].ID < loans[j].ID
		}
		return loans[i].CreatedAt.Before(loans[j].CreatedAt)
	})
	return loans
}

func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}

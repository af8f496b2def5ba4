package core

import (
	"errors"
	"strings"
	"time"
)

const (
	LoanActive  LoanStatus = "active"
	LoanPartial LoanStatus = "partial"
	LoanPaid    LoanStatus = "paid"
	LoanOverdue LoanStatus = "overdue"
)

type (
	LoanStatus string

	// Loan tracks money lent to a third party. Profit and ProfitPercent
	// are derived from principal and amount due at disbursement; the
	// status is never stored, see Status.
	Loan struct {
		ID            string     `json:"id"`
		BorrowerName  string     `json:"borrowerName"`
		Principal     Money      `json:"principal"`
		AmountDue     Money      `json:"amountDue"`
		Profit        Money      `json:"profit"`
		ProfitPercent float64    `json:"profitPercent"`
		Category      string     `json:"category,omitempty"`
		LoanDate      time.Time  `json:"loanDate"`
		DueDate       time.Time  `json:"dueDate"`
		Memo          string     `json:"memo,omitempty"`
		AmountPaid    Money      `json:"amountPaid"`
		Payments      []Payment  `json:"paymentHistory"`
		Reminder      Reminder   `json:"reminder"`
		CreatedAt     time.Time  `json:"createdAt"`
		ModifiedAt    *time.Time `json:"modifiedAt,omitempty"`
		PaidAt        *time.Time `json:"paidAt,omitempty"`
	}

	// Payment is an immutable, append-only sub-record of a loan.
	Payment struct {
		ID         string    `json:"id"`
		Date       time.Time `json:"date"`
		Amount     Money     `json:"amount"`
		Memo       string    `json:"memo,omitempty"`
		RecordedAt time.Time `json:"recordedAt"`
	}

	Reminder struct {
		DaysBefore int  `json:"daysBefore"`
		Active     bool `json:"active"`
	}

	// LoanDueInfo decorates a loan with due-date arithmetic; the upcoming
	// window is the loan's own reminder setting.
	LoanDueInfo struct {
		Loan
		Status       LoanStatus `json:"status"`
		DaysUntilDue int        `json:"daysUntilDue"`
		DueToday     bool       `json:"isDueToday"`
		Upcoming     bool       `json:"isUpcoming"`
		Overdue      bool       `json:"isOverdue"`
	}

	// LoanStatistics is a pure aggregation over all loans.
	LoanStatistics struct {
		Total               int                `json:"total"`
		ByStatus            map[LoanStatus]int `json:"byStatus"`
		TotalPrincipal      Money              `json:"totalPrincipal"`
		TotalDue            Money              `json:"totalDue"`
		TotalCollected      Money              `json:"totalCollected"`
		TotalExpectedProfit Money              `json:"totalExpectedProfit"`
		TotalRealizedProfit Money              `json:"totalRealizedProfit"`
		TotalOutstanding    Money              `json:"totalOutstanding"`
	}
)

func (l Loan) Validate() error {
	if strings.TrimSpace(l.BorrowerName) == "" {
		return errors.New("empty borrower name")
	}
	if err := l.Principal.Validate(); err != nil {
		return err
	}
	if err := l.AmountDue.Validate(); err != nil {
		return err
	}
	if l.AmountDue.Cents < l.Principal.Cents {
		return errors.New("amount due must not be less than principal")
	}
	return nil
}

// Status derives the loan state from amounts and the due date. Paid wins
// over overdue; the due-date comparison is date-only.
func (l Loan) Status(now time.Time) LoanStatus {
	switch {
	case l.AmountPaid.Cents >= l.AmountDue.Cents:
		return LoanPaid
	case !l.DueDate.IsZero() && DaysBetween(now, l.DueDate) < 0:
		return LoanOverdue
	case l.AmountPaid.Cents > 0:
		return LoanPartial
	default:
		return LoanActive
	}
}

// Outstanding is the uncollected remainder.
func (l Loan) Outstanding() Money {
	return Money{Cents: l.AmountDue.Cents - l.AmountPaid.Cents}
}

// DueInfo computes the reminder decoration for the loan.
func (l Loan) DueInfo(asOf time.Time) LoanDueInfo {
	days := DaysBetween(asOf, l.DueDate)
	window := l.Reminder.DaysBefore
	return LoanDueInfo{
		Loan:         l,
		Status:       l.Status(asOf),
		DaysUntilDue: days,
		DueToday:     days == 0,
		Upcoming:     l.Reminder.Active && days > 0 && days <= window,
		Overdue:      days < 0,
	}
}

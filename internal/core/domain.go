package core

import (
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

type (
	// Frequency is the recurrence step of a scheduled obligation.
	Frequency string

	// Entry is a single income, asset or liability line inside a month.
	// The collection that holds it decides its meaning; Amount is a
	// positive magnitude for user-created entries.
	Entry struct {
		ID          string     `json:"id"`
		Description string     `json:"description"`
		Amount      Money      `json:"amount"`
		CreatedAt   time.Time  `json:"createdAt"`
		ModifiedAt  *time.Time `json:"modifiedAt,omitempty"`

		// Liability entries only.
		Category   string `json:"category,omitempty"`
		ScheduleID string `json:"scheduledObligationId,omitempty"`
		Automatic  bool   `json:"isAutomatic,omitempty"`

		// Asset entries only. Marks cash-like holdings the loan ledger
		// may debit and credit.
		Liquid bool `json:"liquid,omitempty"`
	}

	// MonthRecord holds the ledger collections of one calendar period.
	MonthRecord struct {
		Initialized   bool      `json:"initialized"`
		InitializedAt time.Time `json:"initializedAt"`
		Income        []Entry   `json:"income"`
		Assets        []Entry   `json:"assets"`
		Liabilities   []Entry   `json:"liabilities"`
	}

	// ScheduledObligation is a recurring liability template. NextDueDate
	// is derived but cached: it is always strictly in the future relative
	// to the moment it was last computed.
	ScheduledObligation struct {
		ID          string     `json:"id"`
		Description string     `json:"description"`
		Category    string     `json:"category"`
		Amount      Money      `json:"amount"`
		Frequency   Frequency  `json:"frequency"`
		StartDate   time.Time  `json:"startDate"`
		EndDate     *time.Time `json:"endDate,omitempty"`
		Active      bool       `json:"active"`
		NextDueDate time.Time  `json:"nextDueDate"`
		CreatedAt   time.Time  `json:"createdAt"`
		ModifiedAt  *time.Time `json:"modifiedAt,omitempty"`
	}

	// ObligationDueInfo decorates an obligation with date-only due-date
	// arithmetic relative to a reference day.
	ObligationDueInfo struct {
		ScheduledObligation
		DaysUntilDue int  `json:"daysUntilDue"`
		DueToday     bool `json:"isDueToday"`
		Upcoming     bool `json:"isUpcoming"`
		Overdue      bool `json:"isOverdue"`
	}
)

// UpcomingWindowDays is the fixed look-ahead window for obligations.
// Loans use their per-loan reminder window instead.
const UpcomingWindowDays = 7

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrExceedsDue       = errors.New("payment exceeds amount due")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrPersistence      = errors.New("persistence failed")

	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
)

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Biweekly, Monthly:
		return true
	}
	return false
}

func (e Entry) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

func (o ScheduledObligation) Validate() error {
	if len(strings.TrimSpace(o.Description)) == 0 {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(o.Category) == "" {
		return errors.New("empty category")
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if o.StartDate.IsZero() {
		return errors.New("start date cannot be zero")
	}
	if o.EndDate != nil {
		if o.EndDate.Before(o.StartDate) {
			return errors.New("end date must not be before start date")
		}
	}
	if !o.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	return nil
}

// DueInfo computes the date-only due decoration for the obligation.
// Both sides are truncated to their calendar day before subtracting so
// an intra-day clock offset cannot shift the result by one.
func (o ScheduledObligation) DueInfo(asOf time.Time) ObligationDueInfo {
	days := DaysBetween(asOf, o.NextDueDate)
	return ObligationDueInfo{
		ScheduledObligation: o,
		DaysUntilDue:        days,
		DueToday:            days == 0,
		Upcoming:            days > 0 && days <= UpcomingWindowDays,
		Overdue:             days < 0,
	}
}

// cashWords is the description vocabulary the original data used to
// mark cash-like holdings. DetectLiquid keeps it as the default tagger
// for entries that never set Liquid explicitly.
var cashWords = []string{"efectivo", "cuenta", "banco", "ahorro"}

// DetectLiquid reports whether a description names a cash-like asset.
func DetectLiquid(description string) bool {
	desc := strings.ToLower(description)
	for _, w := range cashWords {
		if strings.Contains(desc, w) {
			return true
		}
	}
	return false
}

// Period formats a time as the YYYY-MM key used by the month ledger.
func Period(t time.Time) string {
	return t.Format("2006-01")
}

// DaysBetween returns the whole-day difference to - from, truncating
// the time of day on both sides first.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

var lastEntryID atomic.Int64

// NewEntryID builds a creation-timestamp identifier, bumped past the
// previous one when two entries land on the same millisecond.
func NewEntryID(t time.Time) string {
	ms := t.UnixMilli()
	for {
		prev := lastEntryID.Load()
		if ms <= prev {
			ms = prev + 1
		}
		if lastEntryID.CompareAndSwap(prev, ms) {
			return strconv.FormatInt(ms, 10)
		}
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// LedgerService owns the per-month income, asset and liability
// collections. All writes target the current calendar month, matching
// the single-user tracker this models.
type LedgerService struct {
	store *storage.Store
	now   func() time.Time
}

func NewLedgerService(store *storage.Store) *LedgerService {
	return &LedgerService{store: store, now: time.Now}
}

// EntryInput carries the user-supplied fields of a new or edited entry.
// Liquid only applies to assets; when nil the description vocabulary
// decides. Category only applies to liabilities.
type EntryInput struct {
	Description string
	Amount      core.Money
	Category    string
	Liquid      *bool
}

// InitMonth marks the current month initialized. Idempotent: an
// already-initialized month is returned unchanged.
func (s *LedgerService) InitMonth(ctx context.Context) (*core.MonthRecord, error) {
	var rec core.MonthRecord
	err := s.store.Update(ctx, func(doc *core.Document) error {
		rec = *doc.EnsureMonth(core.Period(s.now()), s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CurrentMonth returns the current month's record, or an empty
// uninitialized one when nothing has been written yet.
func (s *LedgerService) CurrentMonth(ctx context.Context) (*core.MonthRecord, string, error) {
	period := core.Period(s.now())
	rec, err := s.Month(ctx, period)
	if err == nil {
		return rec, period, nil
	}
	return &core.MonthRecord{
		Income:      []core.Entry{},
		Assets:      []core.Entry{},
		Liabilities: []core.Entry{},
	}, period, nil
}

// Month returns the record for a period, failing with core.ErrNotFound
// if the period was never initialized.
func (s *LedgerService) Month(ctx context.Context, period string) (*core.MonthRecord, error) {
	doc := s.store.Load(ctx)
	rec := doc.Month(period)
	if rec == nil {
		return nil, fmt.Errorf("month %s: %w", period, core.ErrNotFound)
	}
	return rec, nil
}

// Periods lists the initialized periods.
func (s *LedgerService) Periods(ctx context.Context) []string {
	doc := s.store.Load(ctx)
	periods := make([]string, 0, len(doc.Months))
	for p := range doc.Months {
		periods = append(periods, p)
	}
	return periods
}

func (s *LedgerService) AddIncome(ctx context.Context, in EntryInput) (core.Entry, error) {
	return s.addEntry(ctx, collectionIncome, in)
}

func (s *LedgerService) AddAsset(ctx context.Context, in EntryInput) (core.Entry, error) {
	return s.addEntry(ctx, collectionAssets, in)
}

func (s *LedgerService) AddLiability(ctx context.Context, in EntryInput) (core.Entry, error) {
	return s.addEntry(ctx, collectionLiabilities, in)
}

func (s *LedgerService) EditIncome(ctx context.Context, id string, in EntryInput) (core.Entry, error) {
	return s.editEntry(ctx, collectionIncome, id, in)
}

func (s *LedgerService) EditAsset(ctx context.Context, id string, in EntryInput) (core.Entry, error) {
	return s.editEntry(ctx, collectionAssets, id, in)
}

func (s *LedgerService) EditLiability(ctx context.Context, id string, in EntryInput) (core.Entry, error) {
	return s.editEntry(ctx, collectionLiabilities, id, in)
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id string) error {
	return s.deleteEntry(ctx, collectionIncome, id)
}

func (s *LedgerService) DeleteAsset(ctx context.Context, id string) error {
	return s.deleteEntry(ctx, collectionAssets, id)
}

func (s *LedgerService) DeleteLiability(ctx context.Context, id string) error {
	return s.deleteEntry(ctx, collectionLiabilities, id)
}

type collection string

const (
	collectionIncome      collection = "income"
	collectionAssets      collection = "assets"
	collectionLiabilities collection = "liabilities"
)

func (c collection) slice(rec *core.MonthRecord) *[]core.Entry {
	switch c {
	case collectionIncome:
		return &rec.Income
	case collectionAssets:
		return &rec.Assets
	default:
		return &rec.Liabilities
	}
}

func newEntry(col collection, in EntryInput, now time.Time) core.Entry {
	e := core.Entry{
		ID:          core.NewEntryID(now),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		CreatedAt:   now,
	}
	switch col {
	case collectionAssets:
		if in.Liquid != nil {
			e.Liquid = *in.Liquid
		} else {
			e.Liquid = core.DetectLiquid(e.Description)
		}
	case collectionLiabilities:
		e.Category = strings.TrimSpace(in.Category)
	}
	return e
}

func (s *LedgerService) addEntry(ctx context.Context, col collection, in EntryInput) (core.Entry, error) {
	entry := newEntry(col, in, s.now())
	if err := entry.Validate(); err != nil {
		return core.Entry{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	err := s.store.Update(ctx, func(doc *core.Document) error {
		rec := doc.EnsureMonth(core.Period(s.now()), s.now())
		list := col.slice(rec)
		*list = append(*list, entry)
		return nil
	})
	if err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Entry added",
		"collection", string(col),
		"id", entry.ID,
		"description", entry.Description,
		"amount_cents", entry.Amount.Cents)
	return entry, nil
}

func (s *LedgerService) editEntry(ctx context.Context, col collection, id string, in EntryInput) (core.Entry, error) {
	candidate := newEntry(col, in, s.now())
	if err := candidate.Validate(); err != nil {
		return core.Entry{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	var updated core.Entry
	err := s.store.Update(ctx, func(doc *core.Document) error {
		rec := doc.Month(core.Period(s.now()))
		if rec == nil {
			return fmt.Errorf("current month not initialized: %w", core.ErrNotFound)
		}
		list := col.slice(rec)
		i := indexOfEntry(*list, id)
		if i < 0 {
			return fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
		}
		e := &(*list)[i]
		e.Description = strings.TrimSpace(in.Description)
		e.Amount = in.Amount
		switch col {
		case collectionAssets:
			if in.Liquid != nil {
				e.Liquid = *in.Liquid
			} else {
				e.Liquid = core.DetectLiquid(e.Description)
			}
		case collectionLiabilities:
			e.Category = strings.TrimSpace(in.Category)
		}
		mod := s.now()
		e.ModifiedAt = &mod
		updated = *e
		return nil
	})
	if err != nil {
		return core.Entry{}, err
	}
	return updated, nil
}

func (s *LedgerService) deleteEntry(ctx context.Context, col collection, id string) error {
	err := s.store.Update(ctx, func(doc *core.Document) error {
		rec := doc.Month(core.Period(s.now()))
		if rec == nil {
			return fmt.Errorf("current month not initialized: %w", core.ErrNotFound)
		}
		list := col.slice(rec)
		i := indexOfEntry(*list, id)
		if i < 0 {
			return fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
		}
		*list = append((*list)[:i], (*list)[i+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Entry deleted", "collection", string(col), "id", id)
	return nil
}

func indexOfEntry(list []core.Entry, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// automaticSuffix marks liability entries materialized from a schedule.
const automaticSuffix = " (auto)"

// ScheduleService is the scheduled-obligation engine: recurring
// liability templates, their next-due-date bookkeeping and the
// materialization of concrete liabilities into the current month.
type ScheduleService struct {
	store *storage.Store
	now   func() time.Time
}

func NewScheduleService(store *storage.Store) *ScheduleService {
	return &ScheduleService{store: store, now: time.Now}
}

// ScheduleInput carries a new obligation definition.
type ScheduleInput struct {
	Description string
	Category    string
	Amount      core.Money
	Frequency   core.Frequency
	StartDate   time.Time
	EndDate     *time.Time
}

// SchedulePatch carries an edit; nil fields are left unchanged.
type SchedulePatch struct {
	Description *string
	Category    *string
	Amount      *core.Money
	Frequency   *core.Frequency
	StartDate   *time.Time
	EndDate     *time.Time
}

// Create validates the definition, computes the first future due date
// and persists the obligation as active.
func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (*core.ScheduledObligation, error) {
	now := s.now()
	ob := core.ScheduledObligation{
		ID:          core.NewEntryID(now),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Amount:      in.Amount,
		Frequency:   in.Frequency,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Active:      true,
		CreatedAt:   now,
	}
	if err := ob.Validate(); err != nil {
		if errors.Is(err, core.ErrInvalidFrequency) {
			return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, in.Frequency)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	due, err := NextDueDate(ob.StartDate, ob.Frequency, now)
	if err != nil {
		return nil, err
	}
	ob.NextDueDate = due

	err = s.store.Update(ctx, func(doc *core.Document) error {
		doc.ScheduledObligations[ob.ID] = &ob
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Scheduled obligation created",
		"id", ob.ID,
		"description", ob.Description,
		"frequency", string(ob.Frequency),
		"next_due", ob.NextDueDate.Format("2006-01-02"))
	return &ob, nil
}

// Edit merges the patch into an existing obligation. A frequency or
// start-date change recomputes the next due date from scratch, seeded
// at the (possibly new) start date.
func (s *ScheduleService) Edit(ctx context.Context, id string, patch SchedulePatch) (*core.ScheduledObligation, error) {
	var updated core.ScheduledObligation
	err := s.store.Update(ctx, func(doc *core.Document) error {
		ob, ok := doc.ScheduledObligations[id]
		if !ok {
			return fmt.Errorf("scheduled obligation %s: %w", id, core.ErrNotFound)
		}

		recompute := false
		if patch.Description != nil {
			ob.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Category != nil {
			ob.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Amount != nil {
			ob.Amount = *patch.Amount
		}
		if patch.Frequency != nil {
			ob.Frequency = *patch.Frequency
			recompute = true
		}
		if patch.StartDate != nil {
			ob.StartDate = *patch.StartDate
			recompute = true
		}
		if patch.EndDate != nil {
			ob.EndDate = patch.EndDate
		}

		if err := ob.Validate(); err != nil {
			if errors.Is(err, core.ErrInvalidFrequency) {
				return fmt.Errorf("%w: %q", core.ErrInvalidFrequency, ob.Frequency)
			}
			return fmt.Errorf("%w: %v", core.ErrValidation, err)
		}

		if recompute {
			due, err := NextDueDate(ob.StartDate, ob.Frequency, s.now())
			if err != nil {
				return err
			}
			ob.NextDueDate = due
		}
		mod := s.now()
		ob.ModifiedAt = &mod
		updated = *ob
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the obligation permanently. Already-materialized
// liability entries keep their tag and stay untouched.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(doc *core.Document) error {
		if _, ok := doc.ScheduledObligations[id]; !ok {
			return fmt.Errorf("scheduled obligation %s: %w", id, core.ErrNotFound)
		}
		delete(doc.ScheduledObligations, id)
		return nil
	})
}

// ToggleActive flips the active flag without deleting the definition.
func (s *ScheduleService) ToggleActive(ctx context.Context, id string) (*core.ScheduledObligation, error) {
	var updated core.ScheduledObligation
	err := s.store.Update(ctx, func(doc *core.Document) error {
		ob, ok := doc.ScheduledObligations[id]
		if !ok {
			return fmt.Errorf("scheduled obligation %s: %w", id, core.ErrNotFound)
		}
		ob.Active = !ob.Active
		mod := s.now()
		ob.ModifiedAt = &mod
		updated = *ob
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns all obligations sorted by creation time.
func (s *ScheduleService) List(ctx context.Context) []core.ScheduledObligation {
	doc := s.store.Load(ctx)
	return sortedObligations(doc)
}

// ListPending returns the active obligations due as of the given time
// that have not yet been materialized into the as-of month. The
// tag check on the month's liabilities is the de-duplication guard.
func (s *ScheduleService) ListPending(ctx context.Context, asOf time.Time) []core.ScheduledObligation {
	doc := s.store.Load(ctx)
	return pendingObligations(doc, asOf)
}

func pendingObligations(doc *core.Document, asOf time.Time) []core.ScheduledObligation {
	month := doc.Month(core.Period(asOf))

	var pending []core.ScheduledObligation
	for _, ob := range sortedObligations(doc) {
		if !ob.Active || ob.NextDueDate.After(asOf) {
			continue
		}
		if month != nil && hasMaterialized(month.Liabilities, ob.ID) {
			continue
		}
		pending = append(pending, ob)
	}
	return pending
}

func hasMaterialized(liabilities []core.Entry, scheduleID string) bool {
	for _, e := range liabilities {
		if e.ScheduleID == scheduleID {
			return true
		}
	}
	return false
}

// Materialize inserts a concrete liability entry for the obligation
// into the as-of month and advances the next due date one step past
// now. This is the only path coupling the engine to the month ledger.
func (s *ScheduleService) Materialize(ctx context.Context, id string, asOf time.Time) (core.Entry, error) {
	var entry core.Entry
	err := s.store.Update(ctx, func(doc *core.Document) error {
		ob, ok := doc.ScheduledObligations[id]
		if !ok {
			return fmt.Errorf("scheduled obligation %s: %w", id, core.ErrNotFound)
		}

		entry = core.Entry{
			ID:          core.NewEntryID(s.now()),
			Description: ob.Description + automaticSuffix,
			Amount:      ob.Amount,
			Category:    ob.Category,
			ScheduleID:  ob.ID,
			Automatic:   true,
			CreatedAt:   s.now(),
		}
		rec := doc.EnsureMonth(core.Period(asOf), s.now())
		rec.Liabilities = append(rec.Liabilities, entry)

		due, err := AdvanceDueDate(ob.NextDueDate, ob.Frequency, asOf)
		if err != nil {
			return err
		}
		ob.NextDueDate = due
		return nil
	})
	if err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Obligation materialized",
		"schedule_id", id,
		"entry_id", entry.ID,
		"amount_cents", entry.Amount.Cents,
		"period", core.Period(asOf))
	return entry, nil
}

// MaterializePending materializes every pending obligation and returns
// the created entries. Failures on single obligations are logged and
// skipped so one bad definition cannot block the rest.
func (s *ScheduleService) MaterializePending(ctx context.Context, asOf time.Time) ([]core.Entry, error) {
	pending := s.ListPending(ctx, asOf)

	entries := make([]core.Entry, 0, len(pending))
	for _, ob := range pending {
		entry, err := s.Materialize(ctx, ob.ID, asOf)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize obligation",
				"schedule_id", ob.ID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	slog.InfoContext(ctx, "Pending obligations processed",
		"pending", len(pending), "materialized", len(entries))
	return entries, nil
}

// WithDueInfo returns the active obligations decorated with date-only
// due-date arithmetic.
func (s *ScheduleService) WithDueInfo(ctx context.Context, asOf time.Time) []core.ObligationDueInfo {
	doc := s.store.Load(ctx)

	var infos []core.ObligationDueInfo
	for _, ob := range sortedObligations(doc) {
		if !ob.Active {
			continue
		}
		infos = append(infos, ob.DueInfo(asOf))
	}
	return infos
}

func sortedObligations(doc *core.Document) []core.ScheduledObligation {
	obs := make([]core.ScheduledObligation, 0, len(doc.ScheduledObligations))
	for _, ob := range doc.ScheduledObligations {
		obs = append(obs, *ob)
	}
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].CreatedAt.Equal(obs[j].CreatedAt) {
			return obs[i].ID < obs[j].ID
		}
		return obs[i].CreatedAt.Before(obs[j].CreatedAt)
	})
	return obs
}

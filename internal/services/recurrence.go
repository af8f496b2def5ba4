// Package services provides the ledger business logic.
//
// This file implements the recurrence calculator for scheduled
// obligations. Each frequency has its own stepper that advances a due
// date by one period.
package services

import (
	"fmt"
	"time"

	"finanzas/internal/core"
)

// Stepper advances a due date by one frequency period.
type Stepper interface {
	Step(t time.Time) time.Time
}

// WeeklyStepper advances by 7 days.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(t time.Time) time.Time { return t.AddDate(0, 0, 7) }

// BiweeklyStepper advances by 15 days.
type BiweeklyStepper struct{}

func (BiweeklyStepper) Step(t time.Time) time.Time { return t.AddDate(0, 0, 15) }

// MonthlyStepper advances by one calendar month. Month-end overflow
// follows time.AddDate (Jan 31 + 1 month lands in early March).
type MonthlyStepper struct{}

func (MonthlyStepper) Step(t time.Time) time.Time { return t.AddDate(0, 1, 0) }

var steppers = map[core.Frequency]Stepper{
	core.Weekly:   WeeklyStepper{},
	core.Biweekly: BiweeklyStepper{},
	core.Monthly:  MonthlyStepper{},
}

// GetStepper returns the stepper for a frequency.
func GetStepper(frequency core.Frequency) (Stepper, error) {
	s, ok := steppers[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, frequency)
	}
	return s, nil
}

// NextDueDate advances step-by-step from start until the result is
// strictly after now. A start already in the future is returned as-is,
// so the result is always start plus a whole number of steps.
func NextDueDate(start time.Time, frequency core.Frequency, now time.Time) (time.Time, error) {
	stepper, err := GetStepper(frequency)
	if err != nil {
		return time.Time{}, err
	}
	due := start
	for !due.After(now) {
		due = stepper.Step(due)
	}
	return due, nil
}

// AdvanceDueDate moves a due date at least one step forward, then keeps
// stepping until it is strictly after now. Used after materialization,
// where the current due date has just been consumed.
func AdvanceDueDate(due time.Time, frequency core.Frequency, now time.Time) (time.Time, error) {
	stepper, err := GetStepper(frequency)
	if err != nil {
		return time.Time{}, err
	}
	next := stepper.Step(due)
	for !next.After(now) {
		next = stepper.Step(next)
	}
	return next, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// ReportService computes monthly summary snapshots and the derived
// comparisons and trends over them. Snapshots are frozen at generation
// time; regenerating a period overwrites its snapshot.
type ReportService struct {
	store *storage.Store
	now   func() time.Time
}

func NewReportService(store *storage.Store) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// Generate builds and persists the snapshot for a period. An empty
// period means the current month.
func (s *ReportService) Generate(ctx context.Context, period string) (*core.ReportSnapshot, error) {
	if period == "" {
		period = core.Period(s.now())
	}

	var snap core.ReportSnapshot
	err := s.store.Update(ctx, func(doc *core.Document) error {
		rec := doc.Month(period)
		if rec == nil {
			return fmt.Errorf("no data for month %s: %w", period, core.ErrNotFound)
		}
		snap = buildSnapshot(period, rec, s.now())
		doc.Reports[period] = &snap
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Monthly report generated",
		"period", period,
		"net_worth_cents", snap.Summary.NetWorth.Cents,
		"debt_ratio", snap.Summary.DebtRatio)
	return &snap, nil
}

// Get returns the stored snapshot for a period.
func (s *ReportService) Get(ctx context.Context, period string) (*core.ReportSnapshot, error) {
	doc := s.store.Load(ctx)
	snap, ok := doc.Reports[period]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", period, core.ErrNotFound)
	}
	return snap, nil
}

// List returns all stored snapshots, newest generation first.
func (s *ReportService) List(ctx context.Context) []core.ReportSnapshot {
	doc := s.store.Load(ctx)
	return snapshotsByGeneration(doc)
}

// Compare computes absolute and percentage deltas between two stored
// snapshots, base first. A percentage divides by the absolute baseline
// value and is 0 when the baseline metric is exactly 0; sign flips are
// left as the arithmetic produces them.
func (s *ReportService) Compare(ctx context.Context, basePeriod, currentPeriod string) (*core.Comparison, error) {
	doc := s.store.Load(ctx)
	base, ok := doc.Reports[basePeriod]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", basePeriod, core.ErrNotFound)
	}
	current, ok := doc.Reports[currentPeriod]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", currentPeriod, core.ErrNotFound)
	}

	delta := func(b, c core.Money) core.Money {
		return core.Money{Cents: c.Cents - b.Cents}
	}
	pct := func(b, c core.Money) float64 {
		if b.Cents == 0 {
			return 0
		}
		return float64(c.Cents-b.Cents) / math.Abs(float64(b.Cents)) * 100
	}

	bs, cs := base.Summary, current.Summary
	return &core.Comparison{
		Base: core.ComparisonSide{
			Period: base.Period, GeneratedAt: base.GeneratedAt, Summary: bs,
		},
		Current: core.ComparisonSide{
			Period: current.Period, GeneratedAt: current.GeneratedAt, Summary: cs,
		},
		Deltas: core.ComparisonDeltas{
			Income:      delta(bs.TotalIncome, cs.TotalIncome),
			Assets:      delta(bs.TotalAssets, cs.TotalAssets),
			Liabilities: delta(bs.TotalLiabilities, cs.TotalLiabilities),
			NetWorth:    delta(bs.NetWorth, cs.NetWorth),
			Liquidity:   delta(bs.Liquidity, cs.Liquidity),
		},
		Percents: core.ComparisonMetrics{
			Income:      pct(bs.TotalIncome, cs.TotalIncome),
			Assets:      pct(bs.TotalAssets, cs.TotalAssets),
			Liabilities: pct(bs.TotalLiabilities, cs.TotalLiabilities),
			NetWorth:    pct(bs.NetWorth, cs.NetWorth),
			Liquidity:   pct(bs.Liquidity, cs.Liquidity),
		},
	}, nil
}

// Trends takes the n most recently generated snapshots and returns
// parallel metric series plus arithmetic means over them.
func (s *ReportService) Trends(ctx context.Context, n int) (*core.Trends, error) {
	doc := s.store.Load(ctx)
	snaps := snapshotsByGeneration(doc)
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no reports generated yet: %w", core.ErrNotFound)
	}
	if n > 0 && len(snaps) > n {
		snaps = snaps[:n]
	}

	t := &core.Trends{}
	var sums core.ComparisonMetrics
	for _, snap := range snaps {
		sum := snap.Summary
		t.Periods = append(t.Periods, snap.Period)
		t.Income = append(t.Income, sum.TotalIncome)
		t.Assets = append(t.Assets, sum.TotalAssets)
		t.Liabilities = append(t.Liabilities, sum.TotalLiabilities)
		t.NetWorth = append(t.NetWorth, sum.NetWorth)
		t.Liquidity = append(t.Liquidity, sum.Liquidity)

		sums.Income += float64(sum.TotalIncome.Cents)
		sums.Assets += float64(sum.TotalAssets.Cents)
		sums.Liabilities += float64(sum.TotalLiabilities.Cents)
		sums.NetWorth += float64(sum.NetWorth.Cents)
		sums.Liquidity += float64(sum.Liquidity.Cents)
	}

	count := float64(len(snaps))
	t.Averages = core.ComparisonMetrics{
		Income:      sums.Income / count,
		Assets:      sums.Assets / count,
		Liabilities: sums.Liabilities / count,
		NetWorth:    sums.NetWorth / count,
		Liquidity:   sums.Liquidity / count,
	}
	return t, nil
}

func buildSnapshot(period string, rec *core.MonthRecord, now time.Time) core.ReportSnapshot {
	sum := func(entries []core.Entry) core.Money {
		var total core.Money
		for _, e := range entries {
			total.Cents += e.Amount.Cents
		}
		return total
	}
	lines := func(entries []core.Entry) []core.ReportLine {
		out := make([]core.ReportLine, len(entries))
		for i, e := range entries {
			out[i] = core.ReportLine{Description: e.Description, Amount: e.Amount, Date: e.CreatedAt}
		}
		return out
	}

	totalIncome := sum(rec.Income)
	totalAssets := sum(rec.Assets)
	totalLiabilities := sum(rec.Liabilities)
	netWorth := core.Money{Cents: totalAssets.Cents - totalLiabilities.Cents}
	liquidity := core.Money{Cents: totalIncome.Cents - totalLiabilities.Cents}

	var debtRatio float64
	if totalAssets.Cents > 0 {
		debtRatio = roundPercent(float64(totalLiabilities.Cents) / float64(totalAssets.Cents) * 100)
	}

	analysis := core.ReportAnalysis{
		Patrimony:    core.PatrimonyPositive,
		Liquidity:    core.LiquidityGood,
		Indebtedness: core.DebtLow,
	}
	if netWorth.Cents < 0 {
		analysis.Patrimony = core.PatrimonyNegative
	}
	if liquidity.Cents < 0 {
		analysis.Liquidity = core.LiquidityTight
	}
	switch {
	case debtRatio >= 60:
		analysis.Indebtedness = core.DebtHigh
	case debtRatio >= 30:
		analysis.Indebtedness = core.DebtModerate
	}

	return core.ReportSnapshot{
		ID:          period,
		Period:      period,
		GeneratedAt: now,
		Summary: core.ReportSummary{
			TotalIncome:      totalIncome,
			TotalAssets:      totalAssets,
			TotalLiabilities: totalLiabilities,
			NetWorth:         netWorth,
			Liquidity:        liquidity,
			DebtRatio:        debtRatio,
		},
		Details: core.ReportDetails{
			Income:      lines(rec.Income),
			Assets:      lines(rec.Assets),
			Liabilities: lines(rec.Liabilities),
		},
		Analysis: analysis,
	}
}

func snapshotsByGeneration(doc *core.Document) []core.ReportSnapshot {
	snaps := make([]core.ReportSnapshot, 0, len(doc.Reports))
	for _, r := range doc.Reports {
		snaps = append(snaps, *r)
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].GeneratedAt.Equal(snaps[j].GeneratedAt) {
			return snaps[i].Period > snaps[j].Period
		}
		return snaps[i].GeneratedAt.After(snaps[j].GeneratedAt)
	})
	return snaps
}

package core

import "time"

// DocumentVersion is written into every fresh document.
const DocumentVersion = "1.0.0"

type (
	// Document is the single persisted state blob. Every entity in the
	// system is reachable only through it; the storage layer owns the
	// only authoritative copy.
	Document struct {
		Months               map[string]*MonthRecord         `json:"months"`
		Reports              map[string]*ReportSnapshot      `json:"reports"`
		ScheduledObligations map[string]*ScheduledObligation `json:"scheduledObligations"`
		Loans                map[string]*Loan                `json:"loans"`
		Config               DocumentConfig                  `json:"config"`
	}

	DocumentConfig struct {
		Version    string     `json:"version"`
		CreatedAt  time.Time  `json:"createdAt"`
		ImportedAt *time.Time `json:"importedAt,omitempty"`
	}
)

// NewDocument returns an empty document with initialized collections.
func NewDocument(now time.Time) *Document {
	return &Document{
		Months:               map[string]*MonthRecord{},
		Reports:              map[string]*ReportSnapshot{},
		ScheduledObligations: map[string]*ScheduledObligation{},
		Loans:                map[string]*Loan{},
		Config: DocumentConfig{
			Version:   DocumentVersion,
			CreatedAt: now,
		},
	}
}

// EnsureCollections backfills nil maps on documents deserialized from
// older or imported payloads.
func (d *Document) EnsureCollections() {
	if d.Months == nil {
		d.Months = map[string]*MonthRecord{}
	}
	if d.Reports == nil {
		d.Reports = map[string]*ReportSnapshot{}
	}
	if d.ScheduledObligations == nil {
		d.ScheduledObligations = map[string]*ScheduledObligation{}
	}
	if d.Loans == nil {
		d.Loans = map[string]*Loan{}
	}
}

// Month returns the record for a period, or nil.
func (d *Document) Month(period string) *MonthRecord {
	return d.Months[period]
}

// EnsureMonth returns the record for a period, creating and marking it
// initialized if absent.
func (d *Document) EnsureMonth(period string, now time.Time) *MonthRecord {
	rec := d.Months[period]
	if rec == nil {
		rec = &MonthRecord{
			Initialized:   true,
			InitializedAt: now,
			Income:        []Entry{},
			Assets:        []Entry{},
			Liabilities:   []Entry{},
		}
		d.Months[period] = rec
	}
	return rec
}

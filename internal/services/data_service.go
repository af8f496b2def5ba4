package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// ExportAppName tags every export envelope.
const ExportAppName = "finanzas-personales"

const (
	// ImportOverwrite replaces the document wholesale.
	ImportOverwrite ImportMode = "overwrite"
	// ImportMerge shallow-merges months and scheduled obligations
	// key-by-key; imported keys win on collision.
	ImportMerge ImportMode = "merge"
)

type (
	ImportMode string

	// ExportEnvelope wraps the full document for file download.
	ExportEnvelope struct {
		Version    string         `json:"version"`
		ExportedAt time.Time      `json:"exportedAt"`
		AppName    string         `json:"appName"`
		Data       *core.Document `json:"data"`
	}

	// StoreStats is the lightweight overview of the tracked data.
	StoreStats struct {
		TotalMonths   int        `json:"totalMonths"`
		CurrentPeriod string     `json:"currentPeriod"`
		CreatedAt     *time.Time `json:"createdAt,omitempty"`
	}
)

// DataService handles the document-level boundary: export, import,
// backups, stats and wholesale reset.
type DataService struct {
	store *storage.Store
	now   func() time.Time
}

func NewDataService(store *storage.Store) *DataService {
	return &DataService{store: store, now: time.Now}
}

// Export wraps the current document in the download envelope.
func (s *DataService) Export(ctx context.Context) *ExportEnvelope {
	return &ExportEnvelope{
		Version:    core.DocumentVersion,
		ExportedAt: s.now(),
		AppName:    ExportAppName,
		Data:       s.store.Load(ctx),
	}
}

// ExportFilename names the download file with the current date.
func (s *DataService) ExportFilename() string {
	return fmt.Sprintf("%s-%s.json", ExportAppName, s.now().Format("2006-01-02"))
}

// Import validates the envelope payload and applies it in the chosen
// mode. Validation happens on the raw JSON so malformed collection
// shapes are rejected before anything touches the store.
func (s *DataService) Import(ctx context.Context, payload []byte, mode ImportMode) error {
	if mode != ImportOverwrite && mode != ImportMerge {
		return fmt.Errorf("%w: unknown import mode %q", core.ErrValidation, mode)
	}
	if err := ValidateEnvelope(payload); err != nil {
		return err
	}

	var env ExportEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: parse envelope: %v", core.ErrValidation, err)
	}
	incoming := env.Data
	incoming.EnsureCollections()
	importedAt := s.now()
	incoming.Config.ImportedAt = &importedAt

	if mode == ImportOverwrite {
		if err := s.store.Replace(ctx, incoming); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Data imported", "mode", string(mode), "months", len(incoming.Months))
		return nil
	}

	err := s.store.Update(ctx, func(doc *core.Document) error {
		for k, v := range incoming.Months {
			doc.Months[k] = v
		}
		for k, v := range incoming.ScheduledObligations {
			doc.ScheduledObligations[k] = v
		}
		doc.Config.ImportedAt = &importedAt
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Data imported", "mode", string(mode), "months", len(incoming.Months))
	return nil
}

// Stats returns the document overview.
func (s *DataService) Stats(ctx context.Context) *StoreStats {
	doc := s.store.Load(ctx)
	stats := &StoreStats{
		TotalMonths:   len(doc.Months),
		CurrentPeriod: core.Period(s.now()),
	}
	if !doc.Config.CreatedAt.IsZero() {
		created := doc.Config.CreatedAt
		stats.CreatedAt = &created
	}
	return stats
}

// Clear wipes the whole document.
func (s *DataService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// CreateBackup snapshots the document into the rolling buffer.
func (s *DataService) CreateBackup(ctx context.Context) (storage.BackupInfo, error) {
	return s.store.CreateBackup(ctx)
}

// ListBackups lists the buffered snapshots, newest first.
func (s *DataService) ListBackups(ctx context.Context) ([]storage.BackupInfo, error) {
	return s.store.ListBackups(ctx)
}

// RestoreBackup replaces the document with a buffered snapshot.
func (s *DataService) RestoreBackup(ctx context.Context, id string) error {
	return s.store.RestoreBackup(ctx, id)
}

// envelopeShape mirrors the envelope with raw collection values so the
// JSON types can be checked without committing to the domain structs.
type envelopeShape struct {
	Data *documentShape `json:"data"`
}

type documentShape struct {
	Months               map[string]monthShape `json:"months"`
	ScheduledObligations json.RawMessage       `json:"scheduledObligations"`
}

type monthShape struct {
	Income      json.RawMessage `json:"income"`
	Assets      json.RawMessage `json:"assets"`
	Liabilities json.RawMessage `json:"liabilities"`
}

// ValidateEnvelope checks the structural contract of an import payload:
// data.months must exist and every month must carry array-typed income,
// assets and liabilities fields.
func ValidateEnvelope(payload []byte) error {
	var shape envelopeShape
	if err := json.Unmarshal(payload, &shape); err != nil {
		return fmt.Errorf("%w: payload is not valid JSON: %v", core.ErrValidation, err)
	}
	if shape.Data == nil {
		return fmt.Errorf("%w: envelope has no data", core.ErrValidation)
	}
	if shape.Data.Months == nil {
		return fmt.Errorf("%w: data.months is missing", core.ErrValidation)
	}
	for period, m := range shape.Data.Months {
		for field, raw := range map[string]json.RawMessage{
			"income":      m.Income,
			"assets":      m.Assets,
			"liabilities": m.Liabilities,
		} {
			if !isJSONArray(raw) {
				return fmt.Errorf("%w: month %s field %s is not an array",
					core.ErrValidation, period, field)
			}
		}
	}
	if raw := bytes.TrimSpace(shape.Data.ScheduledObligations); len(raw) > 0 &&
		!bytes.Equal(raw, []byte("null")) && raw[0] != '{' {
		return fmt.Errorf("%w: data.scheduledObligations is not a collection", core.ErrValidation)
	}
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finanzas/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := store.Load(ctx)
	if doc == nil {
		t.Fatal("Load() returned nil")
	}
	if doc.Config.Version != core.DocumentVersion {
		t.Errorf("Version = %q, want %q", doc.Config.Version, core.DocumentVersion)
	}
	if doc.Months == nil || doc.Loans == nil || doc.Reports == nil || doc.ScheduledObligations == nil {
		t.Error("expected initialized collections")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := core.NewDocument(time.Now())
	rec := doc.EnsureMonth("2024-03", time.Now())
	rec.Income = append(rec.Income, core.Entry{
		ID:          "1",
		Description: "Salario",
		Amount:      core.Money{Cents: 250000000},
		CreatedAt:   time.Now(),
	})

	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded := store.Load(ctx)
	got := loaded.Month("2024-03")
	if got == nil {
		t.Fatal("expected month 2024-03 after reload")
	}
	if len(got.Income) != 1 || got.Income[0].Amount.Cents != 250000000 {
		t.Fatalf("unexpected income after reload: %+v", got.Income)
	}
	if !got.Initialized {
		t.Error("expected reloaded month to stay initialized")
	}
}

func TestLoadDefaultsOnCorruptPayload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO document (key, payload, updated_at) VALUES (?, ?, ?)`,
		DocumentKey, "{not json", time.Now().UTC())
	if err != nil {
		t.Fatalf("insert corrupt payload: %v", err)
	}

	doc := store.Load(ctx)
	if doc == nil || len(doc.Months) != 0 {
		t.Fatalf("expected fresh defaults for corrupt payload, got %+v", doc)
	}
}

func TestUpdateAbortsOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := core.NewDocument(time.Now())
	doc.EnsureMonth("2024-01", time.Now())
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	boom := errors.New("boom")
	err := store.Update(ctx, func(d *core.Document) error {
		d.EnsureMonth("2024-02", time.Now())
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() = %v, want boom", err)
	}

	if store.Load(ctx).Month("2024-02") != nil {
		t.Error("aborted update must not persist")
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := core.NewDocument(time.Now())
	doc.EnsureMonth("2024-01", time.Now())
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if store.Load(ctx).Month("2024-01") != nil {
		t.Error("expected defaults after clear")
	}
}

func TestBackupRestore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := core.NewDocument(time.Now())
	doc.EnsureMonth("2024-03", time.Now())
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := store.CreateBackup(ctx)
	if err != nil {
		t.Fatalf("CreateBackup() error: %v", err)
	}
	if info.ID == "" {
		t.Fatal("expected backup id")
	}

	// Wipe and restore
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if err := store.RestoreBackup(ctx, info.ID); err != nil {
		t.Fatalf("RestoreBackup() error: %v", err)
	}
	if store.Load(ctx).Month("2024-03") == nil {
		t.Error("expected restored month")
	}
}

func TestRestoreBackupNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.RestoreBackup(context.Background(), "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("RestoreBackup() = %v, want ErrNotFound", err)
	}
}

func TestBackupEviction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Deterministic, strictly increasing clock so eviction order is stable.
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	var ids []string
	for i := 0; i < BackupLimit+2; i++ {
		info, err := store.CreateBackup(ctx)
		if err != nil {
			t.Fatalf("CreateBackup() #%d error: %v", i, err)
		}
		ids = append(ids, info.ID)
	}

	backups, err := store.ListBackups(ctx)
	if err != nil {
		t.Fatalf("ListBackups() error: %v", err)
	}
	if len(backups) != BackupLimit {
		t.Fatalf("expected %d backups, got %d", BackupLimit, len(backups))
	}
	// Newest first
	if backups[0].ID != ids[len(ids)-1] {
		t.Errorf("expected newest backup first, got %s", backups[0].ID)
	}
	// The two oldest snapshots are gone
	for _, b := range backups {
		if b.ID == ids[0] || b.ID == ids[1] {
			t.Errorf("expected backup %s evicted", b.ID)
		}
	}
}

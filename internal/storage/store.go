package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"finanzas/internal/core"

	_ "modernc.org/sqlite"
)

// DocumentKey is the single row key the ledger document lives under.
const DocumentKey = "finanzas_personales"

// BackupLimit caps the rolling backup buffer; the oldest snapshot is
// evicted once it is exceeded.
const BackupLimit = 5

// Store owns exclusive access to the persisted document. Every mutation
// is one load-mutate-save cycle behind a mutex: last writer wins, there
// is no versioning and no merge.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// BackupInfo describes one snapshot in the backup buffer.
type BackupInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns the current document, or a fresh default one when no
// document exists or the stored payload does not parse. Read failures
// never propagate: availability wins over strict durability here.
func (s *Store) Load(ctx context.Context) *core.Document {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM document WHERE key = ?`, DocumentKey).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.WarnContext(ctx, "Document read failed, starting from defaults", "error", err)
		}
		return core.NewDocument(s.now())
	}

	var doc core.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		slog.WarnContext(ctx, "Document payload corrupt, starting from defaults", "error", err)
		return core.NewDocument(s.now())
	}
	doc.EnsureCollections()
	return &doc
}

// Save serializes and persists the document wholesale.
func (s *Store) Save(ctx context.Context, doc *core.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", core.ErrPersistence, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO document (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		DocumentKey, string(payload), s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: write document: %v", core.ErrPersistence, err)
	}
	return nil
}

// Update runs fn against the current document and saves the result. If
// fn returns an error nothing is written. All mutation paths in the
// system go through here.
func (s *Store) Update(ctx context.Context, fn func(*core.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.Load(ctx)
	if err := fn(doc); err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// Replace overwrites the document wholesale.
func (s *Store) Replace(ctx context.Context, doc *core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.EnsureCollections()
	return s.Save(ctx, doc)
}

// Clear drops the persisted document entirely; the next Load starts
// from defaults.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM document WHERE key = ?`, DocumentKey); err != nil {
		return fmt.Errorf("%w: clear document: %v", core.ErrPersistence, err)
	}
	slog.InfoContext(ctx, "Document cleared", "key", DocumentKey)
	return nil
}

// CreateBackup snapshots the current document into the backup buffer
// and evicts the oldest snapshots beyond BackupLimit.
func (s *Store) CreateBackup(ctx context.Context) (BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.Load(ctx)
	payload, err := json.Marshal(doc)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("%w: marshal backup: %v", core.ErrPersistence, err)
	}

	info := BackupInfo{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO backup (id, payload, created_at) VALUES (?, ?, ?)`,
		info.ID, string(payload), info.CreatedAt); err != nil {
		return BackupInfo{}, fmt.Errorf("%w: write backup: %v", core.ErrPersistence, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM backup WHERE id NOT IN
		   (SELECT id FROM backup ORDER BY created_at DESC, id DESC LIMIT ?)`,
		BackupLimit); err != nil {
		return BackupInfo{}, fmt.Errorf("%w: evict backups: %v", core.ErrPersistence, err)
	}

	slog.InfoContext(ctx, "Backup created", "id", info.ID)
	return info, nil
}

// ListBackups returns the buffered snapshots, newest first.
func (s *Store) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at FROM backup ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list backups: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var backups []BackupInfo
	for rows.Next() {
		var b BackupInfo
		if err := rows.Scan(&b.ID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan backup: %v", core.ErrPersistence, err)
		}
		backups = append(backups, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list backups: %v", core.ErrPersistence, err)
	}
	return backups, nil
}

// RestoreBackup replaces the primary document wholesale with the chosen
// snapshot's payload.
func (s *Store) RestoreBackup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM backup WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("backup %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: read backup: %v", core.ErrPersistence, err)
	}

	var doc core.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return fmt.Errorf("%w: backup payload corrupt: %v", core.ErrPersistence, err)
	}
	doc.EnsureCollections()

	if err := s.Save(ctx, &doc); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Backup restored", "id", id)
	return nil
}

// Package drafts journals presentations whose autosave failed so the edits
// can be recovered on a later run.
package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"slidegenie/internal/domain"
	"slidegenie/internal/domain/models"
)

// DefaultKeep is how many drafts are retained per presentation.
const DefaultKeep = 10

var schema = []string{`
CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	presentation_id TEXT NOT NULL,
	title TEXT,
	cause TEXT,
	slide_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	data BLOB NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS drafts_presentation ON drafts (presentation_id, id)`,
}

// Info describes a stored draft without its payload.
type Info struct {
	ID             string
	PresentationID string
	Title          string
	Cause          string
	SlideCount     int
	CreatedAt      time.Time
}

// Store is a SQLite-backed draft journal. It satisfies editor.Journal.
type Store struct {
	db     *sql.DB
	keep   int
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open drafts db: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create drafts table: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, keep: DefaultKeep, logger: logger, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveDraft records p with the error that prevented saving it and trims
// the presentation's journal to the newest entries.
func (s *Store) SaveDraft(ctx context.Context, p *models.Presentation, cause error) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	id := ulid.Make().String()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	log := s.logger.With("draft_id", id, "presentation_id", p.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO drafts (id, presentation_id, title, cause, slide_count, created_at, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.ID, p.Title, msg, len(p.Slides), s.now().UnixMilli(), data)
	if err != nil {
		log.Error("failed to journal draft", "error", err)
		return fmt.Errorf("insert draft: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM drafts WHERE presentation_id = ? AND id NOT IN (
			SELECT id FROM drafts WHERE presentation_id = ? ORDER BY id DESC LIMIT ?)`,
		p.ID, p.ID, s.keep)
	if err != nil {
		return fmt.Errorf("prune drafts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debug("draft journaled", "bytes", len(data))
	return nil
}

// DeleteDrafts drops every draft of a presentation, typically after a
// successful save.
func (s *Store) DeleteDrafts(ctx context.Context, presentationID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE presentation_id = ?`, presentationID); err != nil {
		return fmt.Errorf("delete drafts: %w", err)
	}
	return nil
}

// List returns the newest draft of each presentation, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, presentation_id, title, cause, slide_count, created_at FROM drafts d
		WHERE id = (SELECT MAX(id) FROM drafts WHERE presentation_id = d.presentation_id)
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			info    Info
			created int64
		)
		if err := rows.Scan(&info.ID, &info.PresentationID, &info.Title, &info.Cause, &info.SlideCount, &created); err != nil {
			return nil, err
		}
		info.CreatedAt = time.UnixMilli(created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Latest returns the newest draft of a presentation, or an error matching
// domain.ErrNotFound.
func (s *Store) Latest(ctx context.Context, presentationID string) (*models.Presentation, Info, error) {
	return s.load(ctx,
		`SELECT id, presentation_id, title, cause, slide_count, created_at, data FROM drafts
		 WHERE presentation_id = ? ORDER BY id DESC LIMIT 1`, presentationID)
}

// Get returns one draft by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Presentation, Info, error) {
	return s.load(ctx,
		`SELECT id, presentation_id, title, cause, slide_count, created_at, data FROM drafts WHERE id = ?`, id)
}

func (s *Store) load(ctx context.Context, query string, arg string) (*models.Presentation, Info, error) {
	var (
		info    Info
		created int64
		data    []byte
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&info.ID, &info.PresentationID, &info.Title, &info.Cause, &info.SlideCount, &created, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Info{}, &domain.NotFoundError{Message: fmt.Sprintf("draft %s not found", arg)}
	}
	if err != nil {
		return nil, Info{}, fmt.Errorf("load draft: %w", err)
	}
	info.CreatedAt = time.UnixMilli(created)

	var p models.Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, info, fmt.Errorf("decode draft %s: %w", info.ID, err)
	}
	return &p, info, nil
}

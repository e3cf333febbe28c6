package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/tatianab/langquest/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	profile    TEXT    NOT NULL,
	language   TEXT    NOT NULL,
	module     TEXT    NOT NULL,
	state      TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (profile, language)
)`

// SQLiteStore keeps each save as one row holding the YAML-encoded state.
type SQLiteStore struct {
	db *sqlx.DB
}

type saveRow struct {
	Profile   string `db:"profile"`
	Language  string `db:"language"`
	Module    string `db:"module"`
	State     string `db:"state"`
	UpdatedAt int64  `db:"updated_at"`
}

// NewSQLiteStore opens (creating if needed) the database at path. ":memory:"
// opens a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create saves table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, profile, language string) (*models.GameState, bool, error) {
	if err := checkKey(profile, language); err != nil {
		return nil, false, err
	}
	var row saveRow
	err := s.db.GetContext(ctx, &row,
		`SELECT profile, language, module, state, updated_at FROM saves WHERE profile = ? AND language = ?`,
		profile, language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load save %s/%s: %w", profile, language, err)
	}

	var state models.GameState
	if err := yaml.Unmarshal([]byte(row.State), &state); err != nil {
		return nil, false, fmt.Errorf("decode save %s/%s: %w", profile, language, err)
	}
	state.Upgrade()
	return &state, true, nil
}

// Save upserts the whole state in a single statement.
func (s *SQLiteStore) Save(ctx context.Context, profile, language, module string, state *models.GameState) error {
	if err := checkKey(profile, language); err != nil {
		return err
	}
	doc := *state
	doc.Module = module
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}

	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO saves (profile, language, module, state, updated_at)
		VALUES (:profile, :language, :module, :state, :updated_at)
		ON CONFLICT (profile, language) DO UPDATE SET
			module = excluded.module,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		saveRow{
			Profile:   profile,
			Language:  language,
			Module:    module,
			State:     string(data),
			UpdatedAt: updated.UTC().UnixMilli(),
		})
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", profile, language, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]SaveRef, error) {
	var rows []saveRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT profile, language, module, '' AS state, updated_at FROM saves ORDER BY profile, language`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	refs := make([]SaveRef, 0, len(rows))
	for _, r := range rows {
		refs = append(refs, SaveRef{
			Profile:   r.Profile,
			Language:  r.Language,
			Module:    r.Module,
			UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
		})
	}
	return refs, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Package store persists one GameState per (profile, language) pair. A
// successful Save makes the whole state visible to the next Load; there are
// no partial writes.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/tatianab/langquest/internal/models"
)

// Store loads and saves game states.
type Store interface {
	// Load returns the saved state, or false if no save exists. Returned
	// states are already upgraded to the current schema.
	Load(ctx context.Context, profile, language string) (*models.GameState, bool, error)
	// Save replaces the saved state for the pair as one unit.
	Save(ctx context.Context, profile, language, module string, state *models.GameState) error
	// List returns every save, ordered by profile then language.
	List(ctx context.Context) ([]SaveRef, error)
	Close() error
}

// SaveRef identifies a save without loading it.
type SaveRef struct {
	Profile   string
	Language  string
	Module    string
	UpdatedAt time.Time
}

// ErrInvalidKey is returned for profile or language names that cannot be used
// as storage keys.
var ErrInvalidKey = errors.New("invalid save key")

var validKey = regexp.MustCompile(`^[\p{L}\p{N}_-]{1,64}$`)

func checkKey(profile, language string) error {
	if !validKey.MatchString(profile) {
		return fmt.Errorf("%w: profile %q", ErrInvalidKey, profile)
	}
	if !validKey.MatchString(language) {
		return fmt.Errorf("%w: language %q", ErrInvalidKey, language)
	}
	return nil
}

// NewByEngine opens the store named by engine: "yaml" (a directory of YAML
// files at path), "sqlite" (a database file at path) or "memory".
func NewByEngine(engine, path string) (Store, error) {
	switch engine {
	case "yaml", "file", "":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store engine %q", engine)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/langquest/internal/models"
)

// DefaultSaveDir is where saves live when no directory is configured.
const DefaultSaveDir = ".saves"

// FileStore keeps each save in <dir>/<profile>/<language>.yaml.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultSaveDir
	}
	return &FileStore{dir: dir}
}

func (s *FileStore) path(profile, language string) string {
	return filepath.Join(s.dir, profile, language+".yaml")
}

func (s *FileStore) Load(ctx context.Context, profile, language string) (*models.GameState, bool, error) {
	if err := checkKey(profile, language); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(profile, language))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var state models.GameState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, false, fmt.Errorf("decode save %s/%s: %w", profile, language, err)
	}
	state.Upgrade()
	return &state, true, nil
}

// Save writes the state to a temporary file in the same directory and
// renames it over the previous save.
func (s *FileStore) Save(ctx context.Context, profile, language, module string, state *models.GameState) error {
	if err := checkKey(profile, language); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := *state
	doc.Module = module
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}

	dir := filepath.Join(s.dir, profile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+language+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(profile, language))
}

func (s *FileStore) List(ctx context.Context) ([]SaveRef, error) {
	profiles, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []SaveRef{}, nil
	}
	if err != nil {
		return nil, err
	}

	refs := []SaveRef{}
	for _, p := range profiles {
		if !p.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, p.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".yaml" {
				continue
			}
			ref, err := s.readRef(p.Name(), strings.TrimSuffix(name, ".yaml"))
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
	}
	slices.SortFunc(refs, compareRefs)
	return refs, nil
}

func (s *FileStore) readRef(profile, language string) (SaveRef, error) {
	data, err := os.ReadFile(s.path(profile, language))
	if err != nil {
		return SaveRef{}, err
	}
	var header struct {
		Module    string    `yaml:"module"`
		UpdatedAt time.Time `yaml:"updated_at"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return SaveRef{}, fmt.Errorf("decode save %s/%s: %w", profile, language, err)
	}
	return SaveRef{Profile: profile, Language: language, Module: header.Module, UpdatedAt: header.UpdatedAt}, nil
}

func (s *FileStore) Close() error { return nil }

func compareRefs(a, b SaveRef) int {
	if c := strings.Compare(a.Profile, b.Profile); c != 0 {
		return c
	}
	return strings.Compare(a.Language, b.Language)
}

package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const schemaVersion = 2

var ErrInvalid = errors.New("invalid settings")

var validate = validator.New()

// Settings are display preferences. Sessions are never persisted.
type Settings struct {
	SchemaVersion     int    `json:"schema_version" validate:"gte=1"`
	MathVariables     bool   `json:"math_variables"`
	CollapseAutoSteps *bool  `json:"collapse_auto_steps,omitempty"`
	LastProblemID     string `json:"last_problem_id,omitempty" validate:"omitempty,max=128,excludesall= "`
}

// Collapse reports whether automatic steps are folded into their manual
// step, which is the default.
func (s *Settings) Collapse() bool {
	return s.CollapseAutoSteps == nil || *s.CollapseAutoSteps
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return nil, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	backfillSettings(&settings)
	return &settings, nil
}

func (s *Store) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

func (s *Store) save(settings *Settings) error {
	backfillSettings(settings)
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Update applies fn to the stored settings and saves them under one lock.
func (s *Store) Update(fn func(*Settings)) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.load()
	if err != nil {
		return nil, err
	}
	fn(settings)
	return settings, s.save(settings)
}

func defaultSettings() *Settings {
	collapse := true
	return &Settings{
		SchemaVersion:     schemaVersion,
		CollapseAutoSteps: &collapse,
	}
}

func backfillSettings(settings *Settings) {
	if settings.SchemaVersion < schemaVersion {
		settings.SchemaVersion = schemaVersion
	}
	if settings.CollapseAutoSteps == nil {
		collapse := true
		settings.CollapseAutoSteps = &collapse
	}
	settings.LastProblemID = strings.TrimSpace(settings.LastProblemID)
}

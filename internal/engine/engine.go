package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ray-pH/equaio/internal/appdirs"
	"github.com/ray-pH/equaio/internal/catalog"
	"github.com/ray-pH/equaio/internal/errinfo"
	"github.com/ray-pH/equaio/internal/logging"
	"github.com/ray-pH/equaio/internal/rule"
	"github.com/ray-pH/equaio/internal/settings"
)

const (
	EngineVersion = "0.1.0"
	APIVersion    = "1"
)

const (
	NotifySequenceUpdated  = "SequenceUpdated"
	NotifySelectionChanged = "SelectionChanged"
	NotifySessionClosed    = "SessionClosed"
)

type Notifier func(method string, params any)

// Engine serves interactive rewrite sessions. Sessions live in memory only.
type Engine struct {
	logger   *slog.Logger
	notify   Notifier
	dataDir  string
	settings *settings.Store
	catalog  *catalog.Catalog
	// catalogSource is "embedded" or the directory the catalog came from.
	catalogSource string
	rules         *rule.Registry

	mu       sync.RWMutex
	sessions map[string]*session
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCatalog replaces the catalog lookup with c.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
			e.catalogSource = "custom"
		}
	}
}

func WithRegistry(r *rule.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.rules = r
		}
	}
}

func New(opts ...Option) (*Engine, error) {
	engine := &Engine{logger: logging.Nop(), sessions: make(map[string]*session)}
	for _, opt := range opts {
		opt(engine)
	}
	dataDir, err := appdirs.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	engine.dataDir = dataDir
	engine.settings = settings.NewStore(appdirs.SettingsPath(dataDir))
	catalogDir := appdirs.CatalogDir(dataDir)
	if engine.rules == nil {
		engine.rules = rule.DefaultRegistry()
		engine.registerRuleSetDir(filepath.Join(catalogDir, "rulesets"))
	}
	if engine.catalog == nil {
		engine.catalog, engine.catalogSource, err = loadCatalog(catalogDir, engine.logger)
		if err != nil {
			return nil, err
		}
	}
	engine.logger.Debug("engine.init", "data_dir", dataDir, "catalog", engine.catalogSource, "rulesets", engine.rules.Names())
	return engine, nil
}

// loadCatalog prefers an override directory and falls back to the embedded
// catalog when the directory is absent or unusable.
func loadCatalog(dir string, logger *slog.Logger) (*catalog.Catalog, string, error) {
	c, err := catalog.LoadDir(dir)
	if err == nil {
		return c, dir, nil
	}
	if !errors.Is(err, catalog.ErrMissingFile) {
		logger.Warn("engine.catalog_override_failed", "dir", dir, "error", err.Error())
	}
	c, err = catalog.Default()
	if err != nil {
		return nil, "", fmt.Errorf("embedded catalog: %w", err)
	}
	return c, "embedded", nil
}

// registerRuleSetDir adds every *.json in dir to the registry, keyed by file
// name. Parsing is deferred to first use.
func (e *Engine) registerRuleSetDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("engine.ruleset_read_failed", "path", path, "error", err.Error())
			continue
		}
		e.rules.Register(strings.TrimSuffix(entry.Name(), ".json"), data)
		e.logger.Debug("engine.ruleset_registered", "path", path)
	}
}

func (e *Engine) SetNotifier(notify Notifier) {
	e.notify = notify
}

func (e *Engine) emit(method string, params any) {
	if e.notify != nil {
		e.notify(method, params)
	}
}

func (e *Engine) EngineGetInfo(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	return map[string]any{
		"engine_version": EngineVersion,
		"api_version":    APIVersion,
		"rulesets":       e.rules.Names(),
		"catalog":        e.catalogSource,
	}, nil
}

// Catalog returns the problem catalog sessions are opened from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// SessionIDs lists open sessions in a stable order.
func (e *Engine) SessionIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func decodeParams(params json.RawMessage, phase string, out any) *errinfo.ErrorInfo {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	if err := json.Unmarshal(params, out); err != nil {
		return errinfo.ValidationFailed(phase, "invalid params")
	}
	return nil
}

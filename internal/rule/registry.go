package rule

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

//go:embed rulesets/*.json
var rulesetFS embed.FS

var ErrUnknownRuleSet = errors.New("unknown ruleset")

// Registry maps rule-set names to their descriptions and parses each one at
// most once, even under concurrent first use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string][]byte
	parsed  map[string]*RuleSet
	flight  singleflight.Group
}

func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string][]byte),
		parsed:  make(map[string]*RuleSet),
	}
}

// DefaultRegistry holds the rule sets shipped with the engine, keyed by file
// name: algebra, algebra_simplify and logic.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	entries, err := rulesetFS.ReadDir("rulesets")
	if err != nil {
		return r
	}
	for _, entry := range entries {
		data, err := rulesetFS.ReadFile(path.Join("rulesets", entry.Name()))
		if err != nil {
			continue
		}
		r.Register(strings.TrimSuffix(entry.Name(), ".json"), data)
	}
	return r
}

// Register adds or replaces a rule-set description and drops any cached
// parse of the previous one.
func (r *Registry) Register(name string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = append([]byte(nil), data...)
	delete(r.parsed, name)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Get(name string) (*RuleSet, error) {
	r.mu.RLock()
	if rs, ok := r.parsed[name]; ok {
		r.mu.RUnlock()
		return rs, nil
	}
	src, ok := r.sources[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuleSet, name)
	}
	v, err, _ := r.flight.Do(name, func() (any, error) {
		rs, err := Parse(src)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.parsed[name] = rs
		r.mu.Unlock()
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RuleSet), nil
}

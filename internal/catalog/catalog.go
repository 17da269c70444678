// Package catalog holds the menu of practice problems and the data each one
// is seeded from.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.json
var dataFS embed.FS

var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrMissingFile    = errors.New("catalog file not found")
)

var validate = validator.New()

type Category struct {
	Name       string   `json:"name" yaml:"name" validate:"required"`
	ProblemIDs []string `json:"problem_ids" yaml:"problem_ids"`
}

type Problem struct {
	Label              string   `json:"label" yaml:"label" validate:"required"`
	Sublabel           string   `json:"sublabel,omitempty" yaml:"sublabel,omitempty"`
	Rule               string   `json:"rule" yaml:"rule" validate:"required"`
	Variables          []string `json:"variables" yaml:"variables" validate:"dive,required"`
	InitialExpressions []string `json:"initial_expressions" yaml:"initial_expressions" validate:"required,min=1,dive,required"`
}

type Catalog struct {
	Menu     []Category
	Problems map[string]Problem
}

// Entry is a menu item resolved against the problem map.
type Entry struct {
	ID string `json:"id"`
	Problem
}

type Section struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Default returns the catalog shipped with the engine.
func Default() (*Catalog, error) {
	menu, err := dataFS.ReadFile("data/menu.json")
	if err != nil {
		return nil, err
	}
	problems, err := dataFS.ReadFile("data/problems.json")
	if err != nil {
		return nil, err
	}
	return parse(menu, json.Unmarshal, problems, json.Unmarshal)
}

// LoadDir reads menu and problems files from dir. Each may be JSON or YAML,
// chosen by extension.
func LoadDir(dir string) (*Catalog, error) {
	menu, menuDecode, err := readOne(dir, "menu")
	if err != nil {
		return nil, err
	}
	problems, problemsDecode, err := readOne(dir, "problems")
	if err != nil {
		return nil, err
	}
	return parse(menu, menuDecode, problems, problemsDecode)
}

type decodeFunc func([]byte, any) error

func readOne(dir, base string) ([]byte, decodeFunc, error) {
	candidates := []struct {
		ext    string
		decode decodeFunc
	}{
		{".json", json.Unmarshal},
		{".yaml", yaml.Unmarshal},
		{".yml", yaml.Unmarshal},
	}
	for _, c := range candidates {
		data, err := os.ReadFile(filepath.Join(dir, base+c.ext))
		if err == nil {
			return data, c.decode, nil
		}
		if !os.IsNotExist(err) {
			return nil, nil, err
		}
	}
	return nil, nil, fmt.Errorf("%w: %s in %s", ErrMissingFile, base, dir)
}

func parse(menuData []byte, menuDecode decodeFunc, problemsData []byte, problemsDecode decodeFunc) (*Catalog, error) {
	var c Catalog
	if err := menuDecode(menuData, &c.Menu); err != nil {
		return nil, fmt.Errorf("%w: menu: %v", ErrInvalidCatalog, err)
	}
	if err := problemsDecode(problemsData, &c.Problems); err != nil {
		return nil, fmt.Errorf("%w: problems: %v", ErrInvalidCatalog, err)
	}
	for i, cat := range c.Menu {
		if err := validate.Struct(cat); err != nil {
			return nil, fmt.Errorf("%w: menu[%d]: %v", ErrInvalidCatalog, i, err)
		}
	}
	for id, p := range c.Problems {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("%w: problem %q: %v", ErrInvalidCatalog, id, err)
		}
	}
	if c.Problems == nil {
		c.Problems = map[string]Problem{}
	}
	return &c, nil
}

func (c *Catalog) Lookup(id string) (Problem, bool) {
	p, ok := c.Problems[id]
	return p, ok
}

// Entries resolves the menu in order. Menu ids with no problem are skipped.
func (c *Catalog) Entries() []Section {
	sections := make([]Section, 0, len(c.Menu))
	for _, cat := range c.Menu {
		s := Section{Name: cat.Name, Entries: []Entry{}}
		for _, id := range cat.ProblemIDs {
			p, ok := c.Problems[id]
			if !ok {
				continue
			}
			s.Entries = append(s.Entries, Entry{ID: id, Problem: p})
		}
		sections = append(sections, s)
	}
	return sections
}

// Package taxonomy holds the fixed list of maintenance categories the
// classifier may assign. A Taxonomy is built once at startup and never
// mutated afterwards.
package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Taxonomy is an ordered, immutable set of category names.
type Taxonomy struct {
	categories []string
	index      map[string]struct{}
}

// New builds a taxonomy from raw entries. Entries are trimmed; blanks and
// repeats are dropped, first-seen order is kept.
func New(categories []string) Taxonomy {
	t := Taxonomy{
		categories: make([]string, 0, len(categories)),
		index:      make(map[string]struct{}, len(categories)),
	}
	for _, raw := range categories {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, seen := t.index[name]; seen {
			continue
		}
		t.index[name] = struct{}{}
		t.categories = append(t.categories, name)
	}
	return t
}

// Load reads a category list from path. The file may be a JSON array or a
// YAML sequence of strings (JSON is a subset of YAML 1.2).
func Load(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	var entries []string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	return New(entries), nil
}

// LoadOrEmpty loads the taxonomy and degrades to an empty one on failure,
// which makes every classification a no-match.
func LoadOrEmpty(path string, logger *zap.Logger) Taxonomy {
	t, err := Load(path)
	if err != nil {
		logger.Error("unable to load work request categories", zap.String("path", path), zap.Error(err))
		return New(nil)
	}
	if t.Len() == 0 {
		logger.Warn("work request taxonomy is empty; all requests will go to manual review", zap.String("path", path))
	} else {
		logger.Info("loaded work request categories", zap.String("path", path), zap.Int("count", t.Len()))
	}
	return t
}

// Categories returns a copy of the category names in file order.
func (t Taxonomy) Categories() []string {
	out := make([]string, len(t.categories))
	copy(out, t.categories)
	return out
}

// Contains reports exact, case-sensitive membership.
func (t Taxonomy) Contains(category string) bool {
	_, ok := t.index[category]
	return ok
}

// Len returns the number of categories.
func (t Taxonomy) Len() int {
	return len(t.categories)
}

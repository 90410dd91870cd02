// Package sections holds the fixed catalog of news sections and the keyword
// table shared by the cold-start prompt and the fallback categorizer, so the
// two classifiers can never drift apart.
package sections

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

//go:embed keywords.toml
var keywordsTOML string

// Rule is one section of the catalog with its matching keywords.
type Rule struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
	Default  bool     `toml:"default"`
	Strict   bool     `toml:"strict"`
}

// Catalog is the ordered section catalog. Rule order is match order.
type Catalog struct {
	Rules []Rule `toml:"sections"`
}

// Load parses the embedded keyword table.
func Load() (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal([]byte(keywordsTOML), &c); err != nil {
		return nil, fmt.Errorf("parse section catalog: %w", err)
	}
	if len(c.Rules) == 0 {
		return nil, fmt.Errorf("section catalog is empty")
	}
	return &c, nil
}

// MustLoad is Load for package initialization paths where the embedded
// catalog being malformed is a programming error.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns all section names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		names[i] = r.Name
	}
	return names
}

// DefaultEnabled returns the sections enabled for a user with no stored
// preferences.
func (c *Catalog) DefaultEnabled() []string {
	var names []string
	for _, r := range c.Rules {
		if r.Default {
			names = append(names, r.Name)
		}
	}
	return names
}

// Rule returns the rule for a section name.
func (c *Catalog) Rule(name string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Contains reports whether name is part of the catalog.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.Rule(name)
	return ok
}

// ResolveEnabled applies a user's stored preferences over the catalog
// defaults and returns the enabled sections in catalog order. No stored rows
// means the default subset. Preferences naming sections outside the catalog
// are ignored. If the overrides disable everything, the defaults are used so
// the recommendation output contract stays satisfiable.
func (c *Catalog) ResolveEnabled(prefs []storage.SectionPreference) []string {
	if len(prefs) == 0 {
		return c.DefaultEnabled()
	}

	state := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		state[r.Name] = r.Default
	}
	for _, p := range prefs {
		if _, ok := state[p.Section]; ok {
			state[p.Section] = p.Enabled
		}
	}

	var enabled []string
	for _, r := range c.Rules {
		if state[r.Name] {
			enabled = append(enabled, r.Name)
		}
	}
	if len(enabled) == 0 {
		return c.DefaultEnabled()
	}
	return enabled
}

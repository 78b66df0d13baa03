// Package classify holds the per-domain classification tables and builds
// session classifiers from them.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/aggregate"
	"github.com/hihiyo7/Personal-Healthcare-Assistant/internal/model"
)

// Table classifies sessions of one domain.
//
// An annotation is matched by keyword: a counted keyword wins, then an
// excluded keyword excludes, and any other annotation counts. Without an
// annotation the category is looked up in the Counted/Excluded lists.
// Unknown categories count.
type Table struct {
	CountedKeywords  []string `yaml:"counted_keywords"`
	ExcludedKeywords []string `yaml:"excluded_keywords"`
	Counted          []string `yaml:"counted"`
	Excluded         []string `yaml:"excluded"`
}

// Rules is the top-level structure of the rules YAML file.
type Rules struct {
	Version int   `yaml:"version"`
	Water   Table `yaml:"water"`
	Book    Table `yaml:"book"`
	Laptop  Table `yaml:"laptop"`
}

// DefaultRules mirrors the dashboard's built-in category tables.
func DefaultRules() Rules {
	return Rules{
		Version: 1,
		Water: Table{
			CountedKeywords:  []string{"water"},
			ExcludedKeywords: []string{"drink", "juice", "soda", "coffee", "tea", "milk"},
		},
		Book: Table{
			CountedKeywords:  []string{"study"},
			ExcludedKeywords: []string{"etc", "other"},
			Counted:          []string{"study"},
			Excluded:         []string{"etc"},
		},
		Laptop: Table{
			CountedKeywords:  []string{"study"},
			ExcludedKeywords: []string{"game", "youtube", "other"},
			Counted:          []string{"lecture", "assignment", "coding", "study"},
			Excluded:         []string{"youtube", "game"},
		},
	}
}

// LoadRules reads a rules file. An empty path returns DefaultRules; tables
// missing from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules: %w", err)
	}
	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("parsing rules: %w", err)
	}
	if file.Version != 0 {
		rules.Version = file.Version
	}
	rules.Water = merge(rules.Water, file.Water)
	rules.Book = merge(rules.Book, file.Book)
	rules.Laptop = merge(rules.Laptop, file.Laptop)
	return rules, nil
}

func merge(def, override Table) Table {
	if len(override.CountedKeywords) > 0 {
		def.CountedKeywords = override.CountedKeywords
	}
	if len(override.ExcludedKeywords) > 0 {
		def.ExcludedKeywords = override.ExcludedKeywords
	}
	if len(override.Counted) > 0 {
		def.Counted = override.Counted
	}
	if len(override.Excluded) > 0 {
		def.Excluded = override.Excluded
	}
	return def
}

// Counts applies the table to a label pair.
func (t Table) Counts(annotation, category string) bool {
	if a := strings.ToLower(strings.TrimSpace(annotation)); a != "" {
		if containsAny(a, t.CountedKeywords) {
			return true
		}
		return !containsAny(a, t.ExcludedKeywords)
	}
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return true
	}
	if inList(c, t.Counted) {
		return true
	}
	return !inList(c, t.Excluded)
}

// Classifier adapts the table to the aggregator.
func (t Table) Classifier() aggregate.Classifier {
	return func(s model.Session) bool { return t.Counts(s.Annotation, s.Category) }
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func inList(s string, list []string) bool {
	for _, v := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

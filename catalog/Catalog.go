// Package catalog holds the immutable table of known migration defects.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/reaandrew/migrationlint/core"
)

var (
	ErrDuplicateRuleID = errors.New("duplicate rule id")
	ErrMissingMatcher  = errors.New("rule has no matcher")
)

// CatalogBuildError reports a rule that cannot be part of a catalog. It is
// raised at start-up, before any scan runs.
type CatalogBuildError struct {
	RuleID string
	Reason string
	Err    error
}

func (e *CatalogBuildError) Error() string {
	msg := "catalog build failed"
	if e.RuleID != "" {
		msg += fmt.Sprintf(": rule %q", e.RuleID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CatalogBuildError) Unwrap() error {
	return e.Err
}

// Catalog is read-only once built and safe to share between goroutines.
type Catalog struct {
	rules []core.Rule
	open  []core.Rule
	byID  map[string]core.Rule
}

func NewCatalog(rules ...core.Rule) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]core.Rule, len(rules))}
	for _, rule := range rules {
		if strings.TrimSpace(rule.ID) == "" {
			return nil, &CatalogBuildError{Reason: "rule without id"}
		}
		if rule.ID == core.StructuralWarningID {
			return nil, &CatalogBuildError{RuleID: rule.ID, Reason: "id is reserved for structural warnings"}
		}
		if _, exists := c.byID[rule.ID]; exists {
			return nil, &CatalogBuildError{RuleID: rule.ID, Err: ErrDuplicateRuleID}
		}
		if rule.Matcher == nil {
			return nil, &CatalogBuildError{RuleID: rule.ID, Err: ErrMissingMatcher}
		}
		c.byID[rule.ID] = rule
		c.rules = append(c.rules, rule)
	}

	sort.Slice(c.rules, func(i, j int) bool { return c.rules[i].ID < c.rules[j].ID })
	for _, rule := range c.rules {
		if rule.IsOpen() {
			c.open = append(c.open, rule)
		}
	}
	return c, nil
}

// FromDefinitions compiles definitions and builds a catalog from them.
func FromDefinitions(definitions []RuleDefinition) (*Catalog, error) {
	rules := make([]core.Rule, 0, len(definitions))
	for _, definition := range definitions {
		rule, err := definition.Compile()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return NewCatalog(rules...)
}

// Load builds the built-in catalog plus any extra rule files.
func Load(extraRuleFiles ...string) (*Catalog, error) {
	definitions, err := LoadRuleDefinitions(rulesFS, rulesDir)
	if err != nil {
		return nil, err
	}
	for _, path := range extraRuleFiles {
		extra, err := LoadRuleFile(path)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, extra...)
	}
	return FromDefinitions(definitions)
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Load()
}

// AllOpenRules returns the rules applied during a scan, sorted by id. The
// returned slice is a copy.
func (c *Catalog) AllOpenRules() []core.Rule {
	return append([]core.Rule(nil), c.open...)
}

// AllRules includes fixed rules.
func (c *Catalog) AllRules() []core.Rule {
	return append([]core.Rule(nil), c.rules...)
}

func (c *Catalog) Lookup(id string) (core.Rule, bool) {
	rule, ok := c.byID[id]
	return rule, ok
}

// Fingerprint identifies the set of open rules. Two catalogs with the same
// fingerprint produce the same findings for the same input.
func (c *Catalog) Fingerprint() string {
	h := sha256.New()
	for _, rule := range c.open {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x01", rule.ID, rule.Description, rule.Signature)
	}
	return hex.EncodeToString(h.Sum(nil))
}

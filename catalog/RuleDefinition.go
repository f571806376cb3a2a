package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/reaandrew/migrationlint/core"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed data/rules/*.yaml
var rulesFS embed.FS

const rulesDir = "data/rules"

const (
	BranchAny      = "any"
	BranchActive   = "active"
	BranchInactive = "inactive"
)

// RuleDefinition is the declarative form of a rule as written in rule files.
type RuleDefinition struct {
	ID            string   `yaml:"id" toml:"id"`
	Description   string   `yaml:"description" toml:"description"`
	Status        string   `yaml:"status" toml:"status"`
	FixedIn       string   `yaml:"fixed_in" toml:"fixed_in"`
	Patterns      []string `yaml:"patterns" toml:"patterns"`
	Branch        string   `yaml:"branch" toml:"branch"`
	MatchComments bool     `yaml:"match_comments" toml:"match_comments"`
}

type RuleFile struct {
	Rules []RuleDefinition `yaml:"rules" toml:"rules"`
}

// Compile turns the definition into a Rule whose matcher tests the compiled
// patterns against the line.
func (d RuleDefinition) Compile() (core.Rule, error) {
	if strings.TrimSpace(d.ID) == "" {
		return core.Rule{}, &CatalogBuildError{Reason: "rule without id"}
	}

	var status core.RuleStatus
	if err := status.UnmarshalText([]byte(d.Status)); err != nil {
		return core.Rule{}, &CatalogBuildError{RuleID: d.ID, Reason: "invalid status", Err: err}
	}

	branch := strings.ToLower(strings.TrimSpace(d.Branch))
	if branch == "" {
		branch = BranchAny
	}
	if branch != BranchAny && branch != BranchActive && branch != BranchInactive {
		return core.Rule{}, &CatalogBuildError{RuleID: d.ID, Reason: fmt.Sprintf("unknown branch %q", d.Branch)}
	}

	if len(d.Patterns) == 0 {
		return core.Rule{}, &CatalogBuildError{RuleID: d.ID, Reason: "no patterns", Err: ErrMissingMatcher}
	}

	regexes := make([]*regexp.Regexp, 0, len(d.Patterns))
	for _, pattern := range d.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return core.Rule{}, &CatalogBuildError{RuleID: d.ID, Reason: "invalid pattern", Err: err}
		}
		regexes = append(regexes, re)
	}

	return core.Rule{
		ID:          d.ID,
		Description: d.Description,
		Status:      status,
		FixedIn:     d.FixedIn,
		Signature:   fmt.Sprintf("%s|%t|%s", branch, d.MatchComments, strings.Join(d.Patterns, "\x00")),
		Matcher:     patternMatcher(regexes, branch, d.MatchComments),
	}, nil
}

func patternMatcher(regexes []*regexp.Regexp, branch string, matchComments bool) core.Matcher {
	return func(ctx core.LineContext) bool {
		switch branch {
		case BranchInactive:
			if !ctx.InsideInactiveBranch() {
				return false
			}
		case BranchActive:
			if ctx.InsideInactiveBranch() {
				return false
			}
		}

		subject := ctx.Code
		if matchComments {
			subject = ctx.Text
		}
		if strings.TrimSpace(subject) == "" {
			return false
		}

		for _, re := range regexes {
			if re.MatchString(subject) {
				return true
			}
		}
		return false
	}
}

// LoadRuleDefinitions reads every .yaml/.yml/.toml rule file in dir.
func LoadRuleDefinitions(f fs.FS, dir string) ([]RuleDefinition, error) {
	entries, err := fs.ReadDir(f, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory %s: %w", dir, err)
	}

	var definitions []RuleDefinition
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := fs.ReadFile(f, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read rule file %s: %w", entry.Name(), err)
		}
		defs, err := decodeRuleFile(entry.Name(), content)
		if err != nil {
			if err == errUnsupportedRuleFile {
				log.Debugf("Skipping %s: not a rule file", entry.Name())
				continue
			}
			return nil, err
		}
		definitions = append(definitions, defs...)
	}
	return definitions, nil
}

// LoadRuleFile reads a user supplied rule file from disk.
func LoadRuleFile(path string) ([]RuleDefinition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", path, err)
	}
	defs, err := decodeRuleFile(path, content)
	if err == errUnsupportedRuleFile {
		return nil, fmt.Errorf("rule file %s: expected a .yaml, .yml or .toml extension", path)
	}
	return defs, err
}

var errUnsupportedRuleFile = errors.New("unsupported rule file")

func decodeRuleFile(name string, content []byte) ([]RuleDefinition, error) {
	var file RuleFile
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML rule file %s: %w", name, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(content), &file); err != nil {
			return nil, fmt.Errorf("failed to parse TOML rule file %s: %w", name, err)
		}
	default:
		return nil, errUnsupportedRuleFile
	}
	return file.Rules, nil
}

package processors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"github.com/gobwas/glob"
	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/scanner"
	log "github.com/sirupsen/logrus"
)

var DefaultLanguages = []string{"Swift"}

// MigrationProcessor runs the migration scanner over files written in one of
// the configured languages. Include globs select files regardless of
// language; exclude globs always win.
type MigrationProcessor struct {
	Scanner   *scanner.Scanner
	Languages []string
	Includes  []glob.Glob
	Excludes  []glob.Glob
}

func NewMigrationProcessor(s *scanner.Scanner, languages []string, includes []string, excludes []string) (*MigrationProcessor, error) {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	includeGlobs, err := compileGlobs(includes)
	if err != nil {
		return nil, err
	}
	excludeGlobs, err := compileGlobs(excludes)
	if err != nil {
		return nil, err
	}
	return &MigrationProcessor{
		Scanner:   s,
		Languages: languages,
		Includes:  includeGlobs,
		Excludes:  excludeGlobs,
	}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	slashed := filepath.ToSlash(path)
	for _, g := range globs {
		if g.Match(slashed) || g.Match("/"+strings.TrimPrefix(slashed, "/")) {
			return true
		}
	}
	return false
}

func (p *MigrationProcessor) Supports(path string) bool {
	if matchAny(p.Excludes, path) {
		return false
	}
	if len(p.Includes) > 0 {
		return matchAny(p.Includes, path)
	}

	language, _ := enry.GetLanguageByExtension(path)
	if language == "" {
		return false
	}
	for _, wanted := range p.Languages {
		if strings.EqualFold(wanted, language) {
			return true
		}
	}
	return false
}

func (p *MigrationProcessor) Process(path string, content string) (core.Report, error) {
	if enry.IsBinary([]byte(content)) {
		log.Debugf("Skipping binary file %s", path)
		return core.Report{SourcePath: path}, nil
	}
	return p.Scanner.ScanSource(path, content), nil
}

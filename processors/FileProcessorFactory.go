package processors

import (
	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/scanner"
)

type Options struct {
	Languages []string
	Includes  []string
	Excludes  []string
}

// InitializeProcessors creates and returns the FileProcessors used for a scan.
func InitializeProcessors(s *scanner.Scanner, options Options) ([]core.FileProcessor, error) {
	var processors []core.FileProcessor

	migrationProcessor, err := NewMigrationProcessor(s, options.Languages, options.Includes, options.Excludes)
	if err != nil {
		return nil, err
	}
	processors = append(processors, migrationProcessor)

	return processors, nil
}

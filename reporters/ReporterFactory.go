package reporters

import (
	"fmt"
	"io"

	"github.com/reaandrew/migrationlint/catalog"
	"github.com/reaandrew/migrationlint/core"
)

type Options struct {
	Writer      io.Writer
	OutputFile  string
	BaseURL     string
	Catalog     *catalog.Catalog
	ToolVersion string
	// Headers groups text output by file for runs over more than one file.
	Headers bool
}

func CreateReporter(reportFormat string, options Options) (core.Reporter, error) {
	switch reportFormat {
	case "text", "":
		return TextReporter{Writer: options.Writer, Headers: options.Headers}, nil
	case "json":
		return JsonReporter{Writer: options.Writer}, nil
	case "sarif":
		return SarifReporter{Writer: options.Writer, Catalog: options.Catalog, ToolVersion: options.ToolVersion}, nil
	case "xlsx":
		return XlsxReporter{OutputFile: options.OutputFile}, nil
	case "http":
		if options.BaseURL == "" {
			return nil, fmt.Errorf("report format http requires --base-url")
		}
		return NewDefaultHttpReporter(options.BaseURL), nil
	}

	return nil, fmt.Errorf("unknown report format: %s", reportFormat)
}

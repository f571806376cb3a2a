package reporters

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/reaandrew/migrationlint/catalog"
	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReports() []core.Report {
	return []core.Report{
		{
			SourcePath: "App/Net.swift",
			Findings: []core.Finding{
				{RuleID: "MIG011", LineNumber: 3, Snippet: "NSURLComponents(URL: url)", Description: "NSURLComponents is immutable"},
				{RuleID: "MIG012", LineNumber: 3, Snippet: "s.stringByRemovingPercentEncoding", Description: "not renamed"},
			},
		},
		{SourcePath: "App/Clean.swift", Findings: []core.Finding{}},
		{
			SourcePath: "App/Flags.swift",
			Findings: []core.Finding{
				{RuleID: core.StructuralWarningID, LineNumber: 9, Snippet: "#else", Description: "#else without matching #if"},
			},
		},
	}
}

func newRepository(t *testing.T, reports []core.Report) core.ReportRepository {
	t.Helper()
	repository := repositories.NewInMemoryReportRepository()
	require.NoError(t, repository.Store(reports))
	return repository
}

func TestTextReporter(t *testing.T) {
	var out bytes.Buffer

	err := TextReporter{Writer: &out, Headers: true}.Report(newRepository(t, sampleReports()))

	require.NoError(t, err)
	assert.Equal(t, "# App/Net.swift\n"+
		"3: [MIG011] NSURLComponents is immutable\n"+
		"3: [MIG012] not renamed\n"+
		"# App/Flags.swift\n"+
		"9: [STRUCTURAL] #else without matching #if\n", out.String())
}

func TestTextReporterWithoutHeaders(t *testing.T) {
	var out bytes.Buffer

	err := TextReporter{Writer: &out}.Report(newRepository(t, sampleReports()))

	require.NoError(t, err)
	assert.Equal(t, "3: [MIG011] NSURLComponents is immutable\n"+
		"3: [MIG012] not renamed\n"+
		"9: [STRUCTURAL] #else without matching #if\n", out.String())
}

func TestTextReporterWithoutPath(t *testing.T) {
	var out bytes.Buffer
	reports := []core.Report{{Findings: []core.Finding{{RuleID: "MIG005", LineNumber: 1, Description: "static var"}}}}

	require.NoError(t, TextReporter{Writer: &out, Headers: true}.Report(newRepository(t, reports)))

	assert.Equal(t, "1: [MIG005] static var\n", out.String())
}

func TestJsonReporter(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, JsonReporter{Writer: &out}.Report(newRepository(t, sampleReports())))

	var records []FindingRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, FindingRecord{
		Path:        "App/Net.swift",
		LineNumber:  3,
		RuleID:      "MIG011",
		Description: "NSURLComponents is immutable",
		Snippet:     "NSURLComponents(URL: url)",
	}, records[0])
	assert.Equal(t, "MIG012", records[1].RuleID)
	assert.Equal(t, "App/Flags.swift", records[2].Path)
}

func TestJsonReporterEmitsEmptyList(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, JsonReporter{Writer: &out}.Report(newRepository(t, nil)))

	assert.JSONEq(t, "[]", out.String())
}

func TestSarifReporter(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	var out bytes.Buffer

	reporter := SarifReporter{Writer: &out, Catalog: c, ToolVersion: "1.2.3"}
	require.NoError(t, reporter.Report(newRepository(t, sampleReports())))

	report, err := sarif.FromBytes(out.Bytes())
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	assert.Equal(t, ToolName, run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, len(c.AllOpenRules())+1)
	require.Len(t, run.Results, 3)
	assert.Equal(t, "MIG011", *run.Results[0].RuleID)
	assert.Equal(t, "App/Net.swift", *run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, 3, *run.Results[0].Locations[0].PhysicalLocation.Region.StartLine)
	assert.Equal(t, "note", *run.Results[2].Level)
}

func TestXlsxReporter(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, XlsxReporter{OutputFile: output}.Report(newRepository(t, sampleReports())))

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(FindingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Path", "Line", "Rule", "Description", "Snippet"}, rows[0])
	assert.Equal(t, "MIG011", rows[1][2])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Rule", "Findings"},
		{"MIG011", "1"},
		{"MIG012", "1"},
		{core.StructuralWarningID, "1"},
	}, summary)
}

func TestCreateReporter(t *testing.T) {
	var out bytes.Buffer
	for _, format := range []string{"text", "json", "sarif", "xlsx"} {
		reporter, err := CreateReporter(format, Options{Writer: &out})
		assert.NoError(t, err, format)
		assert.NotNil(t, reporter, format)
	}

	_, err := CreateReporter("http", Options{})
	assert.Error(t, err)

	reporter, err := CreateReporter("http", Options{BaseURL: "https://collector"})
	assert.NoError(t, err)
	assert.IsType(t, HttpReporter{}, reporter)

	_, err = CreateReporter("csv", Options{})
	assert.Error(t, err)

	reporter, err = CreateReporter("text", Options{Writer: &out, Headers: true})
	require.NoError(t, err)
	assert.Equal(t, TextReporter{Writer: &out, Headers: true}, reporter)
}

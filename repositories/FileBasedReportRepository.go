package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/utils"
	log "github.com/sirupsen/logrus"
)

// FileBasedReportRepository writes every stored batch to its own JSON file.
type FileBasedReportRepository struct {
	path  string
	files []string
}

func NewFileBasedReportRepository(dir string) core.ReportRepository {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileBasedReportRepository{
		path:  dir,
		files: make([]string, 0),
	}
}

func (r *FileBasedReportRepository) Close() error {
	return r.Clear()
}

func (r *FileBasedReportRepository) Store(reports []core.Report) error {
	jsonData, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}

	filePath := path.Join(r.path, utils.GenerateRandomFilename("json"))
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return err
	}
	r.files = append(r.files, filePath)
	return nil
}

// Clear removes only the files this repository created.
func (r *FileBasedReportRepository) Clear() error {
	for _, filepath := range r.files {
		if err := os.Remove(filepath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	r.files = nil
	return nil
}

func (r *FileBasedReportRepository) NewIterator() core.ReportIterator {
	return &FileBasedReportIterator{
		Repository:  r,
		currentFile: 0,
	}
}

// FileBasedReportIterator loads one batch file per HasNext call.
type FileBasedReportIterator struct {
	Repository  *FileBasedReportRepository
	currentFile int
	reportSet   core.ReportSet
	loaded      bool
}

func (it *FileBasedReportIterator) HasNext() bool {
	for it.currentFile < len(it.Repository.files) {
		err := it.loadNextFile()
		if err != nil {
			log.Errorf("Error loading file %s: %v", it.Repository.files[it.currentFile], err)
			it.currentFile++
			continue
		}
		return true
	}
	return false
}

func (it *FileBasedReportIterator) Next() (core.ReportSet, error) {
	if !it.loaded {
		return core.ReportSet{}, fmt.Errorf("no more reports available")
	}
	return it.reportSet, nil
}

func (it *FileBasedReportIterator) Reset() error {
	it.currentFile = 0
	it.reportSet = core.ReportSet{}
	it.loaded = false
	return nil
}

func (it *FileBasedReportIterator) loadNextFile() error {
	filePath := it.Repository.files[it.currentFile]
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	var reports []core.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return fmt.Errorf("failed to parse JSON in file %s: %w", filePath, err)
	}

	it.reportSet = core.ReportSet{Reports: reports}
	it.loaded = true
	it.currentFile++
	return nil
}

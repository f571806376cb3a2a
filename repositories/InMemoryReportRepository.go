package repositories

import (
	"fmt"
	"sync"

	"github.com/reaandrew/migrationlint/core"
)

// InMemoryReportRepository keeps each stored batch in memory.
type InMemoryReportRepository struct {
	mu      sync.Mutex
	batches [][]core.Report
}

func NewInMemoryReportRepository() core.ReportRepository {
	return &InMemoryReportRepository{}
}

func (r *InMemoryReportRepository) Store(reports []core.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]core.Report(nil), reports...))
	return nil
}

func (r *InMemoryReportRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
	return nil
}

func (r *InMemoryReportRepository) Close() error {
	return nil
}

func (r *InMemoryReportRepository) NewIterator() core.ReportIterator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &InMemoryReportIterator{batches: append([][]core.Report(nil), r.batches...)}
}

type InMemoryReportIterator struct {
	batches  [][]core.Report
	position int
	current  []core.Report
	loaded   bool
}

func (it *InMemoryReportIterator) HasNext() bool {
	if it.position >= len(it.batches) {
		return false
	}
	it.current = it.batches[it.position]
	it.loaded = true
	it.position++
	return true
}

func (it *InMemoryReportIterator) Next() (core.ReportSet, error) {
	if !it.loaded {
		return core.ReportSet{}, fmt.Errorf("no more reports available")
	}
	return core.ReportSet{Reports: it.current}, nil
}

func (it *InMemoryReportIterator) Reset() error {
	it.position = 0
	it.current = nil
	it.loaded = false
	return nil
}

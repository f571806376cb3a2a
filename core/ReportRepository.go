package core

type ReportSet struct {
	Reports []Report `json:"reports"`
}

type ReportRepository interface {
	Store(reports []Report) error
	Clear() error
	NewIterator() ReportIterator
	Close() error
}

type ReportIterator interface {
	HasNext() bool
	Next() (ReportSet, error)
	Reset() error
}

type Reporter interface {
	Report(repository ReportRepository) error
}

// CollectReports drains an iterator into a single slice.
func CollectReports(repository ReportRepository) ([]Report, error) {
	var reports []Report
	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		reports = append(reports, set.Reports...)
	}
	return reports, nil
}

// RuleCounter is implemented by repositories that can aggregate stored
// findings per rule.
type RuleCounter interface {
	CountByRule() (map[string]int, error)
}

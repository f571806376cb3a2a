package core

// FileProcessor scans the content of a single file into a Report.
type FileProcessor interface {
	Supports(filePath string) bool

	Process(path string, content string) (Report, error)
}

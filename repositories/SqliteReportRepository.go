package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/utils"
	log "github.com/sirupsen/logrus"
)

var (
	errNoMoreBatches = errors.New("no more batches")
	errCorruptBatch  = errors.New("corrupt batch")
)

// SqliteReportRepository stores each batch as JSON and also flattens the
// findings into a Findings table so the database can be queried after the
// run.
type SqliteReportRepository struct {
	db *sql.DB
}

func NewSqliteReportRepository(dbPath string) (*SqliteReportRepository, error) {
	db, err := InitializeSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SqliteReportRepository{db: db}, nil
}

// InitializeSQLiteDB recreates the database at dbPath with an empty schema.
func InitializeSQLiteDB(dbPath string) (*sql.DB, error) {
	if err := utils.DeleteDatabaseFileIfExists(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	_, _ = db.Exec("PRAGMA synchronous = OFF;")

	schema := []string{
		`CREATE TABLE IF NOT EXISTS report_batches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			json_data TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS Findings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL,
			Path TEXT,
			LineNumber INTEGER,
			RuleID TEXT,
			Description TEXT,
			Snippet TEXT
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return db, nil
}

func (r *SqliteReportRepository) Store(reports []core.Report) (err error) {
	jsonData, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	result, err := tx.Exec(`INSERT INTO report_batches (json_data) VALUES (?)`, string(jsonData))
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	batchID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read batch id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO Findings (batch_id, Path, LineNumber, RuleID, Description, Snippet)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, report := range reports {
		for _, finding := range report.Findings {
			if _, err := stmt.Exec(batchID, report.SourcePath, finding.LineNumber, finding.RuleID, finding.Description, finding.Snippet); err != nil {
				return fmt.Errorf("failed to insert finding '%s' in %s: %w", finding.RuleID, report.SourcePath, err)
			}
		}
	}
	return nil
}

func (r *SqliteReportRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM Findings`); err != nil {
		return err
	}
	_, err := r.db.Exec(`DELETE FROM report_batches`)
	return err
}

func (r *SqliteReportRepository) Close() error {
	return r.db.Close()
}

// CountByRule returns the number of stored findings per rule id.
func (r *SqliteReportRepository) CountByRule() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT RuleID, COUNT(*) FROM Findings GROUP BY RuleID`)
	if err != nil {
		return nil, fmt.Errorf("failed to count findings: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ruleID string
		var count int
		if err := rows.Scan(&ruleID, &count); err != nil {
			return nil, err
		}
		counts[ruleID] = count
	}
	return counts, rows.Err()
}

func (r *SqliteReportRepository) NewIterator() core.ReportIterator {
	return &SqliteReportIterator{repo: r}
}

// SqliteReportIterator walks report_batches in id order.
type SqliteReportIterator struct {
	repo       *SqliteReportRepository
	currentID  int64
	currentSet core.ReportSet
	loaded     bool
}

func (it *SqliteReportIterator) HasNext() bool {
	for {
		err := it.loadNextBatch()
		if err == nil {
			return true
		}
		if errors.Is(err, errCorruptBatch) {
			log.Errorf("Skipping batch %d: %v", it.currentID, err)
			continue
		}
		if !errors.Is(err, errNoMoreBatches) {
			log.Errorf("Error loading batch after id %d: %v", it.currentID, err)
		}
		return false
	}
}

func (it *SqliteReportIterator) Next() (core.ReportSet, error) {
	if !it.loaded {
		return core.ReportSet{}, fmt.Errorf("no more reports available")
	}
	return it.currentSet, nil
}

func (it *SqliteReportIterator) Reset() error {
	it.currentID = 0
	it.currentSet = core.ReportSet{}
	it.loaded = false
	return nil
}

// loadNextBatch always advances currentID so a corrupt row is skipped.
func (it *SqliteReportIterator) loadNextBatch() error {
	row := it.repo.db.QueryRow(`
		SELECT id, json_data
		FROM report_batches
		WHERE id > ?
		ORDER BY id ASC
		LIMIT 1
	`, it.currentID)

	var id int64
	var jsonData string
	if err := row.Scan(&id, &jsonData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errNoMoreBatches
		}
		return err
	}
	it.currentID = id

	var reports []core.Report
	if err := json.Unmarshal([]byte(jsonData), &reports); err != nil {
		return fmt.Errorf("%w: failed to parse JSON for row %d: %v", errCorruptBatch, id, err)
	}

	it.currentSet = core.ReportSet{Reports: reports}
	it.loaded = true
	return nil
}

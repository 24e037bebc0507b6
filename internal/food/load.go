package food

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"foodwaste/internal/ingest"
	"foodwaste/internal/model"
)

// Load run statuses.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunError   = "error"
)

// ErrNoSource is recorded for a table whose CSV file was not found.
var ErrNoSource = errors.New("no source file found")

// LoadResult describes the load of one table.
type LoadResult struct {
	RunID      string
	Table      string
	Source     string
	Rows       int
	Duplicates int
	NullDates  int
	Err        error
}

// LoadSummary collects the per-table results of one load.
type LoadSummary struct {
	Tables       []LoadResult
	OrphanClaims int
}

// Failed returns the tables that did not load.
func (s *LoadSummary) Failed() []LoadResult {
	var failed []LoadResult
	for _, r := range s.Tables {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// LoadDir discovers the CSV sources in dir and loads them. A table whose
// source is missing or ambiguous fails on its own.
func (s *FoodService) LoadDir(dir string, patterns ingest.Patterns) (*LoadSummary, error) {
	sources, err := ingest.Discover(dir, patterns)
	if err != nil {
		return nil, err
	}
	return s.Load(sources)
}

// Load replaces each table with the contents of its source file, in the
// order providers, receivers, food listings, claims. A failure affects only
// its own table; the remaining tables still load. The returned error is
// reserved for failures outside any single table.
func (s *FoodService) Load(sources ingest.Sources) (*LoadSummary, error) {
	summary := &LoadSummary{}

	for _, table := range ingest.Tables {
		result := s.loadTable(table, sources[table])
		summary.Tables = append(summary.Tables, result)
	}

	orphans, err := s.store.CountOrphanClaims()
	if err != nil {
		return summary, fmt.Errorf("checking claim references: %w", err)
	}
	summary.OrphanClaims = orphans
	if orphans > 0 {
		s.logger.Warn("claims reference missing food listings", "count", orphans)
	}
	return summary, nil
}

func (s *FoodService) loadTable(table string, src ingest.Source) LoadResult {
	source := src.Path
	result := LoadResult{RunID: s.idgen.New(), Table: table, Source: source}

	run := &model.LoadRun{
		ID:        result.RunID,
		TableName: table,
		Source:    sourceName(source),
		StartedAt: s.clock.Now(),
		Status:    RunRunning,
	}
	if err := s.store.CreateLoadRun(run); err != nil {
		s.logger.Warn("could not record load run", "table", table, "error", err)
	}

	if src.Err != nil {
		result.Err = src.Err
	} else {
		result.Rows, result.Duplicates, result.NullDates, result.Err = s.replaceFromFile(table, source)
	}

	status, errMsg := RunSuccess, ""
	if result.Err != nil {
		status, errMsg = RunError, result.Err.Error()
		s.logger.Error("table load failed", "table", table, "source", source, "error", result.Err)
	} else {
		s.logger.Info("table loaded", "table", table, "rows", result.Rows, "source", source)
	}
	if result.Duplicates > 0 {
		s.logger.Warn("duplicate rows skipped", "table", table, "count", result.Duplicates)
	}
	if result.NullDates > 0 {
		s.logger.Warn("unparseable dates stored as null", "table", table, "count", result.NullDates)
	}

	if err := s.store.FinishLoadRun(run.ID, result.Rows, status, errMsg, s.clock.Now()); err != nil {
		s.logger.Warn("could not finish load run", "table", table, "error", err)
	}
	return result
}

func (s *FoodService) replaceFromFile(table, source string) (rows, dups, nulls int, err error) {
	if source == "" {
		return 0, 0, 0, ErrNoSource
	}
	f, err := os.Open(source)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	stats, n, err := s.replace(table, f)
	return n, stats.Duplicates, stats.NullDates, err
}

func (s *FoodService) replace(table string, r io.Reader) (ingest.Stats, int, error) {
	switch table {
	case ingest.TableProviders:
		rows, stats, err := ingest.ParseProviders(r)
		if err != nil {
			return stats, 0, err
		}
		n, err := s.store.ReplaceProviders(rows)
		return stats, n, err
	case ingest.TableReceivers:
		rows, stats, err := ingest.ParseReceivers(r)
		if err != nil {
			return stats, 0, err
		}
		n, err := s.store.ReplaceReceivers(rows)
		return stats, n, err
	case ingest.TableFoodListings:
		rows, stats, err := ingest.ParseFoodListings(r)
		if err != nil {
			return stats, 0, err
		}
		n, err := s.store.ReplaceFoodListings(rows)
		return stats, n, err
	case ingest.TableClaims:
		rows, stats, err := ingest.ParseClaims(r)
		if err != nil {
			return stats, 0, err
		}
		n, err := s.store.ReplaceClaims(rows)
		return stats, n, err
	default:
		return ingest.Stats{}, 0, fmt.Errorf("unknown table: %s", table)
	}
}

func sourceName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// LoadHistory returns the most recent load runs, newest first.
func (s *FoodService) LoadHistory(limit int) ([]*model.LoadRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs, err := s.store.ListLoadRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing load history: %w", err)
	}
	return runs, nil
}

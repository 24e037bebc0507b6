// Package ingest parses the four CSV sources (providers, receivers, food
// listings, claims) into model records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Stats describes one parsed source.
type Stats struct {
	Rows       int // records returned
	Duplicates int // exact duplicate records skipped
	NullDates  int // date cells that could not be parsed
}

// ErrEmptySource is returned for a source without a header row.
var ErrEmptySource = errors.New("csv source is empty")

// record is one data row with header-based access.
type record struct {
	line   int
	fields []string
	index  map[string]int
}

func (r record) get(col string) string {
	if i, ok := r.index[col]; ok && i < len(r.fields) {
		return strings.TrimSpace(r.fields[i])
	}
	return ""
}

func (r record) int64(col string) (int64, error) {
	v := r.get(col)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Numeric columns exported through spreadsheets often carry ".0".
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("line %d: %s: invalid integer %q", r.line, col, v)
		}
		n = int64(f)
	}
	return n, nil
}

// readRecords decodes a CSV stream, checks the required headers and calls
// fn for every distinct data row. Exact duplicate rows are counted and
// skipped.
func readRecords(r io.Reader, required []string, fn func(record) error) (Stats, error) {
	var stats Stats

	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return stats, ErrEmptySource
	}
	if err != nil {
		return stats, fmt.Errorf("reading csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return stats, fmt.Errorf("required column %q missing from header", col)
		}
	}

	seen := make(map[string]struct{})
	line := 1
	for {
		fields, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(fields) {
			continue
		}

		key := strings.Join(fields, "\x1f")
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		if err := fn(record{line: line, fields: fields, index: index}); err != nil {
			return stats, err
		}
		stats.Rows++
	}

	return stats, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Table names in the store, in load order.
const (
	TableProviders    = "providers"
	TableReceivers    = "receivers"
	TableFoodListings = "food_listings"
	TableClaims       = "claims"
)

// Tables lists the four tables in the order they are loaded.
var Tables = []string{TableProviders, TableReceivers, TableFoodListings, TableClaims}

// Patterns holds one filename glob per table. Matching is case-insensitive
// and against the basename only.
type Patterns map[string]string

// DefaultPatterns match both "Food Listings.csv" and "food_listings_data.csv" style names.
func DefaultPatterns() Patterns {
	return Patterns{
		TableProviders:    "providers*.csv",
		TableReceivers:    "receivers*.csv",
		TableFoodListings: "food[ _]listings*.csv",
		TableClaims:       "claims*.csv",
	}
}

// ErrAmbiguousSource is recorded for a table matched by more than one file.
var ErrAmbiguousSource = errors.New("ambiguous source")

// Source is the discovered input of one table. Err is set instead of Path
// when the table's file could not be chosen.
type Source struct {
	Path string
	Err  error
}

// Sources maps table name to its discovered source.
// A table without a matching file has no entry.
type Sources map[string]Source

// Discover finds the source file for each table in dir. Tables without a
// match are left out. A table matched by several files gets an entry
// carrying ErrAmbiguousSource so that the other tables can still load.
// The returned error covers only an unreadable directory or a bad pattern.
func Discover(dir string, patterns Patterns) (Sources, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sources := Sources{}
	for _, table := range Tables {
		pattern := strings.ToLower(strings.TrimSpace(patterns[table]))
		if pattern == "" {
			continue
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q for %s: %w", patterns[table], table, err)
		}

		var matches []string
		for _, name := range names {
			if ok, _ := filepath.Match(pattern, strings.ToLower(name)); ok {
				matches = append(matches, name)
			}
		}

		switch len(matches) {
		case 0:
		case 1:
			sources[table] = Source{Path: filepath.Join(dir, matches[0])}
		default:
			sources[table] = Source{Err: fmt.Errorf("%w for %s: %s", ErrAmbiguousSource, table, strings.Join(matches, ", "))}
		}
	}

	return sources, nil
}

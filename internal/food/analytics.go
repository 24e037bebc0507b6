package food

import (
	"fmt"

	"foodwaste/internal/model"
	"foodwaste/internal/query"
)

// QueryResult pairs a catalog entry with its result.
type QueryResult struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Table *model.Table `json:"table,omitempty"`
	Error string       `json:"error,omitempty"`
}

// Catalog lists the queries available for this store.
func (s *FoodService) Catalog() []query.Descriptor {
	return query.Available(s.store.Capabilities())
}

// RunQuery runs the catalog query id with the given filter values.
func (s *FoodService) RunQuery(id string, filters map[string]string) (*model.Table, error) {
	d, ok := query.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuery, id)
	}
	if !d.Available(s.store.Capabilities()) {
		return nil, fmt.Errorf("%w: %s", ErrQueryUnavailable, id)
	}

	table, err := s.store.Query(d.SQL, d.Bind(filters))
	if err != nil {
		return nil, fmt.Errorf("running query %s: %w", id, err)
	}
	s.logger.Debug("query run", "id", id, "rows", table.Len())
	return table, nil
}

// RunAll runs every available query. A failing query is reported in its
// result and does not stop the others.
func (s *FoodService) RunAll(filters map[string]string) []QueryResult {
	catalog := s.Catalog()
	results := make([]QueryResult, 0, len(catalog))
	for _, d := range catalog {
		r := QueryResult{ID: d.ID, Title: d.Title}
		table, err := s.RunQuery(d.ID, filters)
		if err != nil {
			s.logger.Error("query failed", "id", d.ID, "error", err)
			r.Error = err.Error()
		} else {
			r.Table = table
		}
		results = append(results, r)
	}
	return results
}

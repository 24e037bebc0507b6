package food

import (
	"bytes"
	"fmt"

	"foodwaste/internal/report"
)

// ReportOptions controls WriteReports.
type ReportOptions struct {
	TopLocations int  // rows in the top locations report; 0 means 5
	CSV          bool // write the top locations and categories CSVs
	XLSX         bool // write the workbook
}

// Summary computes the headline metrics at the current time.
func (s *FoodService) Summary() (*report.Summary, error) {
	listings, err := s.store.FindFoodListings("")
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}
	summary := report.Summarize(listings, s.clock.Now())
	return &summary, nil
}

// WriteReports regenerates the report files in the sink, overwriting
// earlier ones. It returns the sink locations written.
func (s *FoodService) WriteReports(opts ReportOptions) ([]string, error) {
	if !opts.CSV && !opts.XLSX {
		return nil, fmt.Errorf("%w: no report format selected", ErrInvalidInput)
	}
	if opts.TopLocations <= 0 {
		opts.TopLocations = 5
	}

	listings, err := s.store.FindFoodListings("")
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}
	top := report.TopLocations(listings, opts.TopLocations)
	categories := report.CategoryDistribution(listings)

	var written []string
	put := func(name string, buf *bytes.Buffer) error {
		if err := s.sink.Put(name, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, s.sink.Location(name))
		s.logger.Info("report written", "name", name, "bytes", buf.Len())
		return nil
	}

	var buf bytes.Buffer
	if opts.CSV {
		if err := report.WriteCSV(&buf, report.TopLocationsHeader, top); err != nil {
			return nil, err
		}
		if err := put(report.TopLocationsFile, &buf); err != nil {
			return written, err
		}

		buf.Reset()
		if err := report.WriteCSV(&buf, report.CategoriesHeader, categories); err != nil {
			return written, err
		}
		if err := put(report.CategoriesFile, &buf); err != nil {
			return written, err
		}
	}

	if opts.XLSX {
		buf.Reset()
		summary := report.Summarize(listings, s.clock.Now())
		if err := report.WriteXLSX(&buf, summary, top, categories); err != nil {
			return written, err
		}
		if err := put(report.WorkbookFile, &buf); err != nil {
			return written, err
		}
	}
	return written, nil
}

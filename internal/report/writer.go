package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Report file names.
const (
	TopLocationsFile = "Top Surplus Locations.csv"
	CategoriesFile   = "Category Distribution.csv"
	WorkbookFile     = "Food Wastage Report.xlsx"
)

// Header row of each CSV report.
var (
	TopLocationsHeader = [2]string{"Location", "Quantity"}
	CategoriesHeader   = [2]string{"Food_Type", "Quantity"}
)

// WriteCSV writes rows under a two-column header.
func WriteCSV(w io.Writer, header [2]string, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header[:]); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Key, strconv.Itoa(r.Quantity)}); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

const (
	summarySheet   = "Summary"
	locationsSheet = "Top Locations"
	categorySheet  = "Categories"
)

// WriteXLSX writes a workbook with the summary and both reports.
func WriteXLSX(w io.Writer, s Summary, top, categories []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)

	summaryRows := [][]any{
		{"Metric", "Value"},
		{"Generated At", s.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Total Food Quantity", s.TotalQuantity},
		{"Total Food Categories", s.FoodTypes},
		{"Expired Items", s.ExpiredQuantity},
		{"Soon-to-Expire Items (0-3 days)", s.ExpiringSoonQuantity},
		{"Listings Without Expiry", s.UndatedListings},
		{},
		{"Expiry Range", "Quantity"},
	}
	for _, b := range s.Buckets {
		summaryRows = append(summaryRows, []any{string(b.Bucket), b.Quantity})
	}
	if err := writeSheet(f, summarySheet, summaryRows); err != nil {
		return err
	}

	for _, sheet := range []struct {
		name   string
		header [2]string
		rows   []Row
	}{
		{locationsSheet, TopLocationsHeader, top},
		{categorySheet, CategoriesHeader, categories},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet.name, err)
		}
		data := [][]any{{sheet.header[0], sheet.header[1]}}
		for _, r := range sheet.rows {
			data = append(data, []any{r.Key, r.Quantity})
		}
		if err := writeSheet(f, sheet.name, data); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"foodwaste/internal/model"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func intp(i int) *int { return &i }

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name   string
		days   *int
		want   Bucket
		wantOK bool
	}{
		{"expired", intp(-1), BucketExpired, true},
		{"today", intp(0), Bucket0To3, true},
		{"three days", intp(3), Bucket0To3, true},
		{"four days", intp(4), Bucket4To7, true},
		{"seven days", intp(7), Bucket4To7, true},
		{"eight days", intp(8), Bucket8To30, true},
		{"thirty days", intp(30), Bucket8To30, true},
		{"thirty one days", intp(31), BucketOver30, true},
		{"no date", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BucketFor(tt.days)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("BucketFor() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDaysToExpire(t *testing.T) {
	at := func(d time.Duration) *time.Time {
		ts := now.Add(d)
		return &ts
	}
	tests := []struct {
		name   string
		expiry *time.Time
		want   *int
	}{
		{"nil", nil, nil},
		{"later today", at(6 * time.Hour), intp(0)},
		{"earlier today", at(-6 * time.Hour), intp(-1)},
		{"exactly two days", at(48 * time.Hour), intp(2)},
		{"just under three days", at(72*time.Hour - time.Second), intp(2)},
		{"ten days ago", at(-240 * time.Hour), intp(-10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysToExpire(tt.expiry, now)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("DaysToExpire() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("DaysToExpire() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func fixture() []*model.FoodListing {
	d := func(days int) *time.Time {
		ts := now.AddDate(0, 0, days)
		return &ts
	}
	return []*model.FoodListing{
		{ID: 1, Quantity: 10, Location: "Austin", FoodType: "Vegan", ExpiryDate: d(-2)},
		{ID: 2, Quantity: 20, Location: "Boston", FoodType: "Vegetarian", ExpiryDate: d(1)},
		{ID: 3, Quantity: 5, Location: "Austin", FoodType: "Vegan", ExpiryDate: d(5)},
		{ID: 4, Quantity: 15, Location: "Chicago", FoodType: "Non-Vegetarian", ExpiryDate: d(45)},
		{ID: 5, Quantity: 7, Location: "Denver", FoodType: "Vegan", ExpiryDate: nil},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture(), now)

	if s.TotalQuantity != 57 {
		t.Errorf("TotalQuantity = %d, want 57", s.TotalQuantity)
	}
	if s.FoodTypes != 3 {
		t.Errorf("FoodTypes = %d, want 3", s.FoodTypes)
	}
	if s.ExpiredQuantity != 10 {
		t.Errorf("ExpiredQuantity = %d, want 10", s.ExpiredQuantity)
	}
	if s.ExpiringSoonQuantity != 20 {
		t.Errorf("ExpiringSoonQuantity = %d, want 20", s.ExpiringSoonQuantity)
	}
	if s.UndatedListings != 1 {
		t.Errorf("UndatedListings = %d, want 1", s.UndatedListings)
	}

	want := []BucketTotal{
		{BucketExpired, 10}, {Bucket0To3, 20}, {Bucket4To7, 5}, {Bucket8To30, 0}, {BucketOver30, 15},
	}
	if len(s.Buckets) != len(want) {
		t.Fatalf("len(Buckets) = %d, want %d", len(s.Buckets), len(want))
	}
	for i := range want {
		if s.Buckets[i] != want[i] {
			t.Errorf("Buckets[%d] = %+v, want %+v", i, s.Buckets[i], want[i])
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, now)
	if s.TotalQuantity != 0 || s.FoodTypes != 0 || len(s.Buckets) != len(Buckets) {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}

func TestTopLocations(t *testing.T) {
	listings := fixture()
	listings = append(listings,
		&model.FoodListing{Quantity: 15, Location: "Albany"},
		&model.FoodListing{Quantity: 1, Location: "Eugene"},
	)

	got := TopLocations(listings, 5)
	want := []Row{{"Boston", 20}, {"Albany", 15}, {"Austin", 15}, {"Chicago", 15}, {"Denver", 7}}
	if len(got) != len(want) {
		t.Fatalf("TopLocations() returned %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopLocations()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if all := TopLocations(listings, 0); len(all) != 6 {
		t.Errorf("TopLocations(0) returned %d rows, want 6", len(all))
	}
}

func TestCategoryDistribution(t *testing.T) {
	got := CategoryDistribution(fixture())
	want := []Row{{"Vegan", 22}, {"Vegetarian", 20}, {"Non-Vegetarian", 15}}
	if len(got) != len(want) {
		t.Fatalf("CategoryDistribution() returned %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CategoryDistribution()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{{"New Jessica", 60}, {"Port, Carl", 3}}
	if err := WriteCSV(&buf, TopLocationsHeader, rows); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := "Location,Quantity\nNew Jessica,60\n\"Port, Carl\",3\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", buf.String(), want)
	}
}

func TestWriteXLSX(t *testing.T) {
	listings := fixture()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Summarize(listings, now), TopLocations(listings, 5), CategoryDistribution(listings)); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != summarySheet {
		t.Errorf("GetSheetList() = %v", sheets)
	}
	v, err := f.GetCellValue(categorySheet, "A2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if v != "Vegan" {
		t.Errorf("Categories!A2 = %q, want Vegan", v)
	}
	total, _ := f.GetCellValue(summarySheet, "B3")
	if total != "57" {
		t.Errorf("Summary!B3 = %q, want 57", total)
	}
}

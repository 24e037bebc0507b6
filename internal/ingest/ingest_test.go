package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso date", "2025-03-17", "2025-03-17T00:00:00Z"},
		{"iso datetime", "2025-03-17 10:30:00", "2025-03-17T10:30:00Z"},
		{"us date", "3/17/2025", "2025-03-17T00:00:00Z"},
		{"us datetime", "3/5/2025 9:05", "2025-03-05T09:05:00Z"},
		{"padded", "  2025-03-17  ", "2025-03-17T00:00:00Z"},
		{"blank", "", ""},
		{"garbage", "not a date", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.in)
			if tt.want == "" {
				if got != nil {
					t.Errorf("ParseDate(%q) = %v, want nil", tt.in, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDate(%q) = nil, want %s", tt.in, tt.want)
			}
			if s := got.Format(time.RFC3339); s != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, s, tt.want)
			}
		})
	}
}

func TestParseFoodListings(t *testing.T) {
	in := "\ufeffFood_ID,Food_Name,Quantity,Expiry_Date,Provider_ID,Provider_Type,Location,Food_Type,Meal_Type\n" +
		"1,Bread,43,3/17/2025,110,Grocery Store,South Kellyville,Non-Vegetarian,Breakfast\n" +
		"2,Soup,22,soon,791,Restaurant,West James,Vegan,Dinner\n" +
		"1,Bread,43,3/17/2025,110,Grocery Store,South Kellyville,Non-Vegetarian,Breakfast\n" +
		"\n"

	rows, stats, err := ParseFoodListings(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseFoodListings() error = %v", err)
	}
	if len(rows) != 2 || stats.Rows != 2 {
		t.Fatalf("got %d rows (stats %d), want 2", len(rows), stats.Rows)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
	if stats.NullDates != 1 {
		t.Errorf("NullDates = %d, want 1", stats.NullDates)
	}

	first := rows[0]
	if first.ID != 1 || first.Name != "Bread" || first.Quantity != 43 || first.ProviderID != 110 {
		t.Errorf("unexpected first row %+v", first)
	}
	if first.ExpiryDate == nil || first.ExpiryDate.Format("2006-01-02") != "2025-03-17" {
		t.Errorf("ExpiryDate = %v, want 2025-03-17", first.ExpiryDate)
	}
	if rows[1].ExpiryDate != nil {
		t.Errorf("unparseable expiry should be nil, got %v", rows[1].ExpiryDate)
	}
}

func TestParseFoodListings_Errors(t *testing.T) {
	header := "Food_ID,Food_Name,Quantity,Expiry_Date,Provider_ID,Provider_Type,Location,Food_Type,Meal_Type\n"
	tests := []struct {
		name string
		in   string
	}{
		{"missing column", "Food_ID,Food_Name\n1,Bread\n"},
		{"bad quantity", header + "1,Bread,lots,2025-03-17,110,Grocery Store,X,Vegan,Lunch\n"},
		{"negative quantity", header + "1,Bread,-4,2025-03-17,110,Grocery Store,X,Vegan,Lunch\n"},
		{"bad id", header + "x,Bread,4,2025-03-17,110,Grocery Store,X,Vegan,Lunch\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseFoodListings(strings.NewReader(tt.in)); err == nil {
				t.Error("ParseFoodListings() expected error, got nil")
			}
		})
	}

	if _, _, err := ParseFoodListings(strings.NewReader("")); !errors.Is(err, ErrEmptySource) {
		t.Errorf("empty source error = %v, want ErrEmptySource", err)
	}
}

func TestParseProvidersAndReceivers(t *testing.T) {
	providers := "Provider_ID,Name,Type,Address,City,Contact\n" +
		"1,\"Gonzales, Inc\",Supermarket,\"74347 Christopher Extensions\",New Jessica,+1-600-220-0480\n" +
		"2.0,Nielsen Group,Restaurant,\"91228 Hanson Stream\",East Sheena,(837)535-9898\n"
	ps, _, err := ParseProviders(strings.NewReader(providers))
	if err != nil {
		t.Fatalf("ParseProviders() error = %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d providers, want 2", len(ps))
	}
	if ps[0].Name != "Gonzales, Inc" || ps[0].City != "New Jessica" || ps[0].Type != "Supermarket" {
		t.Errorf("unexpected provider %+v", ps[0])
	}
	if ps[1].ID != 2 {
		t.Errorf("float-formatted id parsed as %d, want 2", ps[1].ID)
	}

	receivers := "Receiver_ID,Name,Type,City,Contact\n1,Donald Gomez,Shelter,Port Carlburgh,(955)922-5295\n"
	rs, _, err := ParseReceivers(strings.NewReader(receivers))
	if err != nil {
		t.Fatalf("ParseReceivers() error = %v", err)
	}
	if len(rs) != 1 || rs[0].Type != "Shelter" {
		t.Errorf("unexpected receivers %+v", rs)
	}
}

func TestParseClaims(t *testing.T) {
	in := "Claim_ID,Food_ID,Receiver_ID,Status,Timestamp\n" +
		"1,164,908,Pending,3/5/2025 5:26\n" +
		"2,353,391,Cancelled,\n"
	rows, stats, err := ParseClaims(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d claims, want 2", len(rows))
	}
	if rows[0].Timestamp == nil || rows[0].Status != "Pending" {
		t.Errorf("unexpected claim %+v", rows[0])
	}
	if stats.NullDates != 1 {
		t.Errorf("NullDates = %d, want 1", stats.NullDates)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Providers.csv", "Receivers.csv", "Food Listings.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sources, err := Discover(dir, DefaultPatterns())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got := sources[TableFoodListings].Path; got != filepath.Join(dir, "Food Listings.csv") {
		t.Errorf("food listings source = %q", got)
	}
	if got := sources[TableProviders].Path; got != filepath.Join(dir, "Providers.csv") {
		t.Errorf("providers source = %q", got)
	}
	if _, ok := sources[TableClaims]; ok {
		t.Error("claims should be absent when no file matches")
	}
}

func TestDiscover_Ambiguous(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"claims.csv", "claims_2024.csv", "providers.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sources, err := Discover(dir, DefaultPatterns())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	claims := sources[TableClaims]
	if !errors.Is(claims.Err, ErrAmbiguousSource) {
		t.Errorf("claims source error = %v, want ErrAmbiguousSource", claims.Err)
	}
	if claims.Path != "" {
		t.Errorf("claims source path = %q, want empty", claims.Path)
	}
	if got := sources[TableProviders]; got.Err != nil || got.Path != filepath.Join(dir, "providers.csv") {
		t.Errorf("providers source = %+v", got)
	}
}

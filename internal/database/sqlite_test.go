package database

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"foodwaste/internal/food"
	"foodwaste/internal/model"
)

// newTestStore creates a new in-memory store with migrations applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	if _, err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return s
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func listing(id int64, location string, qty int) model.FoodListing {
	return model.FoodListing{
		ID:           id,
		Name:         "Bread",
		Quantity:     qty,
		ExpiryDate:   date(2025, 3, 17),
		ProviderID:   1,
		ProviderType: "Restaurant",
		Location:     location,
		FoodType:     "Vegetarian",
		MealType:     "Lunch",
	}
}

func TestSQLiteStore_ReplaceFoodListings(t *testing.T) {
	t.Run("replaces previous contents", func(t *testing.T) {
		s := newTestStore(t)

		if _, err := s.ReplaceFoodListings([]model.FoodListing{listing(1, "A", 1), listing(2, "B", 2)}); err != nil {
			t.Fatalf("ReplaceFoodListings() error = %v", err)
		}
		n, err := s.ReplaceFoodListings([]model.FoodListing{listing(3, "C", 3)})
		if err != nil {
			t.Fatalf("ReplaceFoodListings() error = %v", err)
		}
		if n != 1 {
			t.Errorf("ReplaceFoodListings() = %d, want 1", n)
		}

		got, err := s.FindFoodListings("")
		if err != nil {
			t.Fatalf("FindFoodListings() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != 3 {
			t.Errorf("FindFoodListings() = %+v, want only listing 3", got)
		}
	})

	t.Run("rolls back on duplicate id", func(t *testing.T) {
		s := newTestStore(t)

		if _, err := s.ReplaceFoodListings([]model.FoodListing{listing(1, "A", 1)}); err != nil {
			t.Fatalf("ReplaceFoodListings() error = %v", err)
		}
		_, err := s.ReplaceFoodListings([]model.FoodListing{listing(5, "A", 1), listing(5, "B", 2)})
		if !errors.Is(err, food.ErrDuplicateID) {
			t.Fatalf("ReplaceFoodListings() error = %v, want ErrDuplicateID", err)
		}

		got, err := s.FindFoodListings("")
		if err != nil {
			t.Fatalf("FindFoodListings() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != 1 {
			t.Errorf("previous contents not preserved: %+v", got)
		}
	})

	t.Run("round trips dates and nulls", func(t *testing.T) {
		s := newTestStore(t)

		noDate := listing(2, "A", 1)
		noDate.ExpiryDate = nil
		if _, err := s.ReplaceFoodListings([]model.FoodListing{listing(1, "A", 1), noDate}); err != nil {
			t.Fatalf("ReplaceFoodListings() error = %v", err)
		}

		got, err := s.FindFoodListings("A")
		if err != nil {
			t.Fatalf("FindFoodListings() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d listings, want 2", len(got))
		}
		if got[0].ExpiryDate == nil || !got[0].ExpiryDate.Equal(*date(2025, 3, 17)) {
			t.Errorf("ExpiryDate = %v, want 2025-03-17", got[0].ExpiryDate)
		}
		if got[1].ExpiryDate != nil {
			t.Errorf("ExpiryDate = %v, want nil", got[1].ExpiryDate)
		}
	})
}

func TestSQLiteStore_FoodListingCRUD(t *testing.T) {
	s := newTestStore(t)

	l := listing(2001, "New Jessica", 50)
	if err := s.CreateFoodListing(&l); err != nil {
		t.Fatalf("CreateFoodListing() error = %v", err)
	}

	if err := s.CreateFoodListing(&l); !errors.Is(err, food.ErrDuplicateID) {
		t.Errorf("CreateFoodListing() duplicate error = %v, want ErrDuplicateID", err)
	}

	neg := listing(2002, "New Jessica", -1)
	if err := s.CreateFoodListing(&neg); !errors.Is(err, food.ErrInvalidInput) {
		t.Errorf("CreateFoodListing() negative quantity error = %v, want ErrInvalidInput", err)
	}

	if err := s.UpdateFoodListingQuantity(2001, 60); err != nil {
		t.Fatalf("UpdateFoodListingQuantity() error = %v", err)
	}
	got, err := s.FindFoodListings("New Jessica")
	if err != nil {
		t.Fatalf("FindFoodListings() error = %v", err)
	}
	if len(got) != 1 || got[0].Quantity != 60 {
		t.Fatalf("FindFoodListings() = %+v, want one row with quantity 60", got)
	}

	if got, _ := s.FindFoodListings("new jessica"); len(got) != 0 {
		t.Errorf("location match should be case-sensitive, got %d rows", len(got))
	}

	if err := s.UpdateFoodListingQuantity(9999, 1); !errors.Is(err, food.ErrNotFound) {
		t.Errorf("UpdateFoodListingQuantity() missing error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteFoodListing(2001); err != nil {
		t.Fatalf("DeleteFoodListing() error = %v", err)
	}
	if err := s.DeleteFoodListing(2001); !errors.Is(err, food.ErrNotFound) {
		t.Errorf("DeleteFoodListing() second delete error = %v, want ErrNotFound", err)
	}
	got, _ = s.FindFoodListings("New Jessica")
	if len(got) != 0 {
		t.Errorf("FindFoodListings() after delete = %d rows, want 0", len(got))
	}
}

func TestSQLiteStore_Providers(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ReplaceProviders([]model.Provider{{ID: 10, Name: "Gonzales", City: "Lake"}}); err != nil {
		t.Fatalf("ReplaceProviders() error = %v", err)
	}

	id, err := s.CreateProvider(&model.Provider{Name: "New Co", City: "Lake", Contact: "555"})
	if err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	if id != 11 {
		t.Errorf("CreateProvider() id = %d, want 11", id)
	}

	if _, err := s.CreateProvider(&model.Provider{ID: 10, Name: "Clash"}); !errors.Is(err, food.ErrDuplicateID) {
		t.Errorf("CreateProvider() duplicate error = %v, want ErrDuplicateID", err)
	}

	if err := s.UpdateProviderContact(id, "777"); err != nil {
		t.Fatalf("UpdateProviderContact() error = %v", err)
	}
	table, err := s.Query("SELECT Contact FROM providers WHERE Provider_ID = :id", map[string]any{"id": id})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if table.Len() != 1 || table.Rows[0][0] != "777" {
		t.Errorf("contact = %v, want 777", table.Rows)
	}

	if err := s.UpdateProviderContact(404, "x"); !errors.Is(err, food.ErrNotFound) {
		t.Errorf("UpdateProviderContact() error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteProvider(id); err != nil {
		t.Fatalf("DeleteProvider() error = %v", err)
	}
	if err := s.DeleteProvider(id); !errors.Is(err, food.ErrNotFound) {
		t.Errorf("DeleteProvider() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_Query(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ReplaceFoodListings([]model.FoodListing{listing(1, "A", 5), listing(2, "A", 7), listing(3, "B", 1)}); err != nil {
		t.Fatalf("ReplaceFoodListings() error = %v", err)
	}

	table, err := s.Query(`
		SELECT Location, SUM(Quantity) AS Quantity FROM food_listings
		WHERE Location LIKE :loc ESCAPE '\'
		GROUP BY Location ORDER BY Location`, map[string]any{"loc": "%a%"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "Location" || table.Columns[1] != "Quantity" {
		t.Errorf("Columns = %v", table.Columns)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	if table.Rows[0][0] != "A" || table.Rows[0][1] != int64(12) {
		t.Errorf("row = %v, want [A 12]", table.Rows[0])
	}

	empty, err := s.Query("SELECT * FROM claims", nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if empty.Len() != 0 || empty.Rows == nil {
		t.Errorf("empty result = %+v, want zero non-nil rows", empty)
	}

	if _, err := s.Query("SELECT * FROM nope", nil); err == nil {
		t.Error("Query() expected error for missing table, got nil")
	}
}

func TestSQLiteStore_CountOrphanClaims(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ReplaceFoodListings([]model.FoodListing{listing(1, "A", 5)}); err != nil {
		t.Fatal(err)
	}
	claims := []model.Claim{
		{ID: 1, FoodID: 1, ReceiverID: 1, Status: model.ClaimCompleted},
		{ID: 2, FoodID: 99, ReceiverID: 1, Status: model.ClaimPending},
	}
	if _, err := s.ReplaceClaims(claims); err != nil {
		t.Fatalf("ReplaceClaims() error = %v", err)
	}

	n, err := s.CountOrphanClaims()
	if err != nil {
		t.Fatalf("CountOrphanClaims() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountOrphanClaims() = %d, want 1", n)
	}
}

func TestSQLiteStore_LoadRuns(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	for i, table := range []string{"providers", "claims"} {
		run := &model.LoadRun{ID: table + "-run", TableName: table, Source: table + ".csv", StartedAt: start.Add(time.Duration(i) * time.Minute), Status: "running"}
		if err := s.CreateLoadRun(run); err != nil {
			t.Fatalf("CreateLoadRun() error = %v", err)
		}
	}
	if err := s.FinishLoadRun("claims-run", 42, "error", "boom", start.Add(2*time.Minute)); err != nil {
		t.Fatalf("FinishLoadRun() error = %v", err)
	}

	runs, err := s.ListLoadRuns(10)
	if err != nil {
		t.Fatalf("ListLoadRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	latest := runs[0]
	if latest.ID != "claims-run" || latest.Rows != 42 || latest.Status != "error" || latest.Error != "boom" {
		t.Errorf("latest run = %+v", latest)
	}
	if latest.FinishedAt == nil {
		t.Error("FinishedAt = nil, want set")
	}
	if runs[1].FinishedAt != nil {
		t.Errorf("unfinished run FinishedAt = %v, want nil", runs[1].FinishedAt)
	}

	limited, err := s.ListLoadRuns(1)
	if err != nil {
		t.Fatalf("ListLoadRuns() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListLoadRuns(1) returned %d runs", len(limited))
	}
}

func TestSQLiteStore_BackupTo(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ReplaceFoodListings([]model.FoodListing{listing(1, "A", 5)}); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "backup.db")
	if err := s.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	restored, err := NewSQLiteStore(dest)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer restored.Close()

	if err := restored.CheckMigrations(); err != nil {
		t.Errorf("backup CheckMigrations() error = %v", err)
	}
	got, err := restored.FindFoodListings("")
	if err != nil {
		t.Fatalf("FindFoodListings() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("backup has %d listings, want 1", len(got))
	}
}

func TestSQLiteStore_Capabilities(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.Capabilities().ProviderType {
		t.Error("unmigrated store should report no provider type")
	}
	if _, err := s.db.Exec("CREATE TABLE providers (Provider_ID INTEGER PRIMARY KEY, Name TEXT, City TEXT, Contact TEXT)"); err != nil {
		t.Fatal(err)
	}
	if err := s.RefreshCapabilities(); err != nil {
		t.Fatal(err)
	}
	if s.Capabilities().ProviderType {
		t.Error("providers without Type column should report no provider type")
	}
}

func TestSQLiteStore_DumpSchema(t *testing.T) {
	s := newTestStore(t)

	schema, err := s.DumpSchema()
	if err != nil {
		t.Fatalf("DumpSchema() error = %v", err)
	}
	for _, want := range []string{"CREATE TABLE food_listings", "CREATE TABLE load_runs", "CREATE INDEX idx_claims_food_id"} {
		if !strings.Contains(schema, want) {
			t.Errorf("DumpSchema() missing %q", want)
		}
	}
	if strings.Contains(schema, "schema_migrations") {
		t.Error("DumpSchema() should exclude schema_migrations")
	}
}

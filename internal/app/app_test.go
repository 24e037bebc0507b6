package app

import (
	"os"
	"path/filepath"
	"testing"

	"foodwaste/internal/config"
	"foodwaste/internal/report"
	"foodwaste/internal/testutil"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig(t.TempDir())
	cfg.Sources.Dir = testutil.WriteFixtures(t)
	cfg.Encryption.Type = "test"
	return cfg
}

func TestNewFoodApp_RequiresMigration(t *testing.T) {
	cfg := newTestConfig(t)

	if _, err := NewFoodApp(cfg, "load"); err == nil {
		t.Fatal("NewFoodApp() on unmigrated database: expected error")
	}

	version, err := Migrate(cfg)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if version != 2 {
		t.Errorf("Migrate() version = %d, want 2", version)
	}

	a, err := NewFoodApp(cfg, "load")
	if err != nil {
		t.Fatalf("NewFoodApp() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewFoodApp_InvalidConfig(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Reports.Sink.Type = "ftp"

	if _, err := NewFoodApp(cfg, "report"); err == nil {
		t.Fatal("NewFoodApp() with unknown sink type: expected error")
	}
}

func TestFoodApp_LoadAndReport(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Reports.Formats = []string{"csv", "xlsx"}
	if _, err := Migrate(cfg); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	a, err := NewFoodApp(cfg, "load")
	if err != nil {
		t.Fatalf("NewFoodApp() error = %v", err)
	}
	defer a.Close()

	summary, err := a.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if failed := summary.Failed(); len(failed) != 0 {
		t.Fatalf("Load() failed tables: %+v", failed)
	}

	runs, err := a.History(0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(runs) != 4 {
		t.Errorf("History() returned %d runs, want 4", len(runs))
	}

	written, err := a.WriteReports()
	if err != nil {
		t.Fatalf("WriteReports() error = %v", err)
	}
	if len(written) != 3 {
		t.Errorf("WriteReports() wrote %d files, want 3", len(written))
	}

	for _, name := range []string{report.TopLocationsFile, report.CategoriesFile, report.WorkbookFile} {
		if _, err := os.Stat(filepath.Join(cfg.Reports.Sink.Dir, name)); err != nil {
			t.Errorf("report %s not written: %v", name, err)
		}
	}

	if _, err := os.Stat(filepath.Join(cfg.LogDir, "foodwaste.log")); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestFoodApp_Patterns(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Database.Type = "memory"
	cfg.Sources.Claims = "claim_records.csv"
	cfg.Sources.Providers = ""

	a, err := NewFoodApp(cfg, "load")
	if err != nil {
		t.Fatalf("NewFoodApp() error = %v", err)
	}
	defer a.Close()

	p := a.patterns()
	if p["claims"] != "claim_records.csv" {
		t.Errorf("claims pattern = %q, want %q", p["claims"], "claim_records.csv")
	}
	if p["providers"] != "providers*.csv" {
		t.Errorf("providers pattern = %q, want default", p["providers"])
	}
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"foodwaste/internal/config"
	"foodwaste/internal/dashboard"
	"foodwaste/internal/database"
	"foodwaste/internal/encryption"
	"foodwaste/internal/food"
	"foodwaste/internal/ingest"
	"foodwaste/internal/model"
	"foodwaste/internal/query"
	"foodwaste/internal/report"
	"foodwaste/internal/sink"
)

// FoodApp is the application layer between the CLI and FoodService.
// It constructs all dependencies from config, exposes high-level operations
// and manages the store lifecycle on Close.
type FoodApp struct {
	cfg       *config.Config
	store     *database.SQLiteStore
	sink      food.Sink
	encryptor food.Encryptor
	service   *food.FoodService
	logger    *slog.Logger
	logFile   io.Closer
	operation string
	started   time.Time
}

// NewFoodApp creates a fully wired FoodApp from the given config.
// operation names the CLI command being run and is written to the log.
// The caller must call Close when done.
func NewFoodApp(cfg *config.Config, operation string) (*FoodApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date (run migrate): %w", err)
	}

	a, err := newFoodApp(cfg, store, operation)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func newFoodApp(cfg *config.Config, store *database.SQLiteStore, operation string) (*FoodApp, error) {
	s, err := sink.NewSinkFromConfig(context.Background(), cfg.Reports.Sink)
	if err != nil {
		return nil, fmt.Errorf("creating sink: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	started := time.Now()
	opID := started.UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := food.NewFoodService(store, s, enc, &slogAdapter{l: logger}, food.RealClock{}, food.UUIDGenerator{})
	logger.Debug("operation started", "operation", operation, "db", store.Path())

	return &FoodApp{
		cfg:       cfg,
		store:     store,
		sink:      s,
		encryptor: enc,
		service:   svc,
		logger:    logger,
		logFile:   logFile,
		operation: operation,
		started:   started,
	}, nil
}

// Migrate applies pending schema migrations to the configured database and
// returns the resulting schema version.
func Migrate(cfg *config.Config) (uint, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return 0, fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	version, err := store.Migrate()
	if err != nil {
		return 0, fmt.Errorf("migrating: %w", err)
	}
	return version, nil
}

// Schema returns the DDL of the configured database.
func (a *FoodApp) Schema() (string, error) {
	return a.store.DumpSchema()
}

// Load discovers the CSV sources in dir (the configured sources dir when
// empty) and replaces the four tables.
func (a *FoodApp) Load(dir string) (*food.LoadSummary, error) {
	if dir == "" {
		dir = a.cfg.Sources.Dir
	}
	return a.service.LoadDir(dir, a.patterns())
}

func (a *FoodApp) patterns() ingest.Patterns {
	p := ingest.DefaultPatterns()
	set := func(table, pattern string) {
		if pattern != "" {
			p[table] = pattern
		}
	}
	set(ingest.TableProviders, a.cfg.Sources.Providers)
	set(ingest.TableReceivers, a.cfg.Sources.Receivers)
	set(ingest.TableFoodListings, a.cfg.Sources.FoodListings)
	set(ingest.TableClaims, a.cfg.Sources.Claims)
	return p
}

// History returns the most recent load runs.
func (a *FoodApp) History(limit int) ([]*model.LoadRun, error) {
	return a.service.LoadHistory(limit)
}

// CreateListing inserts one food listing.
func (a *FoodApp) CreateListing(listing *model.FoodListing) error {
	return a.service.CreateListing(listing)
}

// ReadListings returns the listings located in city, or all of them.
func (a *FoodApp) ReadListings(city string) ([]*model.FoodListing, error) {
	return a.service.ReadListings(city)
}

// UpdateListingQuantity sets the quantity of one listing.
func (a *FoodApp) UpdateListingQuantity(foodID int64, quantity int) error {
	return a.service.UpdateListingQuantity(foodID, quantity)
}

// DeleteListing removes one listing.
func (a *FoodApp) DeleteListing(foodID int64) error {
	return a.service.DeleteListing(foodID)
}

// AddProvider inserts a provider and returns its ID.
func (a *FoodApp) AddProvider(p food.NewProvider) (int64, error) {
	return a.service.AddProvider(p)
}

// UpdateProviderContact sets the contact of one provider.
func (a *FoodApp) UpdateProviderContact(providerID int64, contact string) error {
	return a.service.UpdateProviderContact(providerID, contact)
}

// DeleteProvider removes one provider.
func (a *FoodApp) DeleteProvider(providerID int64) error {
	return a.service.DeleteProvider(providerID)
}

// ProviderContacts returns the filtered provider contact list.
func (a *FoodApp) ProviderContacts(f query.ContactFilter) (*model.Table, error) {
	return a.service.ProviderContacts(f)
}

// Queries lists the analytics queries available for the store.
func (a *FoodApp) Queries() []query.Descriptor {
	return a.service.Catalog()
}

// RunQuery runs one analytics query.
func (a *FoodApp) RunQuery(id string, filters map[string]string) (*model.Table, error) {
	return a.service.RunQuery(id, filters)
}

// Summary computes the headline metrics.
func (a *FoodApp) Summary() (*report.Summary, error) {
	return a.service.Summary()
}

// WriteReports regenerates the configured report formats and returns their
// locations.
func (a *FoodApp) WriteReports() ([]string, error) {
	return a.service.WriteReports(food.ReportOptions{
		TopLocations: a.cfg.Reports.TopLocations,
		CSV:          a.cfg.Reports.WantsFormat("csv"),
		XLSX:         a.cfg.Reports.WantsFormat("xlsx"),
	})
}

// InitKeys generates the snapshot key pair.
func (a *FoodApp) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("generating keys: %w", err)
	}
	a.logger.Info("snapshot keys generated", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// CreateSnapshot stores an encrypted copy of the database in the sink.
func (a *FoodApp) CreateSnapshot() (string, error) {
	return a.service.CreateSnapshot()
}

// ListSnapshots returns the stored snapshot names.
func (a *FoodApp) ListSnapshots() ([]string, error) {
	return a.service.ListSnapshots()
}

// RestoreSnapshot decrypts a snapshot to destPath.
func (a *FoodApp) RestoreSnapshot(name, passphrase, destPath string) error {
	return a.service.RestoreSnapshot(name, passphrase, destPath)
}

// Serve runs the dashboard on addr (the configured address when empty)
// until ctx is cancelled.
func (a *FoodApp) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Dashboard.Addr
	}
	srv := dashboard.NewServer(a.service, a.logger, dashboard.Options{
		AllowedOrigins: a.cfg.Dashboard.AllowedOrigins,
	})
	return srv.Run(ctx, addr)
}

// Close closes the store and the log file.
func (a *FoodApp) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	a.logger.Debug("operation finished", "operation", a.operation, "elapsed", time.Since(a.started).Truncate(time.Millisecond))
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

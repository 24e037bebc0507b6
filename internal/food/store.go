package food

import (
	"time"

	"foodwaste/internal/model"
)

// Store provides access to the relational data behind the service.
// Single-row mutations return an error wrapping ErrNotFound when no row
// matched and ErrDuplicateID when an identifier is already taken.
type Store interface {
	// Bulk load. Each call replaces the full contents of its table inside a
	// single transaction and returns the number of rows written.

	ReplaceProviders(rows []model.Provider) (int, error)
	ReplaceReceivers(rows []model.Receiver) (int, error)
	ReplaceFoodListings(rows []model.FoodListing) (int, error)
	ReplaceClaims(rows []model.Claim) (int, error)

	// Food listing operations

	// CreateFoodListing inserts one listing.
	CreateFoodListing(listing *model.FoodListing) error

	// FindFoodListings returns listings whose Location equals location
	// exactly, or every listing when location is empty. Ordered by Food_ID.
	FindFoodListings(location string) ([]*model.FoodListing, error)

	// UpdateFoodListingQuantity overwrites the quantity of one listing.
	UpdateFoodListingQuantity(foodID int64, quantity int) error

	// DeleteFoodListing removes one listing.
	DeleteFoodListing(foodID int64) error

	// CountOrphanClaims returns the number of claims whose Food_ID has no listing.
	CountOrphanClaims() (int, error)

	// Provider operations

	// CreateProvider inserts a provider and returns its assigned ID.
	CreateProvider(provider *model.Provider) (int64, error)

	// UpdateProviderContact overwrites the contact of one provider.
	UpdateProviderContact(providerID int64, contact string) error

	// DeleteProvider removes one provider.
	DeleteProvider(providerID int64) error

	// Queries

	// Capabilities returns the schema capabilities resolved at open time.
	Capabilities() model.Capabilities

	// Query runs a read-only statement with named parameters.
	Query(query string, args map[string]any) (*model.Table, error)

	// Load history

	CreateLoadRun(run *model.LoadRun) error
	FinishLoadRun(id string, rows int, status string, errMsg string, finishedAt time.Time) error
	ListLoadRuns(limit int) ([]*model.LoadRun, error)

	// BackupTo writes a consistent copy of the database to path.
	BackupTo(path string) error

	// Close closes the underlying connection.
	Close() error
}

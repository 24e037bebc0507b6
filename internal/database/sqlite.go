package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"foodwaste/internal/database/migrations"
	"foodwaste/internal/food"
	"foodwaste/internal/model"
)

// SQLiteStore implements food.Store on SQLite.
type SQLiteStore struct {
	db   *sqlx.DB
	path string
	caps model.Capabilities
}

var _ food.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path and resolves its capabilities.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLiteStoreFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.path = path
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing connection opened with OpenConnection.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: sqlx.NewDb(db, "sqlite3")}
	if err := s.resolveCapabilities(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenConnection opens and configures a SQLite database connection.
// The pool is limited to one connection so that every statement sees the
// same database, which also keeps ":memory:" usable.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// resolveCapabilities inspects the providers table once. A database without
// the table yet (before migration) reports no capabilities; RefreshCapabilities
// re-runs the check after migrating.
func (s *SQLiteStore) resolveCapabilities() error {
	rows, err := s.db.Queryx("PRAGMA table_info(providers)")
	if err != nil {
		return fmt.Errorf("inspecting providers table: %w", err)
	}
	defer rows.Close()

	caps := model.Capabilities{}
	for rows.Next() {
		cols, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("inspecting providers table: %w", err)
		}
		// cid, name, type, notnull, dflt_value, pk
		if len(cols) > 1 && strings.EqualFold(asString(cols[1]), "Type") {
			caps.ProviderType = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspecting providers table: %w", err)
	}
	s.caps = caps
	return nil
}

// RefreshCapabilities re-reads the schema capabilities.
func (s *SQLiteStore) RefreshCapabilities() error {
	return s.resolveCapabilities()
}

func (s *SQLiteStore) Capabilities() model.Capabilities {
	return s.caps
}

// Bulk load

func (s *SQLiteStore) ReplaceProviders(rows []model.Provider) (int, error) {
	return replaceTable(s, "providers", `
		INSERT INTO providers (Provider_ID, Name, Type, Address, City, Contact)
		VALUES (:Provider_ID, :Name, :Type, :Address, :City, :Contact)`, rows)
}

func (s *SQLiteStore) ReplaceReceivers(rows []model.Receiver) (int, error) {
	return replaceTable(s, "receivers", `
		INSERT INTO receivers (Receiver_ID, Name, Type, City, Contact)
		VALUES (:Receiver_ID, :Name, :Type, :City, :Contact)`, rows)
}

func (s *SQLiteStore) ReplaceFoodListings(rows []model.FoodListing) (int, error) {
	return replaceTable(s, "food_listings", insertFoodListing, rows)
}

func (s *SQLiteStore) ReplaceClaims(rows []model.Claim) (int, error) {
	return replaceTable(s, "claims", `
		INSERT INTO claims (Claim_ID, Food_ID, Receiver_ID, Status, Timestamp)
		VALUES (:Claim_ID, :Food_ID, :Receiver_ID, :Status, :Timestamp)`, rows)
}

// replaceTable empties table and inserts rows in one transaction. Any
// failure rolls back and leaves the previous contents in place.
func replaceTable[T any](s *SQLiteStore, table, insert string, rows []T) (int, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return 0, fmt.Errorf("clearing %s: %w", table, err)
	}

	stmt, err := tx.PrepareNamed(insert)
	if err != nil {
		return 0, fmt.Errorf("preparing insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.Exec(&rows[i]); err != nil {
			return 0, fmt.Errorf("inserting row %d into %s: %w", i+1, table, mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %s: %w", table, err)
	}
	return len(rows), nil
}

// Food listing operations

const insertFoodListing = `
	INSERT INTO food_listings (Food_ID, Food_Name, Quantity, Expiry_Date, Provider_ID, Provider_Type, Location, Food_Type, Meal_Type)
	VALUES (:Food_ID, :Food_Name, :Quantity, :Expiry_Date, :Provider_ID, :Provider_Type, :Location, :Food_Type, :Meal_Type)`

func (s *SQLiteStore) CreateFoodListing(listing *model.FoodListing) error {
	if _, err := s.db.NamedExec(insertFoodListing, listing); err != nil {
		return fmt.Errorf("creating food listing %d: %w", listing.ID, mapError(err))
	}
	return nil
}

func (s *SQLiteStore) FindFoodListings(location string) ([]*model.FoodListing, error) {
	var listings []*model.FoodListing
	var err error
	if location == "" {
		err = s.db.Select(&listings, "SELECT * FROM food_listings ORDER BY Food_ID")
	} else {
		err = s.db.Select(&listings, "SELECT * FROM food_listings WHERE Location = ? ORDER BY Food_ID", location)
	}
	if err != nil {
		return nil, fmt.Errorf("finding food listings: %w", err)
	}
	return listings, nil
}

func (s *SQLiteStore) UpdateFoodListingQuantity(foodID int64, quantity int) error {
	res, err := s.db.Exec("UPDATE food_listings SET Quantity = ? WHERE Food_ID = ?", quantity, foodID)
	if err != nil {
		return fmt.Errorf("updating food listing %d: %w", foodID, mapError(err))
	}
	return requireAffected(res, fmt.Sprintf("food listing %d", foodID))
}

func (s *SQLiteStore) DeleteFoodListing(foodID int64) error {
	res, err := s.db.Exec("DELETE FROM food_listings WHERE Food_ID = ?", foodID)
	if err != nil {
		return fmt.Errorf("deleting food listing %d: %w", foodID, err)
	}
	return requireAffected(res, fmt.Sprintf("food listing %d", foodID))
}

func (s *SQLiteStore) CountOrphanClaims() (int, error) {
	var n int
	err := s.db.Get(&n, `
		SELECT COUNT(*) FROM claims c
		WHERE NOT EXISTS (SELECT 1 FROM food_listings f WHERE f.Food_ID = c.Food_ID)`)
	if err != nil {
		return 0, fmt.Errorf("counting orphan claims: %w", err)
	}
	return n, nil
}

// Provider operations

func (s *SQLiteStore) CreateProvider(provider *model.Provider) (int64, error) {
	var res sql.Result
	var err error
	if provider.ID == 0 {
		res, err = s.db.NamedExec(`
			INSERT INTO providers (Name, Type, Address, City, Contact)
			VALUES (:Name, :Type, :Address, :City, :Contact)`, provider)
	} else {
		res, err = s.db.NamedExec(`
			INSERT INTO providers (Provider_ID, Name, Type, Address, City, Contact)
			VALUES (:Provider_ID, :Name, :Type, :Address, :City, :Contact)`, provider)
	}
	if err != nil {
		return 0, fmt.Errorf("creating provider: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading provider id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) UpdateProviderContact(providerID int64, contact string) error {
	res, err := s.db.Exec("UPDATE providers SET Contact = ? WHERE Provider_ID = ?", contact, providerID)
	if err != nil {
		return fmt.Errorf("updating provider %d: %w", providerID, err)
	}
	return requireAffected(res, fmt.Sprintf("provider %d", providerID))
}

func (s *SQLiteStore) DeleteProvider(providerID int64) error {
	res, err := s.db.Exec("DELETE FROM providers WHERE Provider_ID = ?", providerID)
	if err != nil {
		return fmt.Errorf("deleting provider %d: %w", providerID, err)
	}
	return requireAffected(res, fmt.Sprintf("provider %d", providerID))
}

// Queries

func (s *SQLiteStore) Query(query string, args map[string]any) (*model.Table, error) {
	if args == nil {
		args = map[string]any{}
	}
	rows, err := s.db.NamedQuery(query, args)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	table := &model.Table{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return table, nil
}

// Load history

func (s *SQLiteStore) CreateLoadRun(run *model.LoadRun) error {
	_, err := s.db.NamedExec(`
		INSERT INTO load_runs (id, table_name, source, started_at, status)
		VALUES (:id, :table_name, :source, :started_at, :status)`, run)
	if err != nil {
		return fmt.Errorf("creating load run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FinishLoadRun(id string, rows int, status string, errMsg string, finishedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE load_runs SET row_count = ?, status = ?, error = ?, finished_at = ?
		WHERE id = ?`, rows, status, errMsg, finishedAt, id)
	if err != nil {
		return fmt.Errorf("finishing load run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListLoadRuns(limit int) ([]*model.LoadRun, error) {
	var runs []*model.LoadRun
	err := s.db.Select(&runs, `
		SELECT id, table_name, source, started_at, finished_at, row_count, status, error
		FROM load_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing load runs: %w", err)
	}
	return runs, nil
}

// Path returns the database path, empty when wrapping an existing connection.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations reports whether the schema is current.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db.DB)
}

// Migrate applies pending migrations and refreshes capabilities.
func (s *SQLiteStore) Migrate() (uint, error) {
	version, err := migrations.MigrateUp(s.db.DB)
	if err != nil {
		return version, err
	}
	return version, s.resolveCapabilities()
}

// DumpSchema returns the CREATE statements of every application table and
// index, tables first.
func (s *SQLiteStore) DumpSchema() (string, error) {
	var stmts []string
	err := s.db.Select(&stmts, `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type WHEN 'table' THEN 1 ELSE 2 END,
		  name`)
	if err != nil {
		return "", fmt.Errorf("reading schema: %w", err)
	}
	return strings.Join(stmts, "\n\n") + "\n", nil
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, food.ErrNotFound)
	}
	return nil
}

// mapError translates SQLite constraint violations into service errors.
func mapError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return fmt.Errorf("%w: %v", food.ErrDuplicateID, err)
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return fmt.Errorf("%w: %v", food.ErrInvalidInput, err)
	}
	return err
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

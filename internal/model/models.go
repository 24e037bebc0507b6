package model

import "time"

// Provider is a donating party. Provider_ID is assigned by the source data
// or, for providers added through the dashboard, by the store.
type Provider struct {
	ID      int64  `db:"Provider_ID" json:"provider_id"`
	Name    string `db:"Name" json:"name"`
	Type    string `db:"Type" json:"type"`
	Address string `db:"Address" json:"address"`
	City    string `db:"City" json:"city"`
	Contact string `db:"Contact" json:"contact"`
}

// Receiver is a party that claims food listings.
type Receiver struct {
	ID      int64  `db:"Receiver_ID" json:"receiver_id"`
	Name    string `db:"Name" json:"name"`
	Type    string `db:"Type" json:"type"`
	City    string `db:"City" json:"city"`
	Contact string `db:"Contact" json:"contact"`
}

// FoodListing is a single food item available for claiming.
type FoodListing struct {
	ID           int64      `db:"Food_ID" json:"food_id" validate:"gt=0"`
	Name         string     `db:"Food_Name" json:"food_name" validate:"required"`
	Quantity     int        `db:"Quantity" json:"quantity" validate:"gte=0"`
	ExpiryDate   *time.Time `db:"Expiry_Date" json:"expiry_date"` // nil when the source date was unparseable
	ProviderID   int64      `db:"Provider_ID" json:"provider_id"`
	ProviderType string     `db:"Provider_Type" json:"provider_type"`
	Location     string     `db:"Location" json:"location"`
	FoodType     string     `db:"Food_Type" json:"food_type"`
	MealType     string     `db:"Meal_Type" json:"meal_type"`
}

// Claim is a receiver's request against a food listing.
type Claim struct {
	ID         int64      `db:"Claim_ID" json:"claim_id"`
	FoodID     int64      `db:"Food_ID" json:"food_id"`
	ReceiverID int64      `db:"Receiver_ID" json:"receiver_id"`
	Status     string     `db:"Status" json:"status"`
	Timestamp  *time.Time `db:"Timestamp" json:"timestamp"`
}

// Known claim statuses. Other values from source data are kept verbatim.
const (
	ClaimCompleted = "Completed"
	ClaimPending   = "Pending"
	ClaimCancelled = "Cancelled"
)

// Capabilities describes optional schema features, resolved once when the
// store is opened.
type Capabilities struct {
	ProviderType bool `json:"provider_type"`
}

// Table is a generic tabular query result.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// LoadRun records one bulk load of one table.
type LoadRun struct {
	ID         string     `db:"id"`
	TableName  string     `db:"table_name"`
	Source     string     `db:"source"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Rows       int        `db:"row_count"`
	Status     string     `db:"status"` // "running", "success" or "error"
	Error      string     `db:"error"`
}

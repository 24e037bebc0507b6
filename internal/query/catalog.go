// Package query holds the catalog of named analytics queries run against
// the food wastage store.
package query

import (
	"strings"

	"foodwaste/internal/model"
)

// Match controls how a filter value is bound to a query parameter.
type Match int

const (
	// Contains binds the value as a case-insensitive substring pattern.
	// An empty value matches every row.
	Contains Match = iota
	// Exact binds the value verbatim.
	Exact
)

// Param is a named parameter of a query. Name is both the SQL placeholder
// (":name") and the filter key it is bound from.
type Param struct {
	Name  string
	Label string
	Match Match
}

// Capability is a schema feature a query depends on.
type Capability int

const (
	None Capability = iota
	ProviderType
)

// Descriptor describes one named query.
type Descriptor struct {
	ID       string
	Title    string
	SQL      string
	Params   []Param
	Requires Capability
}

// Available reports whether the query can run against a store with caps.
func (d Descriptor) Available(caps model.Capabilities) bool {
	switch d.Requires {
	case ProviderType:
		return caps.ProviderType
	default:
		return true
	}
}

// Bind converts filter values into named arguments for d.SQL.
// Filters without a matching parameter are ignored.
func (d Descriptor) Bind(filters map[string]string) map[string]any {
	args := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		v := strings.TrimSpace(filters[p.Name])
		switch p.Match {
		case Exact:
			args[p.Name] = v
		default:
			args[p.Name] = LikePattern(v)
		}
	}
	return args
}

// LikePattern wraps v in % wildcards for a LIKE ... ESCAPE '\' clause,
// escaping wildcard characters already present in v.
func LikePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(v) + "%"
}

// Parameters shared by several queries.
var (
	cityParam     = Param{Name: "city", Label: "City", Match: Contains}
	foodTypeParam = Param{Name: "food_type", Label: "Food Type", Match: Contains}
)

var catalog = []Descriptor{
	{
		ID:    "providers-by-city",
		Title: "Total Providers by City",
		SQL: `SELECT City, COUNT(*) AS Provider_Count
			FROM providers
			GROUP BY City
			ORDER BY Provider_Count DESC, City ASC`,
	},
	{
		ID:    "providers-receivers-by-city",
		Title: "Providers & Receivers by City",
		SQL: `SELECT p.City,
			       COUNT(DISTINCT p.Provider_ID) AS Providers,
			       COUNT(DISTINCT r.Receiver_ID) AS Receivers
			FROM providers p
			LEFT JOIN receivers r ON p.City = r.City
			GROUP BY p.City
			ORDER BY p.City ASC`,
	},
	{
		ID:    "top-provider-type",
		Title: "Top Food Provider Type",
		SQL: `SELECT p.Type AS Provider_Type, SUM(f.Quantity) AS Total_Food
			FROM providers p
			JOIN food_listings f ON p.Provider_ID = f.Provider_ID
			GROUP BY p.Type
			ORDER BY Total_Food DESC, Provider_Type ASC`,
		Requires: ProviderType,
	},
	{
		ID:    "provider-contacts",
		Title: "Provider Contact by City",
		SQL: `SELECT Name, Contact, City
			FROM providers
			WHERE City LIKE :city ESCAPE '\'
			ORDER BY Name ASC, Provider_ID ASC`,
		Params: []Param{cityParam},
	},
	{
		ID:    "top-receivers-by-claims",
		Title: "Top Receivers by Claims",
		SQL: `SELECT r.Name, COUNT(c.Claim_ID) AS Total_Claims
			FROM receivers r
			JOIN claims c ON r.Receiver_ID = c.Receiver_ID
			GROUP BY r.Name
			ORDER BY Total_Claims DESC, r.Name ASC`,
	},
	{
		ID:    "total-quantity",
		Title: "Total Quantity Available",
		SQL: `SELECT COALESCE(SUM(Quantity), 0) AS Total_Available
			FROM food_listings`,
	},
	{
		ID:    "city-most-listings",
		Title: "City with Most Listings",
		SQL: `SELECT Location, COUNT(*) AS Listing_Count
			FROM food_listings
			GROUP BY Location
			ORDER BY Listing_Count DESC, Location ASC
			LIMIT 1`,
	},
	{
		ID:    "top-listing-locations",
		Title: "Top 5 Cities by Food Listings",
		SQL: `SELECT Location, COUNT(*) AS Listing_Count
			FROM food_listings
			GROUP BY Location
			ORDER BY Listing_Count DESC, Location ASC
			LIMIT 5`,
	},
	{
		ID:    "food-type-frequency",
		Title: "Most Common Food Types",
		SQL: `SELECT Food_Type, COUNT(*) AS Count
			FROM food_listings
			WHERE Food_Type LIKE :food_type ESCAPE '\'
			GROUP BY Food_Type
			ORDER BY Count DESC, Food_Type ASC`,
		Params: []Param{foodTypeParam},
	},
	{
		ID:    "claims-per-food-type",
		Title: "Claims per Food Item",
		SQL: `SELECT f.Food_Type, COUNT(c.Claim_ID) AS Claims
			FROM claims c
			JOIN food_listings f ON c.Food_ID = f.Food_ID
			WHERE f.Food_Type LIKE :food_type ESCAPE '\'
			GROUP BY f.Food_Type
			ORDER BY f.Food_Type ASC`,
		Params: []Param{foodTypeParam},
	},
	{
		// Grouped by provider ID so that two providers sharing a name are
		// not merged; ties go to the lowest ID.
		ID:    "top-provider-completed-claims",
		Title: "Provider with Most Successful Claims",
		SQL: `SELECT p.Provider_ID, p.Name, COUNT(c.Claim_ID) AS Successful_Claims
			FROM providers p
			JOIN food_listings f ON p.Provider_ID = f.Provider_ID
			JOIN claims c ON f.Food_ID = c.Food_ID
			WHERE c.Status = 'Completed'
			GROUP BY p.Provider_ID, p.Name
			ORDER BY Successful_Claims DESC, p.Provider_ID ASC
			LIMIT 1`,
	},
	{
		ID:    "claim-status-distribution",
		Title: "Claim Status Distribution",
		SQL: `SELECT Status, COUNT(*) AS Count
			FROM claims
			GROUP BY Status
			ORDER BY Status ASC`,
	},
	{
		// An empty claims table yields no groups, so the division never runs.
		ID:    "claim-status-percentage",
		Title: "Claim Status Percentages",
		SQL: `SELECT Status,
			       ROUND(COUNT(*) * 100.0 / (SELECT COUNT(*) FROM claims), 2) AS Percentage
			FROM claims
			GROUP BY Status
			ORDER BY Status ASC`,
	},
	{
		ID:    "avg-quantity-per-receiver",
		Title: "Avg Quantity Claimed per Receiver",
		SQL: `SELECT r.Name, ROUND(AVG(f.Quantity), 2) AS Avg_Quantity
			FROM receivers r
			JOIN claims c ON r.Receiver_ID = c.Receiver_ID
			JOIN food_listings f ON c.Food_ID = f.Food_ID
			GROUP BY r.Name
			ORDER BY r.Name ASC`,
	},
	{
		ID:    "most-claimed-meal-type",
		Title: "Most Claimed Meal Type",
		SQL: `SELECT f.Meal_Type, COUNT(*) AS Claims
			FROM food_listings f
			JOIN claims c ON f.Food_ID = c.Food_ID
			GROUP BY f.Meal_Type
			ORDER BY Claims DESC, f.Meal_Type ASC
			LIMIT 1`,
	},
	{
		ID:    "quantity-by-provider",
		Title: "Total Quantity by Provider",
		SQL: `SELECT p.Name, SUM(f.Quantity) AS Total_Donated
			FROM providers p
			JOIN food_listings f ON p.Provider_ID = f.Provider_ID
			GROUP BY p.Name
			ORDER BY p.Name ASC`,
	},
}

// All returns every descriptor in display order.
func All() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Available returns the descriptors that can run under caps, in display order.
func Available(caps model.Capabilities) []Descriptor {
	var out []Descriptor
	for _, d := range catalog {
		if d.Available(caps) {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the descriptor registered under id.
func Lookup(id string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

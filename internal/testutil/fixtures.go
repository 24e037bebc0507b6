package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Fixture CSV contents, shaped like the published dataset.
const (
	ProvidersCSV = `Provider_ID,Name,Type,Address,City,Contact
1,Gonzales-Cochran,Supermarket,"74347 Christopher Extensions",New Jessica,+1-600-220-0480
2,"Nielsen, Johnson and Fuller",Grocery Store,"91228 Hanson Stream",East Sheena,+1-925-283-8901x6297
3,Chang-Martinez,Restaurant,"561 Martinez Point",New Jessica,(406)213-8910
`
	ReceiversCSV = `Receiver_ID,Name,Type,City,Contact
1,Donald Gomez,Shelter,New Jessica,(955)922-5295
2,Laurie Ramos,Individual,East Sheena,761.042.1570
`
	FoodListingsCSV = `Food_ID,Food_Name,Quantity,Expiry_Date,Provider_ID,Provider_Type,Location,Food_Type,Meal_Type
1,Bread,43,3/17/2025,1,Supermarket,New Jessica,Non-Vegetarian,Breakfast
2,Soup,22,3/12/2025,2,Grocery Store,East Sheena,Vegan,Dinner
3,Fruits,15,3/5/2025,3,Restaurant,New Jessica,Vegan,Snacks
4,Rice,30,4/30/2025,1,Supermarket,Port Carl,Vegetarian,Lunch
5,Salad,8,unknown,2,Grocery Store,East Sheena,Vegetarian,Lunch
`
	ClaimsCSV = `Claim_ID,Food_ID,Receiver_ID,Status,Timestamp
1,1,1,Completed,3/5/2025 5:26
2,2,2,Pending,3/6/2025 10:00
3,3,1,Completed,3/7/2025 12:15
4,1,2,Cancelled,3/8/2025 9:30
`
)

// WriteFixtures writes the four fixture files into a new temp directory
// using the published dataset file names, and returns the directory.
func WriteFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"providers_data.csv":     ProvidersCSV,
		"receivers_data.csv":     ReceiversCSV,
		"food_listings_data.csv": FoodListingsCSV,
		"claims_data.csv":        ClaimsCSV,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("writing fixture %s: %v", name, err)
		}
	}
	return dir
}

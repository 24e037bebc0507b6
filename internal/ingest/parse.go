package ingest

import (
	"fmt"
	"io"

	"foodwaste/internal/model"
)

// ParseProviders reads Providers.csv.
func ParseProviders(r io.Reader) ([]model.Provider, Stats, error) {
	var rows []model.Provider
	stats, err := readRecords(r, []string{"Provider_ID", "Name", "City"}, func(rec record) error {
		id, err := rec.int64("Provider_ID")
		if err != nil {
			return err
		}
		typ := rec.get("Type")
		if typ == "" {
			typ = rec.get("Provider_Type")
		}
		rows = append(rows, model.Provider{
			ID:      id,
			Name:    rec.get("Name"),
			Type:    typ,
			Address: rec.get("Address"),
			City:    rec.get("City"),
			Contact: rec.get("Contact"),
		})
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("parsing providers: %w", err)
	}
	return rows, stats, nil
}

// ParseReceivers reads Receivers.csv.
func ParseReceivers(r io.Reader) ([]model.Receiver, Stats, error) {
	var rows []model.Receiver
	stats, err := readRecords(r, []string{"Receiver_ID", "Name", "City"}, func(rec record) error {
		id, err := rec.int64("Receiver_ID")
		if err != nil {
			return err
		}
		rows = append(rows, model.Receiver{
			ID:      id,
			Name:    rec.get("Name"),
			Type:    rec.get("Type"),
			City:    rec.get("City"),
			Contact: rec.get("Contact"),
		})
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("parsing receivers: %w", err)
	}
	return rows, stats, nil
}

// ParseFoodListings reads Food Listings.csv. Unparseable expiry dates become nil.
func ParseFoodListings(r io.Reader) ([]model.FoodListing, Stats, error) {
	var rows []model.FoodListing
	required := []string{"Food_ID", "Food_Name", "Quantity", "Expiry_Date", "Provider_ID", "Location", "Food_Type", "Meal_Type"}
	var nullDates int
	stats, err := readRecords(r, required, func(rec record) error {
		id, err := rec.int64("Food_ID")
		if err != nil {
			return err
		}
		qty, err := rec.int64("Quantity")
		if err != nil {
			return err
		}
		if qty < 0 {
			return fmt.Errorf("line %d: Quantity: negative value %d", rec.line, qty)
		}
		providerID, err := rec.int64("Provider_ID")
		if err != nil {
			return err
		}
		expiry := ParseDate(rec.get("Expiry_Date"))
		if expiry == nil {
			nullDates++
		}
		rows = append(rows, model.FoodListing{
			ID:           id,
			Name:         rec.get("Food_Name"),
			Quantity:     int(qty),
			ExpiryDate:   expiry,
			ProviderID:   providerID,
			ProviderType: rec.get("Provider_Type"),
			Location:     rec.get("Location"),
			FoodType:     rec.get("Food_Type"),
			MealType:     rec.get("Meal_Type"),
		})
		return nil
	})
	stats.NullDates = nullDates
	if err != nil {
		return nil, stats, fmt.Errorf("parsing food listings: %w", err)
	}
	return rows, stats, nil
}

// ParseClaims reads Claims.csv. Unparseable timestamps become nil.
func ParseClaims(r io.Reader) ([]model.Claim, Stats, error) {
	var rows []model.Claim
	var nullDates int
	stats, err := readRecords(r, []string{"Claim_ID", "Food_ID", "Receiver_ID", "Status", "Timestamp"}, func(rec record) error {
		id, err := rec.int64("Claim_ID")
		if err != nil {
			return err
		}
		foodID, err := rec.int64("Food_ID")
		if err != nil {
			return err
		}
		receiverID, err := rec.int64("Receiver_ID")
		if err != nil {
			return err
		}
		ts := ParseDate(rec.get("Timestamp"))
		if ts == nil {
			nullDates++
		}
		rows = append(rows, model.Claim{
			ID:         id,
			FoodID:     foodID,
			ReceiverID: receiverID,
			Status:     rec.get("Status"),
			Timestamp:  ts,
		})
		return nil
	})
	stats.NullDates = nullDates
	if err != nil {
		return nil, stats, fmt.Errorf("parsing claims: %w", err)
	}
	return rows, stats, nil
}

package food

import (
	"fmt"
	"strings"

	"foodwaste/internal/model"
)

// CreateListing validates and inserts one food listing. A Food_ID that is
// already taken yields ErrDuplicateID.
func (s *FoodService) CreateListing(listing *model.FoodListing) error {
	if err := s.validateStruct(listing); err != nil {
		return err
	}
	if err := s.store.CreateFoodListing(listing); err != nil {
		return err
	}
	s.logger.Info("food listing created", "food_id", listing.ID, "location", listing.Location)
	return nil
}

// ReadListings returns the listings at city (exact, case-sensitive), or all
// listings when city is blank.
func (s *FoodService) ReadListings(city string) ([]*model.FoodListing, error) {
	if strings.TrimSpace(city) == "" {
		city = ""
	}
	listings, err := s.store.FindFoodListings(city)
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// UpdateListingQuantity overwrites the quantity of one listing.
func (s *FoodService) UpdateListingQuantity(foodID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if err := s.store.UpdateFoodListingQuantity(foodID, quantity); err != nil {
		return err
	}
	s.logger.Info("food listing updated", "food_id", foodID, "quantity", quantity)
	return nil
}

// DeleteListing removes one listing. Claims referring to it are kept.
func (s *FoodService) DeleteListing(foodID int64) error {
	if err := s.store.DeleteFoodListing(foodID); err != nil {
		return err
	}
	s.logger.Info("food listing deleted", "food_id", foodID)
	return nil
}

package food

import (
	"fmt"
	"strings"

	"foodwaste/internal/model"
	"foodwaste/internal/query"
)

// NewProvider is the input for AddProvider.
type NewProvider struct {
	Name    string `json:"name" form:"name" validate:"required"`
	City    string `json:"city" form:"city" validate:"required"`
	Contact string `json:"contact" form:"contact" validate:"required"`
	Type    string `json:"type" form:"provider_type"`
	Address string `json:"address" form:"address"`
}

// AddProvider inserts a provider and returns the ID assigned by the store.
// The type is dropped when the schema has no provider type column.
func (s *FoodService) AddProvider(p NewProvider) (int64, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.City = strings.TrimSpace(p.City)
	p.Contact = strings.TrimSpace(p.Contact)
	if err := s.validateStruct(p); err != nil {
		return 0, err
	}

	provider := &model.Provider{
		Name:    p.Name,
		City:    p.City,
		Contact: p.Contact,
		Address: strings.TrimSpace(p.Address),
	}
	if s.store.Capabilities().ProviderType {
		provider.Type = strings.TrimSpace(p.Type)
	}

	id, err := s.store.CreateProvider(provider)
	if err != nil {
		return 0, err
	}
	s.logger.Info("provider added", "provider_id", id, "name", p.Name)
	return id, nil
}

// UpdateProviderContact overwrites the contact of one provider.
func (s *FoodService) UpdateProviderContact(providerID int64, contact string) error {
	contact = strings.TrimSpace(contact)
	if providerID <= 0 || contact == "" {
		return fmt.Errorf("%w: provider id and contact are required", ErrInvalidInput)
	}
	if err := s.store.UpdateProviderContact(providerID, contact); err != nil {
		return err
	}
	s.logger.Info("provider contact updated", "provider_id", providerID)
	return nil
}

// DeleteProvider removes one provider. Listings referring to it are kept.
func (s *FoodService) DeleteProvider(providerID int64) error {
	if providerID <= 0 {
		return fmt.Errorf("%w: provider id is required", ErrInvalidInput)
	}
	if err := s.store.DeleteProvider(providerID); err != nil {
		return err
	}
	s.logger.Info("provider deleted", "provider_id", providerID)
	return nil
}

// ProviderContacts lists provider contacts filtered by f.
func (s *FoodService) ProviderContacts(f query.ContactFilter) (*model.Table, error) {
	sql, args := query.ContactQuery(f, s.store.Capabilities())
	table, err := s.store.Query(sql, args)
	if err != nil {
		return nil, fmt.Errorf("listing provider contacts: %w", err)
	}
	return table, nil
}

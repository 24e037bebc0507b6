// Package food is the service layer of the food wastage tracker. It
// coordinates the store, CSV ingestion, the analytics catalog, report
// generation and encrypted snapshots.
package food

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"foodwaste/internal/model"
)

// FoodService is the orchestration layer used by the CLI and the dashboard.
type FoodService struct {
	store     Store
	sink      Sink
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	validate  *validator.Validate
}

// NewFoodService creates a new FoodService with the provided dependencies.
func NewFoodService(store Store, sink Sink, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *FoodService {
	return &FoodService{
		store:     store,
		sink:      sink,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Capabilities returns the schema capabilities of the underlying store.
func (s *FoodService) Capabilities() model.Capabilities {
	return s.store.Capabilities()
}

// validateStruct runs struct tag validation and wraps failures in
// ErrInvalidInput with the offending field names.
func (s *FoodService) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, ", "))
}

package food

import "errors"

var (
	// ErrNotFound is returned when an update or delete matched no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when an insert reuses an existing identifier.
	ErrDuplicateID = errors.New("identifier already exists")

	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownQuery is returned for a query ID missing from the catalog.
	ErrUnknownQuery = errors.New("unknown query")

	// ErrQueryUnavailable is returned for a query whose schema capability is missing.
	ErrQueryUnavailable = errors.New("query not available for this schema")
)

package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock is returned when a sale asks for more units than are on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInUse indicates a foreign key constraint blocked the change.
	ErrInUse = errors.New("in use")
)

// ValidationError describes user input that can be corrected and resubmitted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError for field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

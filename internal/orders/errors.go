package orders

import "errors"

var (
	ErrValidation  = errors.New("missing or invalid fields")
	ErrNotFound    = errors.New("order not found")
	ErrAlreadyPaid = errors.New("order is already paid")
)

package cart

import "errors"

var (
	ErrItemNotFound  = errors.New("cart item not found")
	ErrInvalidAmount = errors.New("cart item amount must be at least 1")
	ErrDuplicateItem = errors.New("cart item repeated")
)

package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidCategory = errors.New("invalid category")
	ErrDuplicate       = errors.New("duplicate")
	ErrForbiddenRole   = errors.New("role not allowed")
)

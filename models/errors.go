package models

import "errors"

// Storage-neutral errors returned by repositories.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
)

package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthenticated means no credential was present when an
	// authenticated call was attempted.
	ErrNotAuthenticated = errors.New("user not authenticated")
	// ErrSessionExpired means the backend rejected the credential (401).
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden means the credential is valid but lacks permission (403).
	ErrForbidden = errors.New("forbidden")
	// ErrStockExceeded is the local guard against adding more of a product
	// than its available stock.
	ErrStockExceeded = errors.New("insufficient stock")
)

package service

import "errors"

// Expected purchase and wallet outcomes. These are user-facing results,
// not faults: handlers map them to one-line messages and state is left
// untouched when they occur.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrSoldOut           = errors.New("item is out of stock")
	ErrLostRace          = errors.New("item sold out during purchase")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownCatalog    = errors.New("unknown catalog")
)

// Package uid generates the opaque identifiers used for request
// correlation and purchase receipts.
package uid

import "github.com/google/uuid"

// New returns a fresh identifier.
func New() string {
	return uuid.New().String()
}

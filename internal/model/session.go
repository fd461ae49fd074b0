package model

import "time"

// SessionData contains the data stored with a host session token.
type SessionData struct {
	HostKeyID int64     `json:"host_key_id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HostKeyValidation contains the result of host key validation.
type HostKeyValidation struct {
	HostKeyID int64
	Label     string
	Active    bool
}

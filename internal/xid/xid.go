package xid

import "github.com/google/uuid"

// New returns a random row id in canonical UUID form.
func New() string {
	return uuid.NewString()
}

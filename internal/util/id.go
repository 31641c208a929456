package util

import "github.com/google/uuid"

// NewSourceID generates a collision-resistant lineage identifier for
// callers that do not supply one.
func NewSourceID() string {
	return uuid.NewString()
}

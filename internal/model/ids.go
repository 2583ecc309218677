package model

import "github.com/google/uuid"

// NewID returns a fresh random identifier for nodes, timelines, groups,
// dependencies and memo entries.
func NewID() string {
	return uuid.NewString()
}

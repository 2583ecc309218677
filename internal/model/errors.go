package model

import "errors"

var (
	// ErrNotFound is returned when a referenced node, timeline or group id
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation is returned for structurally disallowed requests,
	// such as inserting before a start delimiter or creating a cycle.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInconsistentGraph is reported when an adjacency list references a
	// node that does not exist or the lists disagree with each other.
	ErrInconsistentGraph = errors.New("inconsistent graph")

	// ErrInvalidStatus is returned when an unknown status is provided.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrEmptyTitle is returned when a title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")
)

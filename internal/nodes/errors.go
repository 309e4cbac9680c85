package nodes

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound indicates a content node lookup missed.
	ErrNodeNotFound = errors.New("nodes: node not found")
)

// NodeNotFoundError carries the identifier that missed so callers can surface
// a descriptive message.
type NodeNotFoundError struct {
	Key string
}

func (e *NodeNotFoundError) Error() string {
	if e == nil || e.Key == "" {
		return ErrNodeNotFound.Error()
	}
	return fmt.Sprintf("%s: id=%s", ErrNodeNotFound.Error(), e.Key)
}

func (e *NodeNotFoundError) Unwrap() error {
	return ErrNodeNotFound
}

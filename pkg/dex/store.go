// Package dex holds the creature roster: read-only profiles keyed by
// lowercased name, and grouped lookups over them.
package dex

import (
	"context"
	"errors"
	"fmt"

	"github.com/cpunion/dexbot/pkg/types"
)

// ErrNotFound marks a lookup for a name absent from the roster.
var ErrNotFound = errors.New("creature not found")

// NotFoundError names the creature that was not found.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Store is the read side of the roster. Implementations must be safe for
// concurrent readers.
type Store interface {
	// Get returns the profile for name, or a *NotFoundError.
	Get(ctx context.Context, name string) (*types.CreatureProfile, error)
	// Bulk returns every profile ordered by roster id.
	Bulk(ctx context.Context) ([]*types.CreatureProfile, error)
}

// Package store persists the learning-matrix record. Writes happen only on
// daily decay boundaries and explicit user action — the backing flash has
// limited write endurance, so the store never batches or debounces on its
// own; callers control the cadence.
package store

import "github.com/sweeney/hotcirc/internal/logic"

// Store loads and saves the learning matrix.
type Store interface {
	// Load returns the persisted matrix. A missing or corrupt record
	// returns logic.ErrBadRecord (wrapped); callers reseed on any error.
	Load() (logic.Matrix, error)

	// Save writes the matrix. Assumed atomic-or-failed: a failure leaves
	// the previous record intact and is reported, never fatal.
	Save(logic.Matrix) error
}

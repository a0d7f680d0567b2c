package store

import "context"

// FlagHasSeededSampleData gates the one-time sample data bootstrap.
const FlagHasSeededSampleData = "has_seeded_sample_data"

// FlagStore persists boolean application flags kept outside the note store,
// such as the seed-bootstrap marker.
type FlagStore interface {
	// Get returns the value of the named flag. A flag that has never been
	// written reads as false with no error.
	Get(ctx context.Context, key string) (bool, error)

	// Set writes the named flag.
	Set(ctx context.Context, key string, value bool) error
}

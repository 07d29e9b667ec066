package collision

import (
	"fmt"

	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/internal/hash"
)

// Tracker detects duplicate property names inside one PLY element.
//
// Names are indexed by their xxHash64 id; a hash match is confirmed against the
// stored names so two different names sharing a hash are not reported as
// duplicates.
type Tracker struct {
	names map[uint64][]string // id → names with that id
}

// NewTracker creates a new tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names: make(map[uint64][]string),
	}
}

// Track records name. It returns ErrSchema if name is empty or was tracked before.
func (t *Tracker) Track(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty property name", errs.ErrSchema)
	}

	id := hash.ID(name)
	for _, existing := range t.names[id] {
		if existing == name {
			return fmt.Errorf("%w: duplicate property %q", errs.ErrSchema, name)
		}
	}

	t.names[id] = append(t.names[id], name)

	return nil
}

// Reset clears the tracker for the next element.
func (t *Tracker) Reset() {
	clear(t.names)
}

package cloud

import (
	"fmt"

	"github.com/arloliu/plyio/errs"
)

// maxPrealloc caps the capacity reserved from a declared list size, which
// comes straight from the input.
const maxPrealloc = 1 << 16

// IndexEntry is one list value: the declared size and the items read.
type IndexEntry struct {
	DeclaredSize int
	Values       []int64
}

// IndexList collects the list property values of one element, one entry per row.
//
// Entries are filled through Begin/Append/End. An entry is sealed by End
// exactly once, and sealing checks that the item count matches the size.
type IndexList struct {
	Element  string
	Property string
	Entries  []IndexEntry

	open bool
}

// NewIndexList creates an empty list with room for rows entries.
func NewIndexList(element, property string, rows int) *IndexList {
	return &IndexList{Element: element, Property: property, Entries: make([]IndexEntry, 0, min(max(rows, 0), maxPrealloc))}
}

// Begin opens a new entry of the given declared size.
func (l *IndexList) Begin(size int) error {
	if l.open {
		return fmt.Errorf("%w: %s.%s: entry %d begun before the previous one ended",
			errs.ErrSchema, l.Element, l.Property, len(l.Entries))
	}
	if size < 0 {
		return fmt.Errorf("%w: %s.%s: negative list size %d", errs.ErrSchema, l.Element, l.Property, size)
	}

	l.Entries = append(l.Entries, IndexEntry{DeclaredSize: size, Values: make([]int64, 0, min(size, maxPrealloc))})
	l.open = true

	return nil
}

// Append adds one item to the open entry.
func (l *IndexList) Append(v int64) error {
	if !l.open {
		return fmt.Errorf("%w: %s.%s: item outside an entry", errs.ErrSchema, l.Element, l.Property)
	}

	e := &l.Entries[len(l.Entries)-1]
	if len(e.Values) >= e.DeclaredSize {
		return fmt.Errorf("%w: %s.%s: entry %d has more than %d items",
			errs.ErrSchema, l.Element, l.Property, len(l.Entries)-1, e.DeclaredSize)
	}
	e.Values = append(e.Values, v)

	return nil
}

// End seals the open entry. Sealing twice is ErrListAlreadySealed and an
// item count different from the declared size is ErrTruncatedBody.
func (l *IndexList) End() error {
	if !l.open {
		return fmt.Errorf("%w: %s.%s entry %d", errs.ErrListAlreadySealed, l.Element, l.Property, len(l.Entries)-1)
	}
	l.open = false

	e := l.Entries[len(l.Entries)-1]
	if len(e.Values) != e.DeclaredSize {
		return fmt.Errorf("%w: %s.%s: entry %d has %d of %d items",
			errs.ErrTruncatedBody, l.Element, l.Property, len(l.Entries)-1, len(e.Values), e.DeclaredSize)
	}

	return nil
}

// Len returns the number of entries.
func (l *IndexList) Len() int {
	if l == nil {
		return 0
	}

	return len(l.Entries)
}

// Add appends a complete, sealed entry.
func (l *IndexList) Add(values ...int64) {
	vals := make([]int64, len(values))
	copy(vals, values)
	l.Entries = append(l.Entries, IndexEntry{DeclaredSize: len(values), Values: vals})
}

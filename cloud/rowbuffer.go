package cloud

import (
	"fmt"
	"math"

	"github.com/arloliu/plyio/errs"
)

// maxRowPrealloc caps the bytes reserved up front from a declared row count.
// Beyond it the buffer grows as rows are begun.
const maxRowPrealloc = 1 << 20

// RowBuffer is a zero-initialized rows*stride byte arena with a write cursor
// for the row being filled. Storage is committed lazily, so a declared count
// costs memory only for the rows that actually arrive.
type RowBuffer struct {
	data   []byte
	rows   int
	stride int

	row    int // current row, -1 outside a row
	cursor int // bytes written into the current row
}

// AllocateRows creates a buffer of rows*stride bytes.
// Negative sizes and a product that overflows int are ErrSchema.
func AllocateRows(rows, stride int) (*RowBuffer, error) {
	if rows < 0 || stride < 0 {
		return nil, fmt.Errorf("%w: invalid buffer shape %d rows x %d bytes", errs.ErrSchema, rows, stride)
	}
	if stride > 0 && rows > math.MaxInt/stride {
		return nil, fmt.Errorf("%w: %d rows x %d bytes overflows the buffer size", errs.ErrSchema, rows, stride)
	}

	return &RowBuffer{
		data:   make([]byte, 0, min(rows*stride, maxRowPrealloc)),
		rows:   rows,
		stride: stride,
		row:    -1,
	}, nil
}

// Rows returns the number of rows.
func (b *RowBuffer) Rows() int { return b.rows }

// Stride returns the row size in bytes.
func (b *RowBuffer) Stride() int { return b.stride }

// Bytes returns the whole buffer, committing any rows not begun yet as zeros.
func (b *RowBuffer) Bytes() []byte {
	b.commit(b.rows * b.stride)

	return b.data
}

// Committed returns the number of bytes backed by storage so far.
func (b *RowBuffer) Committed() int { return len(b.data) }

func (b *RowBuffer) commit(n int) {
	if n > len(b.data) {
		b.data = append(b.data, make([]byte, n-len(b.data))...)
	}
}

// BeginRow starts filling row i and resets the cursor.
func (b *RowBuffer) BeginRow(i int) error {
	if i < 0 || i >= b.rows {
		return fmt.Errorf("%w: row %d outside buffer of %d rows", errs.ErrSchema, i, b.rows)
	}
	if b.row >= 0 {
		return fmt.Errorf("%w: row %d started before row %d ended", errs.ErrSchema, i, b.row)
	}
	b.commit((i + 1) * b.stride)
	b.row = i
	b.cursor = 0

	return nil
}

// Row returns the bytes of the row being filled.
func (b *RowBuffer) Row() []byte {
	if b.row < 0 {
		return nil
	}
	base := b.row * b.stride

	return b.data[base : base+b.stride : base+b.stride]
}

// Advance moves the cursor n bytes forward.
func (b *RowBuffer) Advance(n int) error {
	if b.row < 0 {
		return fmt.Errorf("%w: write outside a row", errs.ErrSchema)
	}
	if n < 0 || b.cursor+n > b.stride {
		return fmt.Errorf("%w: row %d: cursor %d+%d exceeds stride %d", errs.ErrSchema, b.row, b.cursor, n, b.stride)
	}
	b.cursor += n

	return nil
}

// EndRow finishes the current row. The cursor must sit exactly at the row end.
func (b *RowBuffer) EndRow() error {
	if b.row < 0 {
		return fmt.Errorf("%w: row end outside a row", errs.ErrSchema)
	}
	if b.cursor != b.stride {
		return fmt.Errorf("%w: row %d ended at byte %d, stride is %d", errs.ErrSchema, b.row, b.cursor, b.stride)
	}
	b.row = -1

	return nil
}

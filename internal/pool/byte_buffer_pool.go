package pool

import (
	"io"
	"sync"
)

const (
	// RowBufferDefaultSize is the initial capacity of a buffer used to format one ASCII row.
	RowBufferDefaultSize = 256
	// RowBufferMaxThreshold caps the capacity of row buffers kept in the pool.
	RowBufferMaxThreshold = 1024 * 16 // 16KiB
	// BodyBufferDefaultSize is the initial capacity of a buffer holding a whole encoded file.
	BodyBufferDefaultSize = 1024 * 64 // 64KiB
	// BodyBufferMaxThreshold caps the capacity of body buffers kept in the pool.
	BodyBufferMaxThreshold = 1024 * 1024 * 8 // 8MiB
)

// ByteBuffer is an append-only byte slice that can be reused through a pool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteString appends s to the buffer.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.B = append(bb.B, s...)
	return len(s), nil
}

// WriteByte appends c to the buffer.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers that grew beyond maxThreshold are dropped on Put instead of being
// retained, so one huge cloud does not pin memory for the process lifetime.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	rowDefaultPool  = NewByteBufferPool(RowBufferDefaultSize, RowBufferMaxThreshold)
	bodyDefaultPool = NewByteBufferPool(BodyBufferDefaultSize, BodyBufferMaxThreshold)
)

// GetRowBuffer retrieves a ByteBuffer from the default row pool.
func GetRowBuffer() *ByteBuffer {
	return rowDefaultPool.Get()
}

// PutRowBuffer returns a ByteBuffer to the default row pool.
func PutRowBuffer(bb *ByteBuffer) {
	rowDefaultPool.Put(bb)
}

// GetBodyBuffer retrieves a ByteBuffer from the default body pool.
func GetBodyBuffer() *ByteBuffer {
	return bodyDefaultPool.Get()
}

// PutBodyBuffer returns a ByteBuffer to the default body pool.
func PutBodyBuffer(bb *ByteBuffer) {
	bodyDefaultPool.Put(bb)
}

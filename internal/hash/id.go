package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Hasher accumulates an xxHash64 over a sequence of strings and integers.
//
// Each string is terminated by a zero byte so ("ab","c") and ("a","bc") hash
// differently.
type Hasher struct {
	digest  *xxhash.Digest
	scratch [8]byte
}

// NewHasher creates an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{digest: xxhash.New()}
}

// String mixes s into the hash.
func (h *Hasher) String(s string) {
	_, _ = h.digest.WriteString(s)
	_, _ = h.digest.Write([]byte{0})
}

// Uint64 mixes v into the hash in a fixed byte order.
func (h *Hasher) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.scratch[:], v)
	_, _ = h.digest.Write(h.scratch[:])
}

// Sum returns the hash of everything written so far.
func (h *Hasher) Sum() uint64 {
	return h.digest.Sum64()
}

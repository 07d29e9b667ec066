package compress

import (
	"bytes"
	"fmt"

	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

// Compressor compresses a complete PLY file image.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a complete PLY file image.
//
// The decompressor validates the data format and returns an error if the data
// is corrupted or was produced by another algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Frame magics of the supported formats.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
	s2Magic   = []byte("\xff\x06\x00\x00S2sTwO")
)

// Detect reports the compression of a file from its first bytes. Plain PLY
// files and unrecognized content are CompressionNone.
func Detect(head []byte) format.CompressionType {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return format.CompressionZstd
	case bytes.HasPrefix(head, lz4Magic):
		return format.CompressionLZ4
	case bytes.HasPrefix(head, s2Magic):
		return format.CompressionS2
	default:
		return format.CompressionNone
	}
}

// MagicLen is the number of leading bytes Detect needs.
const MagicLen = 10

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the shared codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if c, ok := builtinCodecs[compressionType]; ok {
		return c, nil
	}

	return nil, fmt.Errorf("%w: unsupported compression type: %s", errs.ErrInvalidOption, compressionType)
}

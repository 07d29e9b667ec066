// Package endian provides byte order utilities for the binary PLY encodings.
//
// The EndianEngine interface combines binary.ByteOrder and binary.AppendByteOrder
// so the value codec can both decode fixed-width fields in place and append them
// to an output buffer through one handle.
//
// # Basic Usage
//
// Row buffers are always kept in host byte order. Decoding a file uses the engine
// that matches its format line, and the codec only swaps bytes when that engine
// differs from the native one:
//
//	engine, ok := endian.ForFormat(format.FormatBinaryBigEndian)
//	if !endian.CompareNativeEndian(engine) {
//	    // byte-swap while copying
//	}
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"

	"github.com/arloliu/plyio/format"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var nativeEngine = detectNative()

func detectNative() EndianEngine {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))

	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// CheckEndianness returns the host's byte order.
func CheckEndianness() binary.ByteOrder {
	return nativeEngine
}

// NativeEngine returns the engine for the host's byte order.
func NativeEngine() EndianEngine {
	return nativeEngine
}

func IsNativeLittleEndian() bool {
	return nativeEngine == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return nativeEngine == binary.BigEndian
}

// CompareNativeEndian reports whether engine matches the host's byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == nativeEngine
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ForFormat returns the engine of a binary format. ASCII has no byte order,
// so the second result is false for it and for invalid formats.
func ForFormat(f format.Format) (EndianEngine, bool) {
	switch f {
	case format.FormatBinaryLittleEndian:
		return binary.LittleEndian, true
	case format.FormatBinaryBigEndian:
		return binary.BigEndian, true
	default:
		return nil, false
	}
}

// NativeBinaryFormat returns the binary format tag matching the host's byte order.
func NativeBinaryFormat() format.Format {
	if IsNativeBigEndian() {
		return format.FormatBinaryBigEndian
	}

	return format.FormatBinaryLittleEndian
}

// BinaryFormat returns the binary format tag of engine.
func BinaryFormat(engine EndianEngine) format.Format {
	if engine == binary.BigEndian {
		return format.FormatBinaryBigEndian
	}

	return format.FormatBinaryLittleEndian
}

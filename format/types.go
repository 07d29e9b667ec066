package format

import (
	"path/filepath"
	"strings"
)

type (
	DataType        uint8
	Format          uint8
	CompressionType uint8
)

const (
	TypeInvalid DataType = iota // TypeInvalid is the zero value, never a valid property type.
	TypeInt8                    // TypeInt8 is the PLY "char" type.
	TypeUint8                   // TypeUint8 is the PLY "uchar" type.
	TypeInt16                   // TypeInt16 is the PLY "short" type.
	TypeUint16                  // TypeUint16 is the PLY "ushort" type.
	TypeInt32                   // TypeInt32 is the PLY "int" type.
	TypeUint32                  // TypeUint32 is the PLY "uint" type.
	TypeFloat32                 // TypeFloat32 is the PLY "float" type.
	TypeFloat64                 // TypeFloat64 is the PLY "double" type.
)

const (
	FormatInvalid            Format = 0x0
	FormatASCII              Format = 0x1 // FormatASCII is the human-readable body encoding.
	FormatBinaryLittleEndian Format = 0x2 // FormatBinaryLittleEndian is the binary body in little-endian order.
	FormatBinaryBigEndian    Format = 0x3 // FormatBinaryBigEndian is the binary body in big-endian order.
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// dataTypeNames holds the canonical header names, indexed by DataType.
var dataTypeNames = [...]string{
	TypeInvalid: "invalid",
	TypeInt8:    "char",
	TypeUint8:   "uchar",
	TypeInt16:   "short",
	TypeUint16:  "ushort",
	TypeInt32:   "int",
	TypeUint32:  "uint",
	TypeFloat32: "float",
	TypeFloat64: "double",
}

// dataTypeByName accepts both the classic and the sized PLY type names.
var dataTypeByName = map[string]DataType{
	"char":    TypeInt8,
	"int8":    TypeInt8,
	"uchar":   TypeUint8,
	"uint8":   TypeUint8,
	"short":   TypeInt16,
	"int16":   TypeInt16,
	"ushort":  TypeUint16,
	"uint16":  TypeUint16,
	"int":     TypeInt32,
	"int32":   TypeInt32,
	"uint":    TypeUint32,
	"uint32":  TypeUint32,
	"float":   TypeFloat32,
	"float32": TypeFloat32,
	"double":  TypeFloat64,
	"float64": TypeFloat64,
}

// ParseDataType resolves a header type name. The second result is false for
// names outside the supported primitive set.
func ParseDataType(name string) (DataType, bool) {
	t, ok := dataTypeByName[name]
	return t, ok
}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}

	return "invalid"
}

// Size returns the width of the type in bytes, or 0 for an invalid type.
func (t DataType) Size() int {
	switch t {
	case TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeFloat64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether t is one of the eight supported primitive types.
func (t DataType) Valid() bool {
	return t >= TypeInt8 && t <= TypeFloat64
}

// IsFloat reports whether t is a floating point type.
func (t DataType) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// IsSigned reports whether t is a signed integer type.
func (t DataType) IsSigned() bool {
	return t == TypeInt8 || t == TypeInt16 || t == TypeInt32
}

// IsInteger reports whether t is a signed or unsigned integer type.
func (t DataType) IsInteger() bool {
	return t.Valid() && !t.IsFloat()
}

// ParseFormat resolves the tag of a "format" header line.
func ParseFormat(tag string) (Format, bool) {
	switch tag {
	case "ascii":
		return FormatASCII, true
	case "binary_little_endian":
		return FormatBinaryLittleEndian, true
	case "binary_big_endian":
		return FormatBinaryBigEndian, true
	default:
		return FormatInvalid, false
	}
}

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ascii"
	case FormatBinaryLittleEndian:
		return "binary_little_endian"
	case FormatBinaryBigEndian:
		return "binary_big_endian"
	default:
		return "invalid"
	}
}

// IsBinary reports whether f is one of the two binary encodings.
func (f Format) IsBinary() bool {
	return f == FormatBinaryLittleEndian || f == FormatBinaryBigEndian
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// CompressionFromPath infers the whole-file compression from a file name
// extension (".zst", ".s2", ".lz4"). Anything else is CompressionNone.
func CompressionFromPath(path string) CompressionType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".s2":
		return CompressionS2
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

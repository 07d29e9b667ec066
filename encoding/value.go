package encoding

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

// Value holds one PLY primitive value losslessly.
//
// The representation is normalized per type so two Values of the same type
// compare equal with == exactly when their encoded bytes are equal:
//   - floats keep their IEEE 754 bits (float32 bits in the low 32 bits)
//   - signed integers are sign-extended from their declared width
//   - unsigned integers are zero-extended from their declared width
type Value struct {
	Type format.DataType
	bits uint64
}

// normalize truncates raw to the width of t and extends it back to 64 bits.
func normalize(t format.DataType, raw uint64) uint64 {
	switch t {
	case format.TypeInt8:
		return uint64(int64(int8(raw))) //nolint: gosec
	case format.TypeUint8:
		return raw & 0xFF
	case format.TypeInt16:
		return uint64(int64(int16(raw))) //nolint: gosec
	case format.TypeUint16:
		return raw & 0xFFFF
	case format.TypeInt32:
		return uint64(int64(int32(raw))) //nolint: gosec
	case format.TypeUint32, format.TypeFloat32:
		return raw & 0xFFFFFFFF
	default:
		return raw
	}
}

// BitsValue creates a Value of type t from its raw bit pattern.
func BitsValue(t format.DataType, bits uint64) Value {
	return Value{Type: t, bits: normalize(t, bits)}
}

// Float64Value converts f to type t. Integer types truncate toward zero and
// wrap at their declared width.
func Float64Value(t format.DataType, f float64) Value {
	switch t {
	case format.TypeFloat32:
		return Value{Type: t, bits: uint64(math.Float32bits(float32(f)))}
	case format.TypeFloat64:
		return Value{Type: t, bits: math.Float64bits(f)}
	default:
		if t.IsSigned() {
			return Int64Value(t, int64(f))
		}

		return Uint64Value(t, uint64(int64(f))) //nolint: gosec
	}
}

// Int64Value converts i to type t.
func Int64Value(t format.DataType, i int64) Value {
	if t.IsFloat() {
		return Float64Value(t, float64(i))
	}

	return Value{Type: t, bits: normalize(t, uint64(i))} //nolint: gosec
}

// Uint64Value converts u to type t.
func Uint64Value(t format.DataType, u uint64) Value {
	if t.IsFloat() {
		return Float64Value(t, float64(u))
	}

	return Value{Type: t, bits: normalize(t, u)}
}

// Bits returns the normalized bit pattern.
func (v Value) Bits() uint64 {
	return v.bits
}

// Float64 returns the value as a float64.
func (v Value) Float64() float64 {
	switch {
	case v.Type == format.TypeFloat32:
		return float64(math.Float32frombits(uint32(v.bits))) //nolint: gosec
	case v.Type == format.TypeFloat64:
		return math.Float64frombits(v.bits)
	case v.Type.IsSigned():
		return float64(int64(v.bits)) //nolint: gosec
	default:
		return float64(v.bits)
	}
}

// Int64 returns the value as an int64; floats truncate toward zero.
func (v Value) Int64() int64 {
	if v.Type.IsFloat() {
		return int64(v.Float64())
	}

	return int64(v.bits) //nolint: gosec
}

// Uint64 returns the value as a uint64. Negative integers wrap.
func (v Value) Uint64() uint64 {
	if v.Type.IsFloat() {
		return uint64(v.Float64())
	}

	return v.bits
}

// IsFinite reports whether v is neither NaN nor infinite. Integers are always finite.
func (v Value) IsFinite() bool {
	if !v.Type.IsFloat() {
		return true
	}

	f := v.Float64()

	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Decode reads a value of type t from the first t.Size() bytes of src using engine.
// src must hold at least t.Size() bytes.
func Decode(src []byte, t format.DataType, engine endian.EndianEngine) Value {
	switch t.Size() {
	case 1:
		return BitsValue(t, uint64(src[0]))
	case 2:
		return BitsValue(t, uint64(engine.Uint16(src)))
	case 4:
		return BitsValue(t, uint64(engine.Uint32(src)))
	case 8:
		return BitsValue(t, engine.Uint64(src))
	default:
		return Value{}
	}
}

// Put writes v into the first v.Type.Size() bytes of dst using engine.
func (v Value) Put(dst []byte, engine endian.EndianEngine) {
	switch v.Type.Size() {
	case 1:
		dst[0] = byte(v.bits)
	case 2:
		engine.PutUint16(dst, uint16(v.bits)) //nolint: gosec
	case 4:
		engine.PutUint32(dst, uint32(v.bits)) //nolint: gosec
	case 8:
		engine.PutUint64(dst, v.bits)
	}
}

// Append appends the binary encoding of v to dst using engine.
func (v Value) Append(dst []byte, engine endian.EndianEngine) []byte {
	switch v.Type.Size() {
	case 1:
		return append(dst, byte(v.bits))
	case 2:
		return engine.AppendUint16(dst, uint16(v.bits)) //nolint: gosec
	case 4:
		return engine.AppendUint32(dst, uint32(v.bits)) //nolint: gosec
	case 8:
		return engine.AppendUint64(dst, v.bits)
	default:
		return dst
	}
}

// ParseText parses an ASCII token as type t.
//
// Integers must be decimal and fit the declared width; floats are parsed at
// full precision and must be representable in the declared width. Failures
// wrap errs.ErrValueFormat.
func ParseText(tok string, t format.DataType) (Value, error) {
	switch {
	case t.IsFloat():
		bitSize := 64
		if t == format.TypeFloat32 {
			bitSize = 32
		}

		f, err := strconv.ParseFloat(tok, bitSize)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a valid %s", errs.ErrValueFormat, tok, t)
		}

		return Float64Value(t, f), nil
	case t.IsSigned():
		i, err := strconv.ParseInt(tok, 10, t.Size()*8)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a valid %s", errs.ErrValueFormat, tok, t)
		}

		return Int64Value(t, i), nil
	case t.IsInteger():
		u, err := strconv.ParseUint(tok, 10, t.Size()*8)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a valid %s", errs.ErrValueFormat, tok, t)
		}

		return Uint64Value(t, u), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %s", errs.ErrSchema, t)
	}
}

// AppendText appends the ASCII form of v to dst.
//
// Integers are written in decimal. Floats use the shortest %g form with at
// most precision significant digits; precision -1 selects the shortest form
// that parses back to the identical value. Non-finite floats are written as
// nan, inf and -inf.
func (v Value) AppendText(dst []byte, precision int) []byte {
	switch {
	case v.Type.IsFloat():
		f := v.Float64()
		switch {
		case math.IsNaN(f):
			return append(dst, "nan"...)
		case math.IsInf(f, 1):
			return append(dst, "inf"...)
		case math.IsInf(f, -1):
			return append(dst, "-inf"...)
		}

		bitSize := 64
		if v.Type == format.TypeFloat32 {
			bitSize = 32
		}

		return strconv.AppendFloat(dst, f, 'g', precision, bitSize)
	case v.Type.IsSigned():
		return strconv.AppendInt(dst, int64(v.bits), 10) //nolint: gosec
	default:
		return strconv.AppendUint(dst, v.bits, 10)
	}
}

// String returns the shortest lossless text form of v.
func (v Value) String() string {
	return string(v.AppendText(nil, -1))
}

package cloud

import (
	"github.com/arloliu/plyio/format"
)

// Canonical field names produced by the reader and understood by the writer.
const (
	FieldX         = "x"
	FieldY         = "y"
	FieldZ         = "z"
	FieldNormalX   = "normal_x"
	FieldNormalY   = "normal_y"
	FieldNormalZ   = "normal_z"
	FieldRGB       = "rgb"
	FieldRGBA      = "rgba"
	FieldIntensity = "intensity"
	FieldCurvature = "curvature"
)

// Byte positions of the color channels inside a packed rgb/rgba field.
const (
	ChannelBlue  = 0
	ChannelGreen = 1
	ChannelRed   = 2
	ChannelAlpha = 3
)

// Field describes one named, typed slot of a row.
type Field struct {
	Name   string
	Type   format.DataType
	Offset int // bytes from the row start
	Count  int // always 1 for PLY scalar properties
}

// Size returns the number of row bytes the field occupies.
func (f Field) Size() int {
	return f.Type.Size() * max(f.Count, 1)
}

// End returns the offset just past the field.
func (f Field) End() int {
	return f.Offset + f.Size()
}

// IsPadding reports whether the field is an alignment gap that is never written out.
func (f Field) IsPadding() bool {
	return f.Name == "" || f.Name == "_"
}

// IsColor reports whether the field is a packed color field.
func (f Field) IsColor() bool {
	return (f.Name == FieldRGB || f.Name == FieldRGBA) && f.Type == format.TypeUint32
}

// PackFields lays fields out back to back in the given order, ignoring their
// Offset, and returns the laid out copy together with the row stride.
func PackFields(fields ...Field) ([]Field, int) {
	out := make([]Field, len(fields))
	offset := 0
	for i, f := range fields {
		if f.Count <= 0 {
			f.Count = 1
		}
		f.Offset = offset
		out[i] = f
		offset += f.Size()
	}

	return out, offset
}

// FindField returns the field named name.
func FindField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

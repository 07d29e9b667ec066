package cloud

import (
	"fmt"

	"github.com/arloliu/plyio/encoding"
	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

// Cloud is a packed, row-major point buffer plus the metadata of its file.
//
// Data holds Len() rows of PointStep bytes each, in host byte order. Fields
// describe where each named value lives inside a row. A cloud with Height > 1
// is organized as Height rows of Width points.
type Cloud struct {
	Data      []byte
	Fields    []Field
	PointStep int

	Width  int
	Height int

	Pose Pose

	// RangeGrid holds the range_grid entries, nil when the file had none.
	RangeGrid *IndexList
	// Polygons holds the face entries, nil when the file had none.
	Polygons *IndexList
	// Lists holds list properties of the vertex element.
	Lists []*IndexList

	Comments []string
	ObjInfo  []string

	// Format is the body encoding the cloud was read from.
	Format format.Format
}

// New allocates a zeroed, unorganized cloud of rows points with fields laid
// out back to back in the given order. A packed rgb field starts opaque.
func New(rows int, fields ...Field) *Cloud {
	packed, step := PackFields(fields...)
	c := &Cloud{
		Data:      make([]byte, max(rows, 0)*step),
		Fields:    packed,
		PointStep: step,
		Width:     max(rows, 0),
		Height:    1,
		Pose:      IdentityPose(),
	}

	for _, f := range packed {
		if f.IsColor() && f.Name == FieldRGB {
			for i := range c.Len() {
				c.Row(i)[f.Offset+ChannelAlpha] = 0xFF
			}
		}
	}

	return c
}

// Len returns the number of rows in Data.
func (c *Cloud) Len() int {
	if c.PointStep <= 0 {
		return 0
	}

	return len(c.Data) / c.PointStep
}

// IsOrganized reports whether the cloud has an image-like layout.
func (c *Cloud) IsOrganized() bool {
	return c.Height > 1
}

// Field returns the field named name.
func (c *Cloud) Field(name string) (Field, bool) {
	return FindField(c.Fields, name)
}

// Row returns the bytes of row i.
func (c *Cloud) Row(i int) []byte {
	base := i * c.PointStep
	return c.Data[base : base+c.PointStep : base+c.PointStep]
}

// Value decodes field f of row i.
func (c *Cloud) Value(i int, f Field) encoding.Value {
	return encoding.Decode(c.Row(i)[f.Offset:], f.Type, endian.NativeEngine())
}

// SetValue stores v into field f of row i, converting to the field type.
func (c *Cloud) SetValue(i int, f Field, v encoding.Value) {
	if v.Type != f.Type {
		switch {
		case f.Type.IsFloat() || v.Type.IsFloat():
			v = encoding.Float64Value(f.Type, v.Float64())
		case v.Type.IsSigned():
			v = encoding.Int64Value(f.Type, v.Int64())
		default:
			v = encoding.Uint64Value(f.Type, v.Uint64())
		}
	}
	v.Put(c.Row(i)[f.Offset:], endian.NativeEngine())
}

// Point returns the x, y, z values of row i. Missing coordinates read as 0.
func (c *Cloud) Point(i int) [3]float64 {
	var p [3]float64
	for j, name := range [...]string{FieldX, FieldY, FieldZ} {
		if f, ok := c.Field(name); ok {
			p[j] = c.Value(i, f).Float64()
		}
	}

	return p
}

// Color returns the channels of the packed color field of row i.
// ok is false when the cloud has no packed color field.
func (c *Cloud) Color(i int) (r, g, b, a uint8, ok bool) {
	f, found := c.colorField()
	if !found {
		return 0, 0, 0, 0, false
	}
	px := c.Row(i)[f.Offset : f.Offset+4]

	return px[ChannelRed], px[ChannelGreen], px[ChannelBlue], px[ChannelAlpha], true
}

// SetColor writes the channels of the packed color field of row i.
func (c *Cloud) SetColor(i int, r, g, b, a uint8) bool {
	f, found := c.colorField()
	if !found {
		return false
	}
	px := c.Row(i)[f.Offset : f.Offset+4]
	px[ChannelRed], px[ChannelGreen], px[ChannelBlue], px[ChannelAlpha] = r, g, b, a

	return true
}

func (c *Cloud) colorField() (Field, bool) {
	for _, f := range c.Fields {
		if f.IsColor() {
			return f, true
		}
	}

	return Field{}, false
}

// RowFinite reports whether every floating field of fields is finite in row i.
func (c *Cloud) RowFinite(i int, fields []Field) bool {
	for _, f := range fields {
		if f.Type.IsFloat() && !c.Value(i, f).IsFinite() {
			return false
		}
	}

	return true
}

// Validate checks that Data, Fields, PointStep and the organization agree.
func (c *Cloud) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil cloud", errs.ErrInvalidCloud)
	}
	if c.PointStep < 0 {
		return fmt.Errorf("%w: negative point step %d", errs.ErrInvalidCloud, c.PointStep)
	}
	if c.PointStep == 0 {
		if len(c.Data) != 0 || len(c.Fields) != 0 {
			return fmt.Errorf("%w: zero point step with %d fields and %d bytes",
				errs.ErrInvalidCloud, len(c.Fields), len(c.Data))
		}

		return nil
	}
	if len(c.Data)%c.PointStep != 0 {
		return fmt.Errorf("%w: %d data bytes is not a multiple of point step %d",
			errs.ErrInvalidCloud, len(c.Data), c.PointStep)
	}

	end := 0
	for _, f := range c.Fields {
		if !f.Type.Valid() {
			return fmt.Errorf("%w: field %q has invalid type", errs.ErrInvalidCloud, f.Name)
		}
		if f.Offset < end {
			return fmt.Errorf("%w: field %q at offset %d overlaps the previous field", errs.ErrInvalidCloud, f.Name, f.Offset)
		}
		if f.End() > c.PointStep {
			return fmt.Errorf("%w: field %q ends at %d past point step %d", errs.ErrInvalidCloud, f.Name, f.End(), c.PointStep)
		}
		end = f.End()
	}

	if c.Height > 0 && c.Width*c.Height != c.Len() {
		return fmt.Errorf("%w: %dx%d organization does not match %d rows", errs.ErrInvalidCloud, c.Width, c.Height, c.Len())
	}

	return nil
}

// Subset returns an unorganized copy of c holding the rows at indices, in
// that order. Fields, pose and header metadata are kept; index lists are not,
// since they refer to rows of c. An index may repeat.
func (c *Cloud) Subset(indices []int) (*Cloud, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rows := c.Len()
	data := make([]byte, 0, len(indices)*c.PointStep)
	for _, i := range indices {
		if i < 0 || i >= rows {
			return nil, fmt.Errorf("%w: subset index %d outside %d rows", errs.ErrInvalidCloud, i, rows)
		}
		data = append(data, c.Row(i)...)
	}

	return &Cloud{
		Data:      data,
		Fields:    append([]Field(nil), c.Fields...),
		PointStep: c.PointStep,
		Width:     len(indices),
		Height:    1,
		Pose:      c.Pose,
		Comments:  append([]string(nil), c.Comments...),
		ObjInfo:   append([]string(nil), c.ObjInfo...),
		Format:    c.Format,
	}, nil
}

package cloud

import (
	"fmt"

	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/arloliu/plyio/internal/collision"
	"github.com/arloliu/plyio/internal/hash"
)

// BindingKind tells the decoder how to store the values of one property.
type BindingKind uint8

const (
	// BindField stores the value at Offset with the field's own type.
	BindField BindingKind = iota
	// BindChannel stores the value as one byte of the packed color field.
	BindChannel
	// BindSkip reads the value and drops it. List properties bind this way.
	BindSkip
)

// Binding is the resolved destination of one declared property.
type Binding struct {
	Kind   BindingKind
	Field  int // index into Schema.Fields, -1 for BindSkip
	Offset int // byte offset in the row
	Type   format.DataType
	// Width is how far the row cursor advances after the value is stored.
	// Only the first channel of a packed color field advances it.
	Width int
}

// Schema is the row layout of the primary element.
type Schema struct {
	Fields    []Field
	PointStep int

	color    int // index of the packed color field, -1 if none
	hasAlpha bool
}

// Field returns the field named name.
func (s *Schema) Field(name string) (Field, bool) {
	return FindField(s.Fields, name)
}

// Fingerprint returns an xxHash64 over the layout. Two schemas with equal
// fingerprints have, with overwhelming probability, identical layouts.
func (s *Schema) Fingerprint() uint64 {
	return FingerprintFields(s.Fields, s.PointStep)
}

// FingerprintFields hashes field names, types, offsets and the row stride.
func FingerprintFields(fields []Field, pointStep int) uint64 {
	h := hash.NewHasher()
	h.Uint64(uint64(pointStep))
	for _, f := range fields {
		h.String(f.Name)
		h.Uint64(uint64(f.Type))
		h.Uint64(uint64(f.Offset))
		h.Uint64(uint64(max(f.Count, 1)))
	}

	return h.Sum()
}

// FillDefaults writes the default values every freshly allocated row needs.
// Today that is the opaque alpha byte of an rgb field without declared alpha.
func (s *Schema) FillDefaults(data []byte) {
	if s.color < 0 || s.hasAlpha || s.PointStep == 0 {
		return
	}

	off := s.Fields[s.color].Offset + ChannelAlpha
	for row := 0; row+s.PointStep <= len(data); row += s.PointStep {
		data[row+off] = 0xFF
	}
}

// SchemaBuilder assembles a Schema from property declarations in order.
//
// Scalar names are canonicalized through the alias table. uint8 color
// channels share one packed 4-byte field. List properties occupy no row bytes.
type SchemaBuilder struct {
	fields   []Field
	offset   int
	color    int
	hasAlpha bool
	seen     *collision.Tracker
}

// NewSchemaBuilder creates an empty builder.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{color: -1, seen: collision.NewTracker()}
}

// AddScalar declares a scalar property and returns where its values go.
//
// Parameters:
//   - name: declared property name, canonicalized before storing
//   - t: declared primitive type
//
// Returns:
//   - Binding: destination for the property's values
//   - error: ErrSchema for an invalid type or a duplicate name
func (b *SchemaBuilder) AddScalar(name string, t format.DataType) (Binding, error) {
	if !t.Valid() {
		return Binding{}, fmt.Errorf("%w: property %q has unsupported type %s", errs.ErrSchema, name, t)
	}

	canonical := CanonicalName(name)
	if err := b.seen.Track(canonical); err != nil {
		return Binding{}, err
	}

	if a, ok := lookupAlias(name); ok && a.channel >= 0 && t == format.TypeUint8 {
		return b.addChannel(a)
	}

	b.fields = append(b.fields, Field{Name: canonical, Type: t, Offset: b.offset, Count: 1})
	bind := Binding{Kind: BindField, Field: len(b.fields) - 1, Offset: b.offset, Type: t, Width: t.Size()}
	b.offset += t.Size()

	return bind, nil
}

func (b *SchemaBuilder) addChannel(a alias) (Binding, error) {
	width := 0
	if b.color < 0 {
		// Claim both packed names so a separate rgb/rgba property cannot shadow the field.
		for _, n := range []string{FieldRGB, FieldRGBA} {
			if err := b.seen.Track(n); err != nil {
				return Binding{}, err
			}
		}
		b.color = len(b.fields)
		b.fields = append(b.fields, Field{Name: FieldRGB, Type: format.TypeUint32, Offset: b.offset, Count: 1})
		b.offset += format.TypeUint32.Size()
		width = format.TypeUint32.Size()
	}
	if a.channel == ChannelAlpha {
		b.hasAlpha = true
	}

	return Binding{
		Kind:   BindChannel,
		Field:  b.color,
		Offset: b.fields[b.color].Offset + a.channel,
		Type:   format.TypeUint8,
		Width:  width,
	}, nil
}

// AddList declares a list property. Lists never create row fields, so the
// binding always skips; the name still takes part in duplicate detection.
func (b *SchemaBuilder) AddList(name string) (Binding, error) {
	if err := b.seen.Track(CanonicalName(name)); err != nil {
		return Binding{}, err
	}

	return Binding{Kind: BindSkip, Field: -1}, nil
}

// PointStep returns the row stride declared so far.
func (b *SchemaBuilder) PointStep() int {
	return b.offset
}

// Build returns the finished schema. The builder must not be used afterwards.
func (b *SchemaBuilder) Build() *Schema {
	fields := make([]Field, len(b.fields))
	copy(fields, b.fields)
	if b.color >= 0 && b.hasAlpha {
		fields[b.color].Name = FieldRGBA
	}

	return &Schema{Fields: fields, PointStep: b.offset, color: b.color, hasAlpha: b.hasAlpha}
}

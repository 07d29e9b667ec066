package cloud

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

func TestSchemaBuilder_Geometry(t *testing.T) {
	b := NewSchemaBuilder()

	for i, name := range []string{"x", "y", "z"} {
		bind, err := b.AddScalar(name, format.TypeFloat32)
		require.NoError(t, err)
		require.Equal(t, BindField, bind.Kind)
		require.Equal(t, i*4, bind.Offset)
		require.Equal(t, 4, bind.Width)
	}

	s := b.Build()
	require.Equal(t, 12, s.PointStep)
	require.Equal(t, []Field{
		{Name: "x", Type: format.TypeFloat32, Offset: 0, Count: 1},
		{Name: "y", Type: format.TypeFloat32, Offset: 4, Count: 1},
		{Name: "z", Type: format.TypeFloat32, Offset: 8, Count: 1},
	}, s.Fields)
}

func TestSchemaBuilder_Aliases(t *testing.T) {
	b := NewSchemaBuilder()
	for _, p := range []struct {
		name string
		t    format.DataType
	}{
		{"x", format.TypeFloat64},
		{"nx", format.TypeFloat32},
		{"ny", format.TypeFloat32},
		{"nz", format.TypeFloat32},
		{"scalar_intensity", format.TypeUint16},
		{"curvature", format.TypeFloat32},
		{"confidence", format.TypeUint8},
	} {
		_, err := b.AddScalar(p.name, p.t)
		require.NoError(t, err)
	}

	s := b.Build()
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	require.Equal(t, []string{"x", "normal_x", "normal_y", "normal_z", "intensity", "curvature", "confidence"}, names)
	require.Equal(t, 8+12+2+4+1, s.PointStep)

	f, ok := s.Field("intensity")
	require.True(t, ok)
	require.Equal(t, format.TypeUint16, f.Type)
	require.Equal(t, 20, f.Offset)
}

func TestSchemaBuilder_ColorCoalescing(t *testing.T) {
	b := NewSchemaBuilder()
	_, err := b.AddScalar("x", format.TypeFloat32)
	require.NoError(t, err)

	red, err := b.AddScalar("diffuse_red", format.TypeUint8)
	require.NoError(t, err)
	green, err := b.AddScalar("green", format.TypeUint8)
	require.NoError(t, err)
	blue, err := b.AddScalar("blue", format.TypeUint8)
	require.NoError(t, err)

	require.Equal(t, BindChannel, red.Kind)
	require.Equal(t, 4, red.Width, "first channel allocates the packed field")
	require.Equal(t, 0, green.Width)
	require.Equal(t, 0, blue.Width)
	require.Equal(t, 4+ChannelRed, red.Offset)
	require.Equal(t, 4+ChannelGreen, green.Offset)
	require.Equal(t, 4+ChannelBlue, blue.Offset)

	s := b.Build()
	require.Equal(t, 8, s.PointStep)
	require.Equal(t, Field{Name: FieldRGB, Type: format.TypeUint32, Offset: 4, Count: 1}, s.Fields[1])

	data := make([]byte, 2*s.PointStep)
	s.FillDefaults(data)
	require.Equal(t, byte(0xFF), data[4+ChannelAlpha])
	require.Equal(t, byte(0xFF), data[12+ChannelAlpha])
	require.Equal(t, byte(0), data[4+ChannelRed])
}

func TestSchemaBuilder_ColorWithAlpha(t *testing.T) {
	b := NewSchemaBuilder()
	for _, name := range []string{"red", "green", "blue", "alpha"} {
		_, err := b.AddScalar(name, format.TypeUint8)
		require.NoError(t, err)
	}

	s := b.Build()
	require.Len(t, s.Fields, 1)
	require.Equal(t, FieldRGBA, s.Fields[0].Name)
	require.Equal(t, 4, s.PointStep)

	data := make([]byte, 4)
	s.FillDefaults(data)
	require.Equal(t, []byte{0, 0, 0, 0}, data, "declared alpha has no default")
}

func TestSchemaBuilder_NonByteColorIsExtra(t *testing.T) {
	b := NewSchemaBuilder()
	bind, err := b.AddScalar("red", format.TypeFloat32)
	require.NoError(t, err)
	require.Equal(t, BindField, bind.Kind)

	s := b.Build()
	require.Equal(t, []Field{{Name: "red", Type: format.TypeFloat32, Offset: 0, Count: 1}}, s.Fields)
	require.Equal(t, MaskExtra, MaskOf(s.Fields))
}

func TestSchemaBuilder_Lists(t *testing.T) {
	b := NewSchemaBuilder()
	_, err := b.AddScalar("x", format.TypeFloat32)
	require.NoError(t, err)

	bind, err := b.AddList("vertex_indices")
	require.NoError(t, err)
	require.Equal(t, BindSkip, bind.Kind)
	require.Equal(t, 4, b.PointStep(), "lists occupy no row bytes")

	_, err = b.AddList("vertex_indices")
	require.ErrorIs(t, err, errs.ErrSchema)
}

func TestSchemaBuilder_Errors(t *testing.T) {
	t.Run("duplicate after aliasing", func(t *testing.T) {
		b := NewSchemaBuilder()
		_, err := b.AddScalar("nx", format.TypeFloat32)
		require.NoError(t, err)
		_, err = b.AddScalar("normal_x", format.TypeFloat32)
		require.ErrorIs(t, err, errs.ErrSchema)
	})

	t.Run("duplicate channel", func(t *testing.T) {
		b := NewSchemaBuilder()
		_, err := b.AddScalar("red", format.TypeUint8)
		require.NoError(t, err)
		_, err = b.AddScalar("diffuse_red", format.TypeUint8)
		require.ErrorIs(t, err, errs.ErrSchema)
	})

	t.Run("rgb shadowing packed color", func(t *testing.T) {
		b := NewSchemaBuilder()
		_, err := b.AddScalar("rgb", format.TypeFloat32)
		require.NoError(t, err)
		_, err = b.AddScalar("red", format.TypeUint8)
		require.ErrorIs(t, err, errs.ErrSchema)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := NewSchemaBuilder().AddScalar("x", format.TypeInvalid)
		require.ErrorIs(t, err, errs.ErrSchema)
	})
}

func TestSchema_Fingerprint(t *testing.T) {
	build := func(names ...string) *Schema {
		b := NewSchemaBuilder()
		for _, n := range names {
			_, err := b.AddScalar(n, format.TypeFloat32)
			require.NoError(t, err)
		}

		return b.Build()
	}

	require.Equal(t, build("x", "y", "z").Fingerprint(), build("x", "y", "z").Fingerprint())
	require.NotEqual(t, build("x", "y", "z").Fingerprint(), build("x", "z", "y").Fingerprint())
	require.NotEqual(t, build("x", "y").Fingerprint(), build("x", "y", "z").Fingerprint())
}

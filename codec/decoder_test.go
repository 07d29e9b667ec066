package codec

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/plyio/cloud"
	"github.com/arloliu/plyio/compress"
	"github.com/arloliu/plyio/encoding"
	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, input string, opts ...DecoderOption) (*cloud.Cloud, error) {
	t.Helper()

	base := []DecoderOption{WithFileName("test.ply"), WithLogger(quietLogger())}
	dec, err := NewDecoder(append(base, opts...)...)
	require.NoError(t, err)

	return dec.Decode(strings.NewReader(input))
}

const xyzHeader = "ply\n" +
	"format ascii 1.0\n" +
	"element vertex 2\n" +
	"property float x\n" +
	"property float y\n" +
	"property float z\n" +
	"end_header\n"

func fieldNames(fields []cloud.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}

	return out
}

func TestDecode_ScenarioA(t *testing.T) {
	c, err := decode(t, xyzHeader+"0 0 0\n1 1 1\n")
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	require.Equal(t, 12, c.PointStep)
	require.Len(t, c.Data, 24)
	require.Equal(t, []string{"x", "y", "z"}, fieldNames(c.Fields))
	require.Equal(t, [3]float64{0, 0, 0}, c.Point(0))
	require.Equal(t, [3]float64{1, 1, 1}, c.Point(1))
	require.Equal(t, 2, c.Width)
	require.Equal(t, 1, c.Height)
	require.Equal(t, format.FormatASCII, c.Format)
	require.True(t, c.Pose.IsIdentity())
	require.Nil(t, c.RangeGrid)
	require.NoError(t, c.Validate())
}

func TestDecode_ScenarioB(t *testing.T) {
	input := "ply\n" +
		"format ascii 1.0\n" +
		"element range_grid 1\n" +
		"property list uchar int vertex_indices\n" +
		"end_header\n" +
		"3 0 1 2"

	c, err := decode(t, input)
	require.NoError(t, err)
	require.NotNil(t, c.RangeGrid)

	want := []cloud.IndexEntry{{DeclaredSize: 3, Values: []int64{0, 1, 2}}}
	if diff := cmp.Diff(want, c.RangeGrid.Entries); diff != "" {
		t.Fatalf("range grid mismatch (-want +got):\n%s", diff)
	}
	require.Zero(t, c.Len())
}

func TestDecode_ScenarioD(t *testing.T) {
	c, err := decode(t, xyzHeader+"0 0 0\nabc 1 1\n")
	require.Nil(t, c)
	require.ErrorIs(t, err, errs.ErrValueFormat)

	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "test.ply", pe.File)
	require.Equal(t, 9, pe.Line)
	require.Contains(t, err.Error(), "test.ply:9")
}

func TestDecode_UnknownElementTolerance(t *testing.T) {
	plain, err := decode(t, xyzHeader+"1 2 3\n4 5 6\n")
	require.NoError(t, err)

	input := "ply\n" +
		"format ascii 1.0\n" +
		"element vertex 2\n" +
		"property float x\n" +
		"property float y\n" +
		"property float z\n" +
		"element sensor_info 2\n" +
		"property uchar id\n" +
		"property list uchar float samples\n" +
		"property double gain\n" +
		"element extra 0\n" +
		"property int nothing\n" +
		"end_header\n" +
		"1 2 3\n" +
		"4 5 6\n" +
		"7 2 0.5 0.25 1.5\n" +
		"8 0 2.5\n"

	c, err := decode(t, input)
	require.NoError(t, err)
	require.Equal(t, plain.Data, c.Data)
	require.Equal(t, plain.Fields, c.Fields)
	require.Empty(t, c.Lists)
}

func TestDecode_AliasesAndColor(t *testing.T) {
	input := "ply\n" +
		"format ascii 1.0\n" +
		"element vertex 2\n" +
		"property float x\n" +
		"property float y\n" +
		"property float z\n" +
		"property float nx\n" +
		"property float ny\n" +
		"property float nz\n" +
		"property uchar diffuse_red\n" +
		"property uchar diffuse_green\n" +
		"property uchar diffuse_blue\n" +
		"property float scalar_intensity\n" +
		"property short label\n" +
		"end_header\n" +
		"1 2 3 0 0 1 255 128 0 0.5 -7\n" +
		"4 5 6 0 1 0 10 20 30 1 300\n"

	c, err := decode(t, input)
	require.NoError(t, err)
	require.Equal(t,
		[]string{"x", "y", "z", "normal_x", "normal_y", "normal_z", "rgb", "intensity", "label"},
		fieldNames(c.Fields))
	require.Equal(t, 34, c.PointStep)

	r, g, b, a, ok := c.Color(0)
	require.True(t, ok)
	require.Equal(t, [4]uint8{255, 128, 0, 255}, [4]uint8{r, g, b, a})
	r, g, b, a, _ = c.Color(1)
	require.Equal(t, [4]uint8{10, 20, 30, 255}, [4]uint8{r, g, b, a})

	label, _ := c.Field("label")
	require.Equal(t, int64(-7), c.Value(0, label).Int64())
	require.Equal(t, int64(300), c.Value(1, label).Int64())

	nz, _ := c.Field("normal_z")
	require.Equal(t, 1.0, c.Value(0, nz).Float64())

	require.Equal(t, cloud.MaskGeometry|cloud.MaskNormals|cloud.MaskColor|cloud.MaskIntensity|cloud.MaskExtra, cloud.MaskOf(c.Fields))
}

func cameraHeader(count int) string {
	var sb strings.Builder
	sb.WriteString("element camera " + strconv.Itoa(count) + "\n")
	for _, name := range cameraProperties {
		sb.WriteString("property ")
		sb.WriteString(cameraPropertyType(name).String())
		sb.WriteString(" ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}

	return sb.String()
}

func TestDecode_Camera(t *testing.T) {
	input := "ply\n" +
		"format ascii 1.0\n" +
		"element vertex 4\n" +
		"property float x\n" +
		cameraHeader(1) +
		"end_header\n" +
		"0\n1\n2\n3\n" +
		"1 2 3 0 -1 0 1 0 0 0 0 1 0 0 0 0 0 2 2 0 0\n"

	c, err := decode(t, input)
	require.NoError(t, err)
	require.Equal(t, [3]float64{1, 2, 3}, c.Pose.Origin)
	require.InDelta(t, math.Sqrt2/2, c.Pose.Orientation.Kmag, 1e-9)
	require.Equal(t, 2, c.Width)
	require.Equal(t, 2, c.Height)
	require.True(t, c.IsOrganized())

	flat, err := decode(t, input, WithOrganize(false))
	require.NoError(t, err)
	require.Equal(t, 4, flat.Width)
	require.Equal(t, 1, flat.Height)
}

func TestDecode_CameraExtraRowsIgnored(t *testing.T) {
	input := "ply\n" +
		"format ascii 1.0\n" +
		cameraHeader(2) +
		"end_header\n" +
		"1 2 3 1 0 0 0 1 0 0 0 1 0 0 0 0 0 0 0 0 0\n" +
		"9 9 9 1 0 0 0 1 0 0 0 1 0 0 0 0 0 0 0 0 0\n"

	c, err := decode(t, input)
	require.NoError(t, err)
	require.Equal(t, [3]float64{1, 2, 3}, c.Pose.Origin)
}

const gridInput = "ply\n" +
	"format ascii 1.0\n" +
	"element vertex 2\n" +
	"property float x\n" +
	"property float y\n" +
	"property float z\n" +
	"property int label\n" +
	"element range_grid 3\n" +
	"property list uchar int vertex_indices\n" +
	"end_header\n" +
	"1 2 3 5\n" +
	"4 5 6 6\n" +
	"1 1\n" +
	"0\n" +
	"1 0\n"

func TestDecode_RangeGridReorganize(t *testing.T) {
	c, err := decode(t, gridInput)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	require.Equal(t, 3, c.Width)
	require.Equal(t, 1, c.Height)

	label, _ := c.Field("label")
	require.Equal(t, [3]float64{4, 5, 6}, c.Point(0))
	require.Equal(t, int64(6), c.Value(0, label).Int64())
	require.Equal(t, [3]float64{1, 2, 3}, c.Point(2))

	empty := c.Point(1)
	for _, v := range empty {
		require.True(t, math.IsNaN(v))
	}
	require.Zero(t, c.Value(1, label).Int64())
	require.Equal(t, 3, c.RangeGrid.Len())

	flat, err := decode(t, gridInput, WithOrganize(false))
	require.NoError(t, err)
	require.Equal(t, 2, flat.Len())
	require.Equal(t, [3]float64{1, 2, 3}, flat.Point(0))
}

func TestDecode_VertexLists(t *testing.T) {
	input := "ply\n" +
		"format ascii 1.0\n" +
		"element vertex 2\n" +
		"property float x\n" +
		"property list uchar uint neighbors\n" +
		"property float y\n" +
		"end_header\n" +
		"1 2 5 6 2\n" +
		"3 0 4\n"

	c, err := decode(t, input)
	require.NoError(t, err)
	require.Equal(t, 8, c.PointStep)
	require.Equal(t, []string{"x", "y"}, fieldNames(c.Fields))

	x, _ := c.Field("x")
	y, _ := c.Field("y")
	require.Equal(t, 2.0, c.Value(0, y).Float64())
	require.Equal(t, 3.0, c.Value(1, x).Float64())

	require.Len(t, c.Lists, 1)
	require.Equal(t, "neighbors", c.Lists[0].Property)
	want := []cloud.IndexEntry{
		{DeclaredSize: 2, Values: []int64{5, 6}},
		{DeclaredSize: 0, Values: []int64{}},
	}
	if diff := cmp.Diff(want, c.Lists[0].Entries); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Faces(t *testing.T) {
	input := "ply\n" +
		"format ascii 1.0\n" +
		"element vertex 3\n" +
		"property float x\n" +
		"element face 2\n" +
		"property list uchar int vertex_indices\n" +
		"property uchar flags\n" +
		"end_header\n" +
		"0\n1\n2\n" +
		"3 0 1 2 7\n" +
		"0 1\n"

	c, err := decode(t, input)
	require.NoError(t, err)
	require.NotNil(t, c.Polygons)

	want := []cloud.IndexEntry{
		{DeclaredSize: 3, Values: []int64{0, 1, 2}},
		{DeclaredSize: 0, Values: []int64{}},
	}
	if diff := cmp.Diff(want, c.Polygons.Entries); diff != "" {
		t.Fatalf("faces mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Binary(t *testing.T) {
	for _, f := range []format.Format{format.FormatBinaryLittleEndian, format.FormatBinaryBigEndian} {
		t.Run(f.String(), func(t *testing.T) {
			engine, ok := endian.ForFormat(f)
			require.True(t, ok)

			header := "ply\nformat " + f.String() + " 1.0\n" +
				"element vertex 2\n" +
				"property float x\n" +
				"property short label\n" +
				"element range_grid 0\n" +
				"property list uchar int vertex_indices\n" +
				"end_header\n"

			body := encoding.Float64Value(format.TypeFloat32, 1.5).Append(nil, engine)
			body = encoding.Int64Value(format.TypeInt16, -2).Append(body, engine)
			body = encoding.Float64Value(format.TypeFloat32, -0.25).Append(body, engine)
			body = encoding.Int64Value(format.TypeInt16, 1000).Append(body, engine)

			c, err := decode(t, header+string(body), WithOrganize(false))
			require.NoError(t, err)
			require.Equal(t, f, c.Format)
			require.Equal(t, 6, c.PointStep)

			x, _ := c.Field("x")
			label, _ := c.Field("label")
			require.Equal(t, 1.5, c.Value(0, x).Float64())
			require.Equal(t, int64(-2), c.Value(0, label).Int64())
			require.Equal(t, -0.25, c.Value(1, x).Float64())
			require.Equal(t, int64(1000), c.Value(1, label).Int64())

			_, err = decode(t, header+string(body[:len(body)-1]))
			require.ErrorIs(t, err, errs.ErrTruncatedBody)

			var pe *errs.ParseError
			require.True(t, errors.As(err, &pe))
			require.Equal(t, int64(len(header)+10), pe.Offset)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"duplicate property", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float x\nend_header\n0 0\n", errs.ErrSchema},
		{"duplicate camera property", "ply\nformat ascii 1.0\nelement camera 1\nproperty float view_px\nproperty double view_px\nend_header\n0 0\n", errs.ErrSchema},
		{"aliased duplicate", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float nx\nproperty float normal_x\nend_header\n0 0\n", errs.ErrSchema},
		{"missing rows", xyzHeader + "0 0 0\n", errs.ErrTruncatedBody},
		{"short row", xyzHeader + "0 0 0\n0 0\n", errs.ErrTruncatedBody},
		{"trailing values", xyzHeader + "0 0 0\n0 0 0 0\n", errs.ErrValueFormat},
		{"overflow", "ply\nformat ascii 1.0\nelement vertex 1\nproperty uchar v\nend_header\n256\n", errs.ErrValueFormat},
		{"short list", "ply\nformat ascii 1.0\nelement range_grid 1\nproperty list uchar int vertex_indices\nend_header\n3 0 1\n", errs.ErrTruncatedBody},
		{"negative list size", "ply\nformat ascii 1.0\nelement face 1\nproperty list char int vertex_indices\nend_header\n-1\n", errs.ErrValueFormat},
		{"grid index out of range", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nelement range_grid 1\nproperty list uchar int vertex_indices\nend_header\n0\n1 4\n", errs.ErrSchema},
		{"bad header", "ply\nformat ascii 1.0\nelement vertex x\nend_header\n", errs.ErrHeaderSyntax},
		{"not a ply file", "solid cube\n", errs.ErrHeaderSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := decode(t, tt.input)
			require.Nil(t, c)
			require.ErrorIs(t, err, tt.want)

			var pe *errs.ParseError
			require.True(t, errors.As(err, &pe), "error %v carries no position", err)
			require.Equal(t, "test.ply", pe.File)
		})
	}
}

func TestDecodeHeader(t *testing.T) {
	header := "ply\n" +
		"format binary_big_endian 1.0\n" +
		"comment scanned\n" +
		"obj_info rig 4\n" +
		"element vertex 1000\n" +
		"property double x\n" +
		"property uchar red\n" +
		"property uchar green\n" +
		"property uchar blue\n" +
		"property uchar alpha\n" +
		"element face 0\n" +
		"property list uchar int vertex_indices\n" +
		"end_header\n"

	dec, err := NewDecoder(WithLogger(quietLogger()))
	require.NoError(t, err)

	info, err := dec.DecodeHeader(strings.NewReader(header + "ignored body"))
	require.NoError(t, err)
	require.Equal(t, 1000, info.RowCount)
	require.Equal(t, format.FormatBinaryBigEndian, info.Format)
	require.Equal(t, "1.0", info.Version)
	require.Equal(t, int64(len(header)), info.BodyOffset)
	require.Equal(t, []string{"scanned"}, info.Comments)
	require.Equal(t, []string{"rig 4"}, info.ObjInfo)
	require.True(t, info.Pose.IsIdentity())
	require.Equal(t, []string{"x", "rgba"}, fieldNames(info.Schema.Fields))
	require.Equal(t, 12, info.Schema.PointStep)
	require.Len(t, info.Header.Elements, 2)
}

func TestDecodeHeader_CameraPose(t *testing.T) {
	const cameraRow = "1 2 3 0 -1 0 1 0 0 0 0 1 0 0 0 0 0 2 1 0 0\n"
	input := "ply\n" +
		"format ascii 1.0\n" +
		"element vertex 2\n" +
		"property float x\n" +
		"element face 1\n" +
		"property list uchar int vertex_indices\n" +
		cameraHeader(1) +
		"end_header\n" +
		"0\n1\n" +
		"3 0 1 0\n" +
		cameraRow

	dec, err := NewDecoder(WithFileName("test.ply"), WithLogger(quietLogger()))
	require.NoError(t, err)

	info, err := dec.DecodeHeader(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, info.RowCount)
	require.Equal(t, [3]float64{1, 2, 3}, info.Pose.Origin)

	c, err := dec.Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, c.Pose, info.Pose)

	// Elements after the camera element are never read.
	cameraFirst := "ply\n" +
		"format ascii 1.0\n" +
		cameraHeader(1) +
		"element vertex 2\n" +
		"property float x\n" +
		"end_header\n" +
		cameraRow +
		"garbage\n"
	info, err = dec.DecodeHeader(strings.NewReader(cameraFirst))
	require.NoError(t, err)
	require.Equal(t, [3]float64{1, 2, 3}, info.Pose.Origin)

	_, err = dec.DecodeHeader(strings.NewReader(input[:len(input)-10]))
	require.ErrorIs(t, err, errs.ErrTruncatedBody)
}

func TestDecode_HugeDeclaredCount(t *testing.T) {
	header := "ply\n" +
		"format binary_little_endian 1.0\n" +
		"element vertex 4000000000000000\n" +
		"property float x\n" +
		"end_header\n"

	_, err := decode(t, header+"\x00\x00\x80\x3f")
	require.ErrorIs(t, err, errs.ErrTruncatedBody)

	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, int64(len(header)+4), pe.Offset)

	_, err = decode(t, "ply\nformat ascii 1.0\nelement vertex 4000000000000000\nproperty float x\nend_header\n0\n")
	require.ErrorIs(t, err, errs.ErrTruncatedBody)
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "test.ply", pe.File)
}

func TestDecode_Compressed(t *testing.T) {
	raw := []byte(xyzHeader + "0 0 0\n1 1 1\n")

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			cc, err := compress.GetCodec(ct)
			require.NoError(t, err)
			packed, err := cc.Compress(raw)
			require.NoError(t, err)

			dec, err := NewDecoder(WithCompression(ct), WithLogger(quietLogger()))
			require.NoError(t, err)
			c, err := dec.Decode(bytes.NewReader(packed))
			require.NoError(t, err)
			require.Equal(t, [3]float64{1, 1, 1}, c.Point(1))
		})
	}

	dec, err := NewDecoder(WithCompression(format.CompressionZstd), WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = dec.Decode(bytes.NewReader(raw))
	require.ErrorIs(t, err, errs.ErrIO)
}

func TestDecoderOptions(t *testing.T) {
	_, err := NewDecoder(WithFileName(""))
	require.ErrorIs(t, err, errs.ErrInvalidOption)

	_, err = NewDecoder(WithLogger(nil))
	require.ErrorIs(t, err, errs.ErrInvalidOption)

	_, err = NewDecoder(WithCompression(format.CompressionType(99)))
	require.ErrorIs(t, err, errs.ErrInvalidOption)

	dec, err := NewDecoder(nil, WithFileName("a.ply"))
	require.NoError(t, err)
	require.Equal(t, "a.ply", dec.cfg.FileName())
}

package section

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/plyio/format"
)

func TestHeader_AppendTo(t *testing.T) {
	hdr := &Header{
		Format:   format.FormatBinaryLittleEndian,
		Comments: []string{"plyio generated", "two\nlines"},
		ObjInfo:  []string{"sensor 7"},
	}
	vertex := hdr.AddElement("vertex", 3)
	vertex.AddScalar("x", format.TypeFloat32)
	vertex.AddScalar("red", format.TypeUint8)
	grid := hdr.AddElement("range_grid", 3)
	grid.AddList("vertex_indices", format.TypeUint8, format.TypeInt32)

	want := "ply\n" +
		"format binary_little_endian 1.0\n" +
		"comment plyio generated\n" +
		"comment two lines\n" +
		"obj_info sensor 7\n" +
		"element vertex 3\n" +
		"property float x\n" +
		"property uchar red\n" +
		"element range_grid 3\n" +
		"property list uchar int vertex_indices\n" +
		"end_header\n"
	require.Equal(t, want, string(hdr.Bytes()))

	var buf bytes.Buffer
	n, err := hdr.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(len(want)), n)
	require.Equal(t, want, buf.String())
}

func TestHeader_EmptyComment(t *testing.T) {
	hdr := &Header{Format: format.FormatASCII, Comments: []string{""}}
	require.Equal(t, "ply\nformat ascii 1.0\ncomment\nend_header\n", string(hdr.Bytes()))
}

func TestHeader_LexRoundTrip(t *testing.T) {
	orig := &Header{
		Format:   format.FormatBinaryBigEndian,
		Version:  Version,
		Comments: []string{"a", "b c"},
		ObjInfo:  []string{"info"},
	}
	v := orig.AddElement("vertex", 10)
	v.AddScalar("x", format.TypeFloat64)
	v.AddScalar("flags", format.TypeUint16)
	f := orig.AddElement("face", 2)
	f.AddList("vertex_indices", format.TypeUint8, format.TypeUint32)
	orig.AddElement("empty", 0)

	raw := orig.Bytes()
	got, err := NewLexer(bufio.NewReader(strings.NewReader(string(raw))), "", quietLogger()).ReadHeader(nil)
	require.NoError(t, err)
	require.Equal(t, int64(len(raw)), got.BodyOffset)

	got.Lines, got.BodyOffset = 0, 0
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
}

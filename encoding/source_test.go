package encoding

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/stretchr/testify/require"
)

func TestASCIISource_Rows(t *testing.T) {
	src := NewASCIISource(bufio.NewReader(strings.NewReader("0 0 0\n\n1 1.5 -2\r\n")), 7)

	require.NoError(t, src.BeginRow())
	require.Equal(t, 8, src.Line())
	for range 3 {
		v, err := src.Next(format.TypeFloat32)
		require.NoError(t, err)
		require.Equal(t, float64(0), v.Float64())
	}
	require.NoError(t, src.EndRow())

	require.NoError(t, src.BeginRow())
	require.Equal(t, 10, src.Line(), "blank lines are skipped but counted")
	v, err := src.Next(format.TypeUint8)
	require.NoError(t, err)
	require.Equal(t, uint64(1), v.Uint64())
	v, err = src.Next(format.TypeFloat64)
	require.NoError(t, err)
	require.Equal(t, 1.5, v.Float64())
	v, err = src.Next(format.TypeInt16)
	require.NoError(t, err)
	require.Equal(t, int64(-2), v.Int64())
	require.NoError(t, src.EndRow())
	require.Equal(t, int64(-1), src.Offset())

	require.ErrorIs(t, src.BeginRow(), errs.ErrTruncatedBody)
}

func TestASCIISource_LastLineWithoutNewline(t *testing.T) {
	src := NewASCIISource(bufio.NewReader(strings.NewReader("3 0 1 2")), 0)

	require.NoError(t, src.BeginRow())
	for _, want := range []int64{3, 0, 1, 2} {
		v, err := src.Next(format.TypeInt32)
		require.NoError(t, err)
		require.Equal(t, want, v.Int64())
	}
	require.NoError(t, src.EndRow())
}

func TestASCIISource_Errors(t *testing.T) {
	t.Run("short row", func(t *testing.T) {
		src := NewASCIISource(bufio.NewReader(strings.NewReader("1 2\n")), 0)
		require.NoError(t, src.BeginRow())
		_, _ = src.Next(format.TypeFloat32)
		_, _ = src.Next(format.TypeFloat32)
		_, err := src.Next(format.TypeFloat32)
		require.ErrorIs(t, err, errs.ErrTruncatedBody)
	})

	t.Run("trailing values", func(t *testing.T) {
		src := NewASCIISource(bufio.NewReader(strings.NewReader("1 2 3\n")), 0)
		require.NoError(t, src.BeginRow())
		_, _ = src.Next(format.TypeFloat32)
		require.ErrorIs(t, src.EndRow(), errs.ErrValueFormat)
	})

	t.Run("malformed token", func(t *testing.T) {
		src := NewASCIISource(bufio.NewReader(strings.NewReader("abc\n")), 4)
		require.NoError(t, src.BeginRow())
		_, err := src.Next(format.TypeFloat32)
		require.ErrorIs(t, err, errs.ErrValueFormat)
		require.Equal(t, 5, src.Line())
	})
}

func TestBinarySource(t *testing.T) {
	engine := endian.GetBigEndianEngine()

	var buf []byte
	buf = Float64Value(format.TypeFloat32, 1.5).Append(buf, engine)
	buf = Int64Value(format.TypeInt16, -3).Append(buf, engine)
	buf = Uint64Value(format.TypeUint8, 9).Append(buf, engine)

	src := NewBinarySource(bytes.NewReader(buf), engine, 12, 100)
	require.NoError(t, src.BeginRow())

	v, err := src.Next(format.TypeFloat32)
	require.NoError(t, err)
	require.Equal(t, 1.5, v.Float64())
	require.Equal(t, int64(104), src.Offset())

	v, err = src.Next(format.TypeInt16)
	require.NoError(t, err)
	require.Equal(t, int64(-3), v.Int64())

	v, err = src.Next(format.TypeUint8)
	require.NoError(t, err)
	require.Equal(t, uint64(9), v.Uint64())
	require.NoError(t, src.EndRow())
	require.Equal(t, 12, src.Line())

	_, err = src.Next(format.TypeFloat64)
	require.ErrorIs(t, err, errs.ErrTruncatedBody)

	_, err = src.Next(format.TypeInvalid)
	require.ErrorIs(t, err, errs.ErrSchema)
}

func TestBinarySource_PartialValue(t *testing.T) {
	src := NewBinarySource(bytes.NewReader([]byte{1, 2}), endian.GetLittleEndianEngine(), 1, 0)

	_, err := src.Next(format.TypeUint32)
	require.ErrorIs(t, err, errs.ErrTruncatedBody)
}

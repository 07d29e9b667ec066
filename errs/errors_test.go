package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorFormatting(t *testing.T) {
	err := AtLine("cloud.ply", 12, fmt.Errorf("%w: token %q is not a float", ErrValueFormat, "abc"))

	require.EqualError(t, err, `cloud.ply:12: plyio: malformed value: token "abc" is not a float`)
	require.ErrorIs(t, err, ErrValueFormat)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, 12, pe.Line)
	require.Equal(t, int64(-1), pe.Offset)
}

func TestParseErrorOffset(t *testing.T) {
	err := AtOffset("scan.ply", 9, 128, ErrTruncatedBody)

	require.EqualError(t, err, "scan.ply@128: plyio: truncated body")
	require.ErrorIs(t, err, ErrTruncatedBody)
}

func TestAtLineKeepsFirstPosition(t *testing.T) {
	inner := AtLine("a.ply", 3, ErrSchema)
	outer := AtLine("a.ply", 40, fmt.Errorf("reading vertex: %w", inner))

	var pe *ParseError
	require.True(t, errors.As(outer, &pe))
	require.Equal(t, 3, pe.Line)
	require.Nil(t, AtLine("a.ply", 1, nil))
	require.Nil(t, AtOffset("a.ply", 1, 0, nil))
}

func TestNilParseError(t *testing.T) {
	var pe *ParseError
	require.Equal(t, "", pe.Error())
	require.NoError(t, pe.Unwrap())
}

package encoding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

// Source yields the values of a PLY body in declaration order.
//
// The caller brackets every element row with BeginRow and EndRow and calls
// Next once per scalar value, list size and list item. Errors wrap
// errs.ErrTruncatedBody when input runs out and errs.ErrValueFormat when a
// token is malformed; the position methods report where the failure occurred.
type Source interface {
	// BeginRow positions the source at the start of the next row.
	BeginRow() error
	// Next reads one value of type t.
	Next(t format.DataType) (Value, error)
	// EndRow verifies that the current row was consumed completely.
	EndRow() error
	// Line returns the 1-based input line of the current row.
	Line() int
	// Offset returns the byte offset of the next unread value, or -1 for
	// line oriented sources.
	Offset() int64
}

// asciiSource reads one whitespace separated row per line.
type asciiSource struct {
	r      *bufio.Reader
	line   int
	tokens []string
	pos    int
}

var _ Source = (*asciiSource)(nil)

// NewASCIISource creates a Source over an ASCII body. line is the number of
// lines already consumed by the header.
func NewASCIISource(r *bufio.Reader, line int) Source {
	return &asciiSource{r: r, line: line}
}

func (s *asciiSource) BeginRow() error {
	for {
		raw, err := s.r.ReadString('\n')
		if raw == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: unexpected end of input, expected another row", errs.ErrTruncatedBody)
			}

			return fmt.Errorf("%w: %w", errs.ErrIO, err)
		}

		s.line++
		s.tokens = strings.Fields(raw)
		s.pos = 0

		if len(s.tokens) > 0 {
			return nil
		}

		if err != nil {
			return fmt.Errorf("%w: unexpected end of input, expected another row", errs.ErrTruncatedBody)
		}
	}
}

func (s *asciiSource) Next(t format.DataType) (Value, error) {
	if s.pos >= len(s.tokens) {
		return Value{}, fmt.Errorf("%w: row has %d values, more were declared", errs.ErrTruncatedBody, len(s.tokens))
	}

	tok := s.tokens[s.pos]
	s.pos++

	return ParseText(tok, t)
}

func (s *asciiSource) EndRow() error {
	if s.pos < len(s.tokens) {
		return fmt.Errorf("%w: %d unexpected trailing values starting at %q",
			errs.ErrValueFormat, len(s.tokens)-s.pos, s.tokens[s.pos])
	}

	return nil
}

func (s *asciiSource) Line() int {
	return s.line
}

func (s *asciiSource) Offset() int64 {
	return -1
}

// binarySource reads fixed-width values in the byte order of the file.
type binarySource struct {
	r       io.Reader
	engine  endian.EndianEngine
	line    int
	offset  int64
	scratch [8]byte
}

var _ Source = (*binarySource)(nil)

// NewBinarySource creates a Source over a binary body. line is the header's
// end line and offset the byte offset of the first body byte, both used for
// error positions only.
func NewBinarySource(r io.Reader, engine endian.EndianEngine, line int, offset int64) Source {
	return &binarySource{r: r, engine: engine, line: line, offset: offset}
}

func (s *binarySource) BeginRow() error { return nil }

func (s *binarySource) Next(t format.DataType) (Value, error) {
	size := t.Size()
	if size == 0 {
		return Value{}, fmt.Errorf("%w: unsupported type %s", errs.ErrSchema, t)
	}

	buf := s.scratch[:size]
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Value{}, fmt.Errorf("%w: unexpected end of input reading %s", errs.ErrTruncatedBody, t)
		}

		return Value{}, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	s.offset += int64(size)

	return Decode(buf, t, s.engine), nil
}

func (s *binarySource) EndRow() error { return nil }

func (s *binarySource) Line() int {
	return s.line
}

func (s *binarySource) Offset() int64 {
	return s.offset
}

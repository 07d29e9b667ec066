// Package errs defines the error taxonomy shared by every plyio package.
//
// Callers classify failures with errors.Is against the sentinels below. Parse
// time failures are additionally wrapped in a *ParseError carrying the file
// name and line so messages point at the offending input.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrIO reports a missing, unreadable or unwritable file.
	ErrIO = errors.New("plyio: i/o failure")
	// ErrHeaderSyntax reports a header line the tokenizer rejects.
	ErrHeaderSyntax = errors.New("plyio: header syntax error")
	// ErrSchema reports a declared layout inconsistent with the row byte budget,
	// an unsupported primitive type, or a duplicate property.
	ErrSchema = errors.New("plyio: schema error")
	// ErrTruncatedBody reports fewer rows or values than the header declared.
	ErrTruncatedBody = errors.New("plyio: truncated body")
	// ErrValueFormat reports an ASCII token that does not parse as its declared type.
	ErrValueFormat = errors.New("plyio: malformed value")

	// ErrInvalidOption reports a rejected configuration value.
	ErrInvalidOption = errors.New("plyio: invalid option")
	// ErrInvalidCloud reports a cloud whose buffer does not match its fields.
	ErrInvalidCloud = errors.New("plyio: invalid cloud")
	// ErrListAlreadySealed reports a second finalization of an index list.
	ErrListAlreadySealed = errors.New("plyio: index list already sealed")
	// ErrUnexpectedEvent reports an event the dispatcher cannot accept in its current state.
	ErrUnexpectedEvent = errors.New("plyio: unexpected parse event")
)

// ParseError locates a parse-time failure in its input.
type ParseError struct {
	// File is the input name, "<stream>" for unnamed readers.
	File string
	// Line is the 1-based header or ASCII body line, 0 when unknown.
	Line int
	// Offset is the byte offset into the input for binary bodies, -1 when unused.
	Offset int64
	// Err is the classified cause; it wraps one of the sentinels of this package.
	Err error
}

// Error formats the error as "file:line: cause" or "file@offset: cause".
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Offset >= 0 {
		return fmt.Sprintf("%s@%d: %v", e.File, e.Offset, e.Err)
	}

	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Is.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// AtLine wraps err with a line position. A nil err stays nil, and an error that
// already carries a position is returned unchanged.
func AtLine(file string, line int, err error) error {
	if err == nil {
		return nil
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}

	return &ParseError{File: file, Line: line, Offset: -1, Err: err}
}

// AtOffset wraps err with a byte offset position, following the rules of AtLine.
func AtOffset(file string, line int, offset int64, err error) error {
	if err == nil {
		return nil
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}

	return &ParseError{File: file, Line: line, Offset: offset, Err: err}
}

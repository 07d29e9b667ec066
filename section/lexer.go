package section

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

// Lexer tokenizes a PLY header line by line and reports each declaration as
// an Event. It stops right after end_header, leaving the reader positioned at
// the first body byte.
type Lexer struct {
	r      *bufio.Reader
	file   string
	logger *slog.Logger

	line   int
	offset int64
}

// NewLexer creates a header lexer over r. file names the input in errors and
// log records; logger may be nil to use slog.Default().
func NewLexer(r *bufio.Reader, file string, logger *slog.Logger) *Lexer {
	if logger == nil {
		logger = slog.Default()
	}
	if file == "" {
		file = "<stream>"
	}

	return &Lexer{r: r, file: file, logger: logger}
}

// Line returns the number of lines consumed so far.
func (l *Lexer) Line() int {
	return l.line
}

// Offset returns the number of bytes consumed so far.
func (l *Lexer) Offset() int64 {
	return l.offset
}

// ReadHeader consumes the header and calls emit for every declaration in
// order, finishing with an EventEndHeader. An error returned by emit aborts
// the read and is returned tagged with the current line.
//
// Returns the header model assembled from the same declarations.
func (l *Lexer) ReadHeader(emit func(Event) error) (*Header, error) {
	if emit == nil {
		emit = func(Event) error { return nil }
	}

	first, err := l.readLine()
	if err != nil {
		return nil, l.fail(err)
	}
	if strings.TrimSpace(first) != Magic {
		return nil, l.syntax("missing %q magic line", Magic)
	}

	hdr := &Header{}
	seen := make(map[string]struct{})

	for {
		raw, err := l.readLine()
		if err != nil {
			return nil, l.fail(err)
		}

		text := strings.TrimLeft(raw, " \t")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			l.logger.Warn("empty header line skipped", "file", l.file, "line", l.line)
			continue
		}

		var ev Event
		switch keyword := fields[0]; keyword {
		case "format":
			if hdr.Format != format.FormatInvalid {
				return nil, l.syntax("duplicate format line")
			}
			if len(hdr.Elements) > 0 {
				return nil, l.syntax("format line after element declarations")
			}
			if len(fields) != 3 {
				return nil, l.syntax("format line needs a tag and a version, got %q", text)
			}
			f, ok := format.ParseFormat(fields[1])
			if !ok {
				return nil, l.syntax("unknown format %q", fields[1])
			}
			if fields[2] != Version {
				return nil, l.syntax("unsupported format version %q", fields[2])
			}
			hdr.Format, hdr.Version = f, fields[2]
			ev = Event{Kind: EventFormat, Format: f, Version: fields[2]}

		case "comment", "obj_info":
			rest := restOfLine(text, keyword)
			l.logger.Debug("header "+keyword, "file", l.file, "line", l.line, "text", rest)
			if keyword == "comment" {
				hdr.Comments = append(hdr.Comments, rest)
				ev = Event{Kind: EventComment, Text: rest}
			} else {
				hdr.ObjInfo = append(hdr.ObjInfo, rest)
				ev = Event{Kind: EventObjInfo, Text: rest}
			}

		case "element":
			if len(fields) != 3 {
				return nil, l.syntax("element line needs a name and a count, got %q", text)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, l.syntax("invalid element count %q", fields[2])
			}
			name := fields[1]
			if _, dup := seen[name]; dup {
				return nil, l.fail(fmt.Errorf("%w: duplicate element %q", errs.ErrSchema, name))
			}
			seen[name] = struct{}{}
			hdr.AddElement(name, count)
			ev = Event{Kind: EventElementDef, Element: name, Count: count}

		case "property":
			if len(hdr.Elements) == 0 {
				return nil, l.syntax("property declared before any element")
			}
			el := &hdr.Elements[len(hdr.Elements)-1]
			ev, err = l.property(el, fields)
			if err != nil {
				return nil, l.fail(err)
			}

		case EndHeader:
			if hdr.Format == format.FormatInvalid {
				return nil, l.syntax("missing format line")
			}
			hdr.Lines = l.line
			hdr.BodyOffset = l.offset
			if err := emit(Event{Kind: EventEndHeader}); err != nil {
				return nil, l.fail(err)
			}

			return hdr, nil

		default:
			return nil, l.syntax("unknown keyword %q", keyword)
		}

		if err := emit(ev); err != nil {
			return nil, l.fail(err)
		}
	}
}

func (l *Lexer) property(el *Element, fields []string) (Event, error) {
	if len(fields) >= 2 && fields[1] == "list" {
		if len(fields) != 5 {
			return Event{}, fmt.Errorf("%w: list property needs size type, item type and name", errs.ErrHeaderSyntax)
		}
		sizeType, ok := format.ParseDataType(fields[2])
		if !ok {
			return Event{}, fmt.Errorf("%w: unknown list size type %q", errs.ErrSchema, fields[2])
		}
		if !sizeType.IsInteger() {
			return Event{}, fmt.Errorf("%w: list size type %s is not an integer type", errs.ErrSchema, sizeType)
		}
		itemType, ok := format.ParseDataType(fields[3])
		if !ok {
			return Event{}, fmt.Errorf("%w: unknown list item type %q", errs.ErrSchema, fields[3])
		}
		el.AddList(fields[4], sizeType, itemType)

		return Event{Kind: EventListDef, Element: el.Name, Name: fields[4], SizeType: sizeType, Type: itemType}, nil
	}

	if len(fields) != 3 {
		return Event{}, fmt.Errorf("%w: property line needs a type and a name", errs.ErrHeaderSyntax)
	}
	t, ok := format.ParseDataType(fields[1])
	if !ok {
		return Event{}, fmt.Errorf("%w: unknown property type %q", errs.ErrSchema, fields[1])
	}
	el.AddScalar(fields[2], t)

	return Event{Kind: EventScalarDef, Element: el.Name, Name: fields[2], Type: t}, nil
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned as is; io.EOF is returned only when nothing
// is left.
func (l *Lexer) readLine() (string, error) {
	raw, err := l.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: %w", errs.ErrIO, err)
		}
		if raw == "" {
			return "", fmt.Errorf("%w: unexpected end of input before %s", errs.ErrHeaderSyntax, EndHeader)
		}
	}

	l.line++
	l.offset += int64(len(raw))

	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")

	return raw, nil
}

func (l *Lexer) syntax(msg string, args ...any) error {
	return l.fail(fmt.Errorf("%w: %s", errs.ErrHeaderSyntax, fmt.Sprintf(msg, args...)))
}

func (l *Lexer) fail(err error) error {
	return errs.AtLine(l.file, l.line, err)
}

// restOfLine strips the keyword and one separating blank, keeping the rest verbatim.
func restOfLine(text, keyword string) string {
	rest := text[len(keyword):]
	if rest != "" && (rest[0] == ' ' || rest[0] == '\t') {
		rest = rest[1:]
	}

	return rest
}

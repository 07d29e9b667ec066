package section

import (
	"bytes"
	"io"
	"strconv"

	"github.com/arloliu/plyio/format"
)

const (
	// Magic is the first line of every PLY file.
	Magic = "ply"
	// Version is the only format version this package reads and writes.
	Version = "1.0"
	// EndHeader terminates the header.
	EndHeader = "end_header"
)

// Property is one property declaration of an element.
type Property struct {
	Name string
	// Type is the scalar type, or the item type of a list property.
	Type format.DataType
	// SizeType is the type of the list size prefix; TypeInvalid for scalars.
	SizeType format.DataType
}

// IsList reports whether p is a list property.
func (p Property) IsList() bool {
	return p.SizeType != format.TypeInvalid
}

// Element is one element declaration with its properties in declaration order.
type Element struct {
	Name       string
	Count      int
	Properties []Property
}

// Header is the parsed or to-be-written PLY header.
type Header struct {
	Format   format.Format
	Version  string
	Comments []string
	ObjInfo  []string
	Elements []Element

	// Lines is the number of lines the header occupies, end_header included.
	Lines int
	// BodyOffset is the byte offset of the first body byte.
	BodyOffset int64
}

// Element returns the element named name, if declared.
func (h *Header) Element(name string) (*Element, bool) {
	for i := range h.Elements {
		if h.Elements[i].Name == name {
			return &h.Elements[i], true
		}
	}

	return nil, false
}

// AddElement appends an element declaration and returns it for property setup.
func (h *Header) AddElement(name string, count int) *Element {
	h.Elements = append(h.Elements, Element{Name: name, Count: count})
	return &h.Elements[len(h.Elements)-1]
}

// AddScalar appends a scalar property declaration.
func (e *Element) AddScalar(name string, t format.DataType) {
	e.Properties = append(e.Properties, Property{Name: name, Type: t})
}

// AddList appends a list property declaration.
func (e *Element) AddList(name string, sizeType, itemType format.DataType) {
	e.Properties = append(e.Properties, Property{Name: name, Type: itemType, SizeType: sizeType})
}

// AppendTo appends the textual header to dst, one declaration per line,
// terminated by the end_header line.
func (h *Header) AppendTo(dst []byte) []byte {
	version := h.Version
	if version == "" {
		version = Version
	}

	dst = append(dst, Magic+"\n"...)
	dst = append(dst, "format "...)
	dst = append(dst, h.Format.String()...)
	dst = append(dst, ' ')
	dst = append(dst, version...)
	dst = append(dst, '\n')

	for _, c := range h.Comments {
		dst = appendKeywordLine(dst, "comment", c)
	}
	for _, o := range h.ObjInfo {
		dst = appendKeywordLine(dst, "obj_info", o)
	}

	for _, el := range h.Elements {
		dst = append(dst, "element "...)
		dst = append(dst, el.Name...)
		dst = append(dst, ' ')
		dst = strconv.AppendInt(dst, int64(el.Count), 10)
		dst = append(dst, '\n')

		for _, p := range el.Properties {
			dst = append(dst, "property "...)
			if p.IsList() {
				dst = append(dst, "list "...)
				dst = append(dst, p.SizeType.String()...)
				dst = append(dst, ' ')
			}
			dst = append(dst, p.Type.String()...)
			dst = append(dst, ' ')
			dst = append(dst, p.Name...)
			dst = append(dst, '\n')
		}
	}

	return append(dst, EndHeader+"\n"...)
}

// Bytes returns the textual header.
func (h *Header) Bytes() []byte {
	return h.AppendTo(nil)
}

// WriteTo writes the textual header to w.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h.Bytes())
	return int64(n), err
}

func appendKeywordLine(dst []byte, keyword, text string) []byte {
	dst = append(dst, keyword...)
	if text != "" {
		dst = append(dst, ' ')
		// A newline inside the text would start a bogus header line.
		dst = append(dst, bytes.ReplaceAll([]byte(text), []byte{'\n'}, []byte{' '})...)
	}

	return append(dst, '\n')
}

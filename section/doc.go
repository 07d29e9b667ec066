// Package section models the textual PLY header and the event stream that
// drives decoding.
//
// Lexer reads a header line by line and reports each declaration (format,
// comment, obj_info, element, scalar and list property, end_header) as an
// Event. The codec package produces the body events of the same type while
// walking the rows, so one consumer sees the whole file as a single ordered
// stream.
//
// Header is the in-memory model of the declarations. The lexer assembles it
// on read and the write path serializes it with AppendTo or WriteTo.
package section

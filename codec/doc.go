// Package codec reads and writes PLY point clouds.
//
// # Decoding
//
// A Decoder runs the header lexer and the body walker as one event stream
// into a Dispatcher. The dispatcher is a state machine that resolves every
// declared property to its destination when the header is parsed:
//
//   - vertex scalars are stored in the row buffer through the schema
//   - camera properties fill the pose and the viewport
//   - range_grid and face index lists are collected as IndexLists
//   - everything else is consumed and discarded
//
// Any failure aborts the read. Errors wrap one of the errs sentinels inside an
// errs.ParseError carrying the file name and the line (header and ASCII body)
// or byte offset (binary body).
//
//	dec, err := codec.NewDecoder(codec.WithFileName("scan.ply"))
//	c, err := dec.Decode(f)
//
// # Encoding
//
// An Encoder writes a cloud as ASCII or binary in either byte order. Packed
// color fields are expanded to uchar channels, padding fields are skipped and
// a field mask restricts the emitted groups. A non-identity pose or an
// organized layout adds a camera element. In ASCII mode WithValidPointsOnly
// drops rows with non-finite coordinates and records the layout in a
// range_grid element instead.
//
//	enc, err := codec.NewEncoder(codec.WithBigEndian())
//	err = enc.Encode(f, c)
//
// Both directions can compress or decompress the whole file with the codecs
// of the compress package.
package codec

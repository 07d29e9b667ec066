// Package encoding implements the value codec of the PLY body.
//
// A Value carries one primitive (char … double) without loss. It converts
// between three representations:
//
//   - binary: Decode / Put / Append with an endian.EndianEngine
//   - ASCII: ParseText / AppendText with caller-chosen float precision
//   - numeric: Float64, Int64, Uint64 and the matching constructors
//
// Source abstracts the body reader. NewASCIISource reads one row per line and
// NewBinarySource reads fixed-width values in the file's byte order; both
// report positions for error messages.
//
// # Example
//
//	v, err := encoding.ParseText("0.25", format.TypeFloat32)
//	if err != nil {
//	    return err
//	}
//	buf := v.Append(nil, endian.NativeEngine())
package encoding

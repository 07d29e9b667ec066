// Package plyio reads and writes point clouds stored as PLY files.
//
// PLY ("Polygon File Format") describes its content in a text header made of
// elements and typed properties, followed by an ASCII or binary body. plyio
// maps the vertex element to a packed, row-major cloud.Cloud and understands
// the camera, range_grid and face elements written by common scanners and
// point cloud tools. Elements it does not know are read and discarded.
//
// # Core Features
//
//   - ASCII, binary_little_endian and binary_big_endian bodies
//   - All eight PLY scalar types, list properties with any integer size type
//   - Property aliases (nx, diffuse_red, scalar_intensity, ...) mapped to canonical fields
//   - uchar color channels packed into one rgb/rgba field
//   - Sensor pose and organized layouts through the camera and range_grid elements
//   - Mesh output with a face element
//   - Whole-file compression (Zstd, S2, LZ4) inferred from the file extension
//   - Positional errors ("file:line" or "file@offset") wrapping errs sentinels
//
// # Basic Usage
//
// Reading a file:
//
//	c, err := plyio.Read("scan.ply")
//	if err != nil {
//	    return err
//	}
//	for i := range c.Len() {
//	    p := c.Point(i)
//	    fmt.Println(p[0], p[1], p[2])
//	}
//
// Writing a binary, zstd compressed file:
//
//	err := plyio.Write("scan.ply.zst", c, codec.WithBinary())
//
// # Package Structure
//
// This package wraps the codec package with file handling. Use codec.Decoder
// and codec.Encoder directly to read from or write to arbitrary streams.
package plyio

import (
	"errors"
	"fmt"
	"os"

	"github.com/arloliu/plyio/cloud"
	"github.com/arloliu/plyio/codec"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
)

// ReadHeader parses the header of the file at path.
//
// Vertex rows are not stored. When a camera element is declared the body is
// read up to its end so the returned pose matches the one Read reports.
//
// Parameters:
//   - path: File to read; a .zst, .s2 or .lz4 extension selects decompression
//   - opts: Optional decoder configuration, applied after the defaults derived from path
//
// Returns:
//   - *codec.HeaderInfo: schema, declared row count, format and header metadata
//   - error: ErrIO if the file cannot be opened, a positional error otherwise
func ReadHeader(path string, opts ...codec.DecoderOption) (*codec.HeaderInfo, error) {
	dec, err := newFileDecoder(path, opts)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	defer f.Close()

	return dec.DecodeHeader(f)
}

// Read parses the file at path into a cloud.
//
// Parameters:
//   - path: File to read; a .zst, .s2 or .lz4 extension selects decompression
//   - opts: Optional decoder configuration (logger, organization, ...)
//
// Returns:
//   - *cloud.Cloud: the vertex rows with pose, layout and index lists
//   - error: ErrIO if the file cannot be opened, a positional error otherwise
//
// Example:
//
//	c, err := plyio.Read("scan.ply", codec.WithOrganize(false))
func Read(path string, opts ...codec.DecoderOption) (*cloud.Cloud, error) {
	dec, err := newFileDecoder(path, opts)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	defer f.Close()

	return dec.Decode(f)
}

// Write stores c at path, replacing any existing file.
//
// Parameters:
//   - path: Destination; a .zst, .s2 or .lz4 extension selects compression
//   - c: Cloud to write
//   - opts: Optional encoder configuration (format, precision, camera, masks, ...)
//
// Returns:
//   - error: ErrInvalidCloud for inconsistent clouds, ErrIO for file failures
//
// Example:
//
//	err := plyio.Write("scan.ply", c, codec.WithBinary(), codec.WithPrecision(-1))
func Write(path string, c *cloud.Cloud, opts ...codec.EncoderOption) error {
	return writeFile(path, opts, func(enc *codec.Encoder, f *os.File) error {
		return enc.Encode(f, c)
	})
}

// WriteMesh stores c as a mesh at path: the vertex element followed by a face
// element built from c.Polygons. ASCII floats default to 5 significant digits.
func WriteMesh(path string, c *cloud.Cloud, opts ...codec.EncoderOption) error {
	return writeFile(path, opts, func(enc *codec.Encoder, f *os.File) error {
		return enc.EncodeMesh(f, c)
	})
}

// WriteSubset stores the rows of c at indices, in that order, as an
// unorganized cloud at path. Options are those of Write.
//
// Example:
//
//	err := plyio.WriteSubset("inliers.ply", c, inliers, codec.WithBinary())
func WriteSubset(path string, c *cloud.Cloud, indices []int, opts ...codec.EncoderOption) error {
	sub, err := c.Subset(indices)
	if err != nil {
		return err
	}

	return Write(path, sub, opts...)
}

func newFileDecoder(path string, opts []codec.DecoderOption) (*codec.Decoder, error) {
	all := make([]codec.DecoderOption, 0, len(opts)+2)
	all = append(all,
		codec.WithFileName(path),
		codec.WithCompression(format.CompressionFromPath(path)),
	)

	return codec.NewDecoder(append(all, opts...)...)
}

func writeFile(path string, opts []codec.EncoderOption, encode func(*codec.Encoder, *os.File) error) (err error) {
	all := make([]codec.EncoderOption, 0, len(opts)+1)
	all = append(all, codec.WithEncoderCompression(format.CompressionFromPath(path)))

	enc, err := codec.NewEncoder(append(all, opts...)...)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %w", errs.ErrIO, cerr))
		}
	}()

	return encode(enc, f)
}

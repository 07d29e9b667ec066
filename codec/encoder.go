package codec

import (
	"fmt"
	"io"
	"math"

	"github.com/arloliu/plyio/cloud"
	"github.com/arloliu/plyio/compress"
	"github.com/arloliu/plyio/encoding"
	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/arloliu/plyio/internal/options"
	"github.com/arloliu/plyio/internal/pool"
)

// flushThreshold is the buffered size at which an uncompressed body is
// handed to the writer.
const flushThreshold = 1024 * 1024

// Encoder writes clouds as PLY files. An Encoder holds no per-write state
// and may be used from several goroutines.
type Encoder struct {
	cfg *EncoderConfig
}

// NewEncoder creates an encoder.
//
// Parameters:
//   - opts: Optional configuration (format, byte order, precision, camera, masks, compression)
//
// Returns:
//   - *Encoder: encoder ready for use
//   - error: ErrInvalidOption if an option rejects its value
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := NewEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{cfg: cfg}, nil
}

// output collects the encoded file and hands it to w, compressing it first
// when configured.
type output struct {
	w          io.Writer
	buf        *pool.ByteBuffer
	compressed bool
	written    int64
}

func (e *Encoder) newOutput(w io.Writer) *output {
	return &output{
		w:          w,
		buf:        pool.GetBodyBuffer(),
		compressed: e.cfg.compression != format.CompressionNone,
	}
}

func (o *output) maybeFlush() error {
	if o.compressed || o.buf.Len() < flushThreshold {
		return nil
	}

	return o.flush()
}

func (o *output) flush() error {
	n, err := o.buf.WriteTo(o.w)
	o.written += n
	o.buf.Reset()
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	return nil
}

func (o *output) finish(comp format.CompressionType) error {
	if !o.compressed {
		return o.flush()
	}

	cc, err := compress.GetCodec(comp)
	if err != nil {
		return err
	}
	data, err := cc.Compress(o.buf.Bytes())
	if err != nil {
		return fmt.Errorf("%w: %s compression: %w", errs.ErrIO, comp, err)
	}

	n, err := o.w.Write(data)
	o.written += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrIO, err)
	}

	return nil
}

func (o *output) release() {
	pool.PutBodyBuffer(o.buf)
}

// Encode writes c to w as a complete PLY file.
func (e *Encoder) Encode(w io.Writer, c *cloud.Cloud) error {
	if err := c.Validate(); err != nil {
		return err
	}

	cols, fields, err := vertexColumns(c, e.cfg.mask)
	if err != nil {
		return err
	}

	binary := e.cfg.binary
	validOnly := e.cfg.validOnly && !binary
	if e.cfg.validOnly && binary {
		e.cfg.logger.Debug("valid points only is ignored for binary output")
	}

	rows := c.Len()
	var valid []bool
	count := rows
	if validOnly {
		valid = make([]bool, rows)
		count = 0
		for i := range rows {
			if c.RowFinite(i, fields) {
				valid[i] = true
				count++
			}
		}
	}

	hdr, err := e.GenerateHeader(c, count, binary, e.cfg.useCamera)
	if err != nil {
		return err
	}

	out := e.newOutput(w)
	defer out.release()
	out.buf.B = hdr.AppendTo(out.buf.B)

	if binary {
		err = e.binaryRows(out, c, cols)
	} else {
		err = e.asciiRows(out, c, cols, valid, e.cfg.precision)
	}
	if err != nil {
		return err
	}

	if el, ok := hdr.Element(CameraElement); ok && el.Count == 1 {
		e.cameraRow(out, c, binary)
	}
	if validOnly {
		writeRangeGrid(out, valid)
	}

	if err := out.finish(e.cfg.compression); err != nil {
		return err
	}

	e.cfg.logger.Debug("ply encoded",
		"format", hdr.Format.String(),
		"rows", count,
		"skipped", rows-count,
		"bytes", out.written,
	)

	return nil
}

// EncodeMesh writes c as a mesh: the vertex element followed by a face
// element holding c.Polygons. ASCII floats default to DefaultMeshPrecision.
func (e *Encoder) EncodeMesh(w io.Writer, c *cloud.Cloud) error {
	if err := c.Validate(); err != nil {
		return err
	}

	cols, _, err := vertexColumns(c, e.cfg.mask)
	if err != nil {
		return err
	}

	rows := c.Len()
	for i, entry := range faceEntries(c) {
		if len(entry.Values) > math.MaxUint8 {
			return fmt.Errorf("%w: face %d has %d vertices, at most %d fit a uchar count",
				errs.ErrInvalidCloud, i, len(entry.Values), math.MaxUint8)
		}
		for _, idx := range entry.Values {
			if idx < 0 || idx >= int64(rows) || idx > math.MaxInt32 {
				return fmt.Errorf("%w: face %d references vertex %d of %d", errs.ErrInvalidCloud, i, idx, rows)
			}
		}
	}

	binary := e.cfg.binary
	hdr, err := e.baseHeader(c, rows, binary)
	if err != nil {
		return err
	}
	face := hdr.AddElement(FaceElement, len(faceEntries(c)))
	face.AddList("vertex_indices", format.TypeUint8, format.TypeInt32)

	precision := e.cfg.precision
	if !e.cfg.precisionSet {
		precision = DefaultMeshPrecision
	}

	out := e.newOutput(w)
	defer out.release()
	out.buf.B = hdr.AppendTo(out.buf.B)

	if binary {
		err = e.binaryRows(out, c, cols)
	} else {
		err = e.asciiRows(out, c, cols, nil, precision)
	}
	if err != nil {
		return err
	}

	for _, entry := range faceEntries(c) {
		if binary {
			out.buf.B = encoding.Uint64Value(format.TypeUint8, uint64(len(entry.Values))).Append(out.buf.B, e.cfg.engine)
			for _, idx := range entry.Values {
				out.buf.B = encoding.Int64Value(format.TypeInt32, idx).Append(out.buf.B, e.cfg.engine)
			}

			continue
		}

		out.buf.B = encoding.Uint64Value(format.TypeUint8, uint64(len(entry.Values))).AppendText(out.buf.B, precision)
		for _, idx := range entry.Values {
			out.buf.B = append(out.buf.B, ' ')
			out.buf.B = encoding.Int64Value(format.TypeInt32, idx).AppendText(out.buf.B, precision)
		}
		out.buf.B = append(out.buf.B, '\n')
	}

	return out.finish(e.cfg.compression)
}

func faceEntries(c *cloud.Cloud) []cloud.IndexEntry {
	if c.Polygons == nil {
		return nil
	}

	return c.Polygons.Entries
}

// asciiRows writes one line per row. Rows with valid[i] false are skipped;
// a nil valid writes every row.
func (e *Encoder) asciiRows(out *output, c *cloud.Cloud, cols []column, valid []bool, precision int) error {
	// Rows without properties have no body lines.
	if len(cols) == 0 {
		return nil
	}

	line := pool.GetRowBuffer()
	defer pool.PutRowBuffer(line)

	native := endian.NativeEngine()
	for i := range c.Len() {
		if valid != nil && !valid[i] {
			continue
		}

		row := c.Row(i)
		line.Reset()
		for j, col := range cols {
			if j > 0 {
				line.B = append(line.B, ' ')
			}
			line.B = encoding.Decode(row[col.offset:], col.t, native).AppendText(line.B, precision)
		}
		line.B = append(line.B, '\n')

		_, _ = out.buf.Write(line.B)
		if err := out.maybeFlush(); err != nil {
			return err
		}
	}

	return nil
}

// binaryRows writes the emitted bytes of every row in the configured byte
// order, swapping only when it differs from the host's.
func (e *Encoder) binaryRows(out *output, c *cloud.Cloud, cols []column) error {
	native := endian.NativeEngine()
	swap := !endian.CompareNativeEndian(e.cfg.engine)

	for i := range c.Len() {
		row := c.Row(i)
		for _, col := range cols {
			if !swap {
				out.buf.B = append(out.buf.B, row[col.offset:col.offset+col.t.Size()]...)
				continue
			}
			out.buf.B = encoding.Decode(row[col.offset:], col.t, native).Append(out.buf.B, e.cfg.engine)
		}

		if err := out.maybeFlush(); err != nil {
			return err
		}
	}

	return nil
}

// cameraRow writes the single camera row in property order.
func (e *Encoder) cameraRow(out *output, c *cloud.Cloud, binary bool) {
	axes := c.Pose.Axes()
	values := make(map[string]float64, len(cameraProperties))
	values["view_px"], values["view_py"], values["view_pz"] = c.Pose.Origin[0], c.Pose.Origin[1], c.Pose.Origin[2]
	for i, axis := range [...]string{"x_axis", "y_axis", "z_axis"} {
		values[axis+"x"], values[axis+"y"], values[axis+"z"] = axes[i][0], axes[i][1], axes[i][2]
	}
	values["viewportx"], values["viewporty"] = float64(c.Width), float64(c.Height)

	for i, name := range cameraProperties {
		v := encoding.Float64Value(cameraPropertyType(name), values[name])
		if binary {
			out.buf.B = v.Append(out.buf.B, e.cfg.engine)
			continue
		}
		if i > 0 {
			out.buf.B = append(out.buf.B, ' ')
		}
		out.buf.B = v.AppendText(out.buf.B, e.cfg.precision)
	}
	if !binary {
		out.buf.B = append(out.buf.B, '\n')
	}
}

// writeRangeGrid writes one range_grid line per cloud row: "1 <index>" for a
// written row, "0" for a skipped one.
func writeRangeGrid(out *output, valid []bool) {
	written := 0
	for _, ok := range valid {
		if !ok {
			out.buf.B = append(out.buf.B, "0\n"...)
			continue
		}
		out.buf.B = append(out.buf.B, "1 "...)
		out.buf.B = encoding.Int64Value(format.TypeInt32, int64(written)).AppendText(out.buf.B, 0)
		out.buf.B = append(out.buf.B, '\n')
		written++
	}
}

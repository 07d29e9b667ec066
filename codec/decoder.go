package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/plyio/cloud"
	"github.com/arloliu/plyio/compress"
	"github.com/arloliu/plyio/encoding"
	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/arloliu/plyio/internal/options"
	"github.com/arloliu/plyio/section"
)

const readBufferSize = 64 * 1024

// errCameraRead stops a header-only body walk after the camera element.
var errCameraRead = errors.New("camera element read")

// HeaderInfo describes a PLY file without its body.
type HeaderInfo struct {
	// Schema is the vertex row layout a full read would produce.
	Schema *cloud.Schema
	// RowCount is the declared number of vertex rows.
	RowCount int
	// Pose comes from the camera element, or is the identity without one.
	Pose       cloud.Pose
	Format     format.Format
	Version    string
	BodyOffset int64
	Comments   []string
	ObjInfo    []string
	// Header is the full declaration model, including non-vertex elements.
	Header *section.Header
}

// Decoder reads PLY files into clouds. A Decoder holds no per-read state and
// may be used from several goroutines.
type Decoder struct {
	cfg *DecoderConfig
}

// NewDecoder creates a decoder.
//
// Parameters:
//   - opts: Optional configuration (file name, logger, organization, compression)
//
// Returns:
//   - *Decoder: decoder ready for use
//   - error: ErrInvalidOption if an option rejects its value
func NewDecoder(opts ...DecoderOption) (*Decoder, error) {
	cfg := NewDecoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Decoder{cfg: cfg}, nil
}

// DecodeHeader parses the header of r. When a camera element is declared the
// body is read up to its end, dropping vertex values, to obtain the pose.
func (d *Decoder) DecodeHeader(r io.Reader) (*HeaderInfo, error) {
	br, err := d.input(r)
	if err != nil {
		return nil, err
	}

	hdr, disp, err := d.readHeader(br, true)
	if err != nil {
		return nil, err
	}

	pose := cloud.IdentityPose()
	if declaresCamera(hdr) {
		if pose, err = d.readPose(br, hdr, disp); err != nil {
			return nil, err
		}
	}

	return &HeaderInfo{
		Schema:     disp.Schema(),
		RowCount:   disp.VertexCount(),
		Pose:       pose,
		Format:     hdr.Format,
		Version:    hdr.Version,
		BodyOffset: hdr.BodyOffset,
		Comments:   hdr.Comments,
		ObjInfo:    hdr.ObjInfo,
		Header:     hdr,
	}, nil
}

// Decode parses a complete PLY file from r. Any failure aborts the read and
// no partial cloud is returned.
func (d *Decoder) Decode(r io.Reader) (*cloud.Cloud, error) {
	br, err := d.input(r)
	if err != nil {
		return nil, err
	}

	hdr, disp, err := d.readHeader(br, false)
	if err != nil {
		return nil, err
	}

	src := bodySource(br, hdr)
	if err := walkBody(d.cfg.file, hdr, src, disp.Handle); err != nil {
		return nil, err
	}

	c, err := disp.Cloud(d.cfg.organize)
	if err != nil {
		return nil, errs.AtLine(d.cfg.file, src.Line(), err)
	}

	d.cfg.logger.Debug("ply decoded",
		"file", d.cfg.file,
		"format", c.Format.String(),
		"rows", c.Len(),
		"point_step", c.PointStep,
		"organized", c.IsOrganized(),
	)

	return c, nil
}

func (d *Decoder) readHeader(br *bufio.Reader, headerOnly bool) (*section.Header, *Dispatcher, error) {
	disp := NewDispatcher(d.cfg.file, d.cfg.logger)
	if headerOnly {
		disp.DiscardRows()
	}
	lexer := section.NewLexer(br, d.cfg.file, d.cfg.logger)

	hdr, err := lexer.ReadHeader(disp.Handle)
	if err != nil {
		return nil, nil, err
	}

	return hdr, disp, nil
}

func (d *Decoder) readPose(br *bufio.Reader, hdr *section.Header, disp *Dispatcher) (cloud.Pose, error) {
	err := walkBody(d.cfg.file, hdr, bodySource(br, hdr), func(ev section.Event) error {
		if err := disp.Handle(ev); err != nil {
			return err
		}
		if ev.Kind == section.EventElementEnd && ev.Element == CameraElement {
			return errCameraRead
		}

		return nil
	})
	if err != nil && !errors.Is(err, errCameraRead) {
		return cloud.Pose{}, err
	}

	return disp.Pose(), nil
}

func declaresCamera(hdr *section.Header) bool {
	for _, el := range hdr.Elements {
		if el.Name == CameraElement && el.Count > 0 {
			return true
		}
	}

	return false
}

func bodySource(br *bufio.Reader, hdr *section.Header) encoding.Source {
	if hdr.Format.IsBinary() {
		engine, _ := endian.ForFormat(hdr.Format)
		return encoding.NewBinarySource(br, engine, hdr.Lines, hdr.BodyOffset)
	}

	return encoding.NewASCIISource(br, hdr.Lines)
}

// input returns a buffered reader over the decompressed content of r.
func (d *Decoder) input(r io.Reader) (*bufio.Reader, error) {
	if d.cfg.compression == format.CompressionNone {
		br := bufio.NewReaderSize(r, readBufferSize)
		head, _ := br.Peek(compress.MagicLen)
		if detected := compress.Detect(head); detected != format.CompressionNone {
			d.cfg.logger.Warn("input looks compressed, set the matching compression option",
				"file", d.cfg.file, "compression", detected.String())
		}

		return br, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrIO, d.cfg.file, err)
	}

	cc, err := compress.GetCodec(d.cfg.compression)
	if err != nil {
		return nil, err
	}

	raw, err := cc.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s decompression: %w", errs.ErrIO, d.cfg.file, d.cfg.compression, err)
	}

	return bufio.NewReaderSize(bytes.NewReader(raw), readBufferSize), nil
}

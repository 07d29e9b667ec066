package codec

import (
	"fmt"

	"github.com/arloliu/plyio/cloud"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/arloliu/plyio/section"
)

// GeneratedComment is the first comment line of every written header.
const GeneratedComment = "plyio generated"

// column is one emitted vertex property: a field, or one channel of a packed color field.
type column struct {
	name   string
	t      format.DataType
	offset int
}

// vertexColumns resolves the vertex properties a cloud is written with under mask.
func vertexColumns(c *cloud.Cloud, mask cloud.Mask) ([]column, []cloud.Field, error) {
	fields := cloud.EmittedFields(c.Fields, mask)
	cols := make([]column, 0, len(fields)+3)

	for _, f := range fields {
		if f.Count > 1 {
			return nil, nil, fmt.Errorf("%w: field %q has %d elements, PLY properties are scalar",
				errs.ErrInvalidCloud, f.Name, f.Count)
		}
		if f.IsColor() {
			for _, ch := range cloud.ColorChannels(f, mask.Has(cloud.MaskAlpha)) {
				cols = append(cols, column{name: ch.Name, t: format.TypeUint8, offset: ch.Offset})
			}

			continue
		}
		cols = append(cols, column{name: f.Name, t: f.Type, offset: f.Offset})
	}

	return cols, fields, nil
}

// cameraProperties lists the camera element in write order. viewportx and
// viewporty are int, everything else double.
var cameraProperties = []string{
	"view_px", "view_py", "view_pz",
	"x_axisx", "x_axisy", "x_axisz",
	"y_axisx", "y_axisy", "y_axisz",
	"z_axisx", "z_axisy", "z_axisz",
	"focal", "scalex", "scaley", "centerx", "centery",
	"viewportx", "viewporty",
	"k1", "k2",
}

func cameraPropertyType(name string) format.DataType {
	if name == "viewportx" || name == "viewporty" {
		return format.TypeInt32
	}

	return format.TypeFloat64
}

// wantsCamera reports whether a camera element carries information for c.
func wantsCamera(c *cloud.Cloud) bool {
	return !c.Pose.IsIdentity() || c.IsOrganized()
}

// GenerateHeader builds the header for writing c.
//
// Parameters:
//   - c: cloud to describe
//   - validPoints: vertex count written to the header
//   - binary: whether the body is binary in the configured byte order
//   - includeCamera: emit the camera element when the pose or organization needs it
//
// Returns:
//   - *section.Header: header model; serialize it with AppendTo or WriteTo
//   - error: ErrInvalidCloud for fields PLY cannot express
//
// In ASCII mode with valid-points-only, a range_grid element with one entry
// per cloud row replaces the camera element.
func (e *Encoder) GenerateHeader(c *cloud.Cloud, validPoints int, binary, includeCamera bool) (*section.Header, error) {
	hdr, err := e.baseHeader(c, validPoints, binary)
	if err != nil {
		return nil, err
	}

	switch {
	case e.cfg.validOnly && !binary:
		grid := hdr.AddElement(RangeGridElement, c.Len())
		grid.AddList("vertex_indices", format.TypeUint8, format.TypeInt32)
	case includeCamera && wantsCamera(c):
		cam := hdr.AddElement(CameraElement, 1)
		for _, name := range cameraProperties {
			cam.AddScalar(name, cameraPropertyType(name))
		}
	}

	return hdr, nil
}

// baseHeader builds format, comment, obj_info and vertex declarations.
func (e *Encoder) baseHeader(c *cloud.Cloud, validPoints int, binary bool) (*section.Header, error) {
	cols, _, err := vertexColumns(c, e.cfg.mask)
	if err != nil {
		return nil, err
	}

	hdr := &section.Header{Format: format.FormatASCII, Version: section.Version}
	if binary {
		hdr.Format = e.cfg.Format()
	}

	hdr.Comments = append(hdr.Comments, GeneratedComment)
	for _, cm := range c.Comments {
		if cm != GeneratedComment {
			hdr.Comments = append(hdr.Comments, cm)
		}
	}
	hdr.Comments = append(hdr.Comments, e.cfg.comments...)
	hdr.ObjInfo = append(hdr.ObjInfo, c.ObjInfo...)

	vertex := hdr.AddElement(VertexElement, validPoints)
	for _, col := range cols {
		vertex.AddScalar(col.name, col.t)
	}

	return hdr, nil
}

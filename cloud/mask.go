package cloud

import "strings"

// Mask is a set of semantic field groups.
type Mask uint8

const (
	MaskGeometry Mask = 1 << iota
	MaskNormals
	MaskColor
	MaskAlpha
	MaskIntensity
	MaskCurvature
	MaskExtra

	MaskNone Mask = 0
	MaskAll       = MaskGeometry | MaskNormals | MaskColor | MaskAlpha | MaskIntensity | MaskCurvature | MaskExtra
)

var maskNames = []struct {
	bit  Mask
	name string
}{
	{MaskGeometry, "geometry"},
	{MaskNormals, "normals"},
	{MaskColor, "color"},
	{MaskAlpha, "alpha"},
	{MaskIntensity, "intensity"},
	{MaskCurvature, "curvature"},
	{MaskExtra, "extra"},
}

// Has reports whether every group of o is in m.
func (m Mask) Has(o Mask) bool {
	return m&o == o
}

func (m Mask) String() string {
	if m == MaskNone {
		return "none"
	}

	var parts []string
	for _, n := range maskNames {
		if m.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}

	return strings.Join(parts, "|")
}

// GroupOf returns the group a stored field belongs to. Padding fields belong
// to no group. A packed rgba field belongs to both color and alpha.
func GroupOf(f Field) Mask {
	if f.IsPadding() {
		return MaskNone
	}
	if f.IsColor() {
		if f.Name == FieldRGBA {
			return MaskColor | MaskAlpha
		}

		return MaskColor
	}
	// Unpacked color channels are ordinary extra fields.
	if a, ok := lookupAlias(f.Name); ok && a.name == f.Name && a.channel < 0 {
		return a.group
	}

	return MaskExtra
}

// MaskOf returns the union of the groups present in fields.
func MaskOf(fields []Field) Mask {
	var m Mask
	for _, f := range fields {
		m |= GroupOf(f)
	}

	return m
}

// EmittedFields returns the fields a writer outputs under mask m, in row order.
// A packed rgba field stays in the result when only color is selected; the
// caller drops its alpha channel.
func EmittedFields(fields []Field, m Mask) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		g := GroupOf(f)
		if g == MaskNone {
			continue
		}
		if f.IsColor() {
			if !m.Has(MaskColor) {
				continue
			}
		} else if !m.Has(g) {
			continue
		}
		out = append(out, f)
	}

	return out
}

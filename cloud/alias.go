package cloud

// alias is the canonical meaning of a declared property name.
type alias struct {
	name    string // canonical field name, or the channel name for colors
	group   Mask
	channel int // byte position in the packed color field, -1 otherwise
}

// aliasTable maps every recognized vertex property name to its canonical form.
// Names absent from the table are stored as extra fields under their own name.
var aliasTable = map[string]alias{
	"x": {FieldX, MaskGeometry, -1},
	"y": {FieldY, MaskGeometry, -1},
	"z": {FieldZ, MaskGeometry, -1},

	"nx":       {FieldNormalX, MaskNormals, -1},
	"ny":       {FieldNormalY, MaskNormals, -1},
	"nz":       {FieldNormalZ, MaskNormals, -1},
	"normal_x": {FieldNormalX, MaskNormals, -1},
	"normal_y": {FieldNormalY, MaskNormals, -1},
	"normal_z": {FieldNormalZ, MaskNormals, -1},

	"red":           {"red", MaskColor, ChannelRed},
	"green":         {"green", MaskColor, ChannelGreen},
	"blue":          {"blue", MaskColor, ChannelBlue},
	"alpha":         {"alpha", MaskAlpha, ChannelAlpha},
	"diffuse_red":   {"red", MaskColor, ChannelRed},
	"diffuse_green": {"green", MaskColor, ChannelGreen},
	"diffuse_blue":  {"blue", MaskColor, ChannelBlue},
	"diffuse_alpha": {"alpha", MaskAlpha, ChannelAlpha},

	"intensity":        {FieldIntensity, MaskIntensity, -1},
	"scalar_intensity": {FieldIntensity, MaskIntensity, -1},

	"curvature": {FieldCurvature, MaskCurvature, -1},
}

func lookupAlias(name string) (alias, bool) {
	a, ok := aliasTable[name]
	return a, ok
}

// CanonicalName returns the field name a declared property is stored under.
func CanonicalName(name string) string {
	if a, ok := lookupAlias(name); ok {
		return a.name
	}

	return name
}

// channelNames lists the color properties written for a packed color field, in output order.
var channelNames = [...]struct {
	name    string
	channel int
}{
	{"red", ChannelRed},
	{"green", ChannelGreen},
	{"blue", ChannelBlue},
	{"alpha", ChannelAlpha},
}

// ColorChannel is one uint8 property expanded from a packed color field.
type ColorChannel struct {
	Name   string
	Offset int // byte offset in the row
}

// ColorChannels expands a packed color field into its output properties.
// Alpha is included only when withAlpha is set and the field is rgba.
func ColorChannels(f Field, withAlpha bool) []ColorChannel {
	n := 3
	if withAlpha && f.Name == FieldRGBA {
		n = 4
	}

	out := make([]ColorChannel, n)
	for i := range n {
		out[i] = ColorChannel{Name: channelNames[i].name, Offset: f.Offset + channelNames[i].channel}
	}

	return out
}

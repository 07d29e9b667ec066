package codec

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/plyio/cloud"
	"github.com/arloliu/plyio/endian"
	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/arloliu/plyio/internal/options"
)

const (
	// DefaultPrecision is the number of significant digits of ASCII floats.
	DefaultPrecision = 8
	// DefaultMeshPrecision is the ASCII float precision of EncodeMesh.
	DefaultMeshPrecision = 5
	// maxPrecision is the largest precision that still changes the output of a float64.
	maxPrecision = 17
)

// EncoderConfig holds the settings of an Encoder.
type EncoderConfig struct {
	binary       bool
	engine       endian.EndianEngine
	precision    int
	precisionSet bool
	useCamera    bool
	validOnly    bool
	mask         cloud.Mask
	comments     []string
	compression  format.CompressionType
	logger       *slog.Logger
}

// NewEncoderConfig returns the defaults: ASCII, precision 8, camera element
// enabled, every field group, no compression.
func NewEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		engine:      endian.NativeEngine(),
		precision:   DefaultPrecision,
		useCamera:   true,
		mask:        cloud.MaskAll,
		compression: format.CompressionNone,
		logger:      slog.Default(),
	}
}

// Format returns the body format the configuration produces.
func (c *EncoderConfig) Format() format.Format {
	if !c.binary {
		return format.FormatASCII
	}

	return endian.BinaryFormat(c.engine)
}

// EncoderOption represents a functional option for configuring the EncoderConfig.
type EncoderOption = options.Option[*EncoderConfig]

// WithASCII selects the ASCII body. It is the default.
func WithASCII() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.binary = false
	})
}

// WithBinary selects the binary body in the host's byte order.
func WithBinary() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.binary = true
		c.engine = endian.NativeEngine()
	})
}

// WithLittleEndian selects the binary_little_endian body.
func WithLittleEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.binary = true
		c.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian selects the binary_big_endian body. Rows are byte-swapped on
// little-endian hosts.
func WithBigEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.binary = true
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithPrecision sets the significant digits of ASCII floats, 1 to 17, or -1
// for the shortest text that reads back to the same value.
func WithPrecision(digits int) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if digits != -1 && (digits < 1 || digits > maxPrecision) {
			return fmt.Errorf("%w: precision %d outside [1, %d]", errs.ErrInvalidOption, digits, maxPrecision)
		}
		c.precision = digits
		c.precisionSet = true

		return nil
	})
}

// WithCamera enables or disables the camera element. It is enabled by default
// and only emitted for a non-identity pose or an organized cloud.
func WithCamera(enabled bool) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.useCamera = enabled
	})
}

// WithValidPointsOnly drops rows with a NaN or infinite emitted float from an
// ASCII body and records the original layout in a range_grid element. Binary
// bodies always contain every row.
func WithValidPointsOnly(enabled bool) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.validOnly = enabled
	})
}

// WithFieldMask restricts the emitted field groups.
func WithFieldMask(mask cloud.Mask) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if mask == cloud.MaskNone || mask&^cloud.MaskAll != 0 {
			return fmt.Errorf("%w: invalid field mask %#x", errs.ErrInvalidOption, uint8(mask))
		}
		c.mask = mask

		return nil
	})
}

// WithComments appends header comment lines after the generated one.
func WithComments(comments ...string) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.comments = append(c.comments, comments...)
	})
}

// WithEncoderCompression compresses the whole output file.
func WithEncoderCompression(comp format.CompressionType) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		switch comp {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.compression = comp
			return nil
		default:
			return fmt.Errorf("%w: invalid output compression: %v", errs.ErrInvalidOption, comp)
		}
	})
}

// WithEncoderLogger sets the logger receiving write diagnostics.
func WithEncoderLogger(logger *slog.Logger) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", errs.ErrInvalidOption)
		}
		c.logger = logger

		return nil
	})
}

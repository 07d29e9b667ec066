package codec

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/plyio/errs"
	"github.com/arloliu/plyio/format"
	"github.com/arloliu/plyio/internal/options"
)

// DecoderConfig holds the settings of a Decoder.
type DecoderConfig struct {
	file        string
	logger      *slog.Logger
	organize    bool
	compression format.CompressionType
}

// NewDecoderConfig returns the defaults: unnamed input, slog.Default(),
// organization enabled and no compression.
func NewDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		file:        "<stream>",
		logger:      slog.Default(),
		organize:    true,
		compression: format.CompressionNone,
	}
}

// FileName returns the name used in errors and log records.
func (c *DecoderConfig) FileName() string {
	return c.file
}

// DecoderOption represents a functional option for configuring the DecoderConfig.
type DecoderOption = options.Option[*DecoderConfig]

// WithFileName sets the input name used in errors and log records.
func WithFileName(name string) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		if name == "" {
			return fmt.Errorf("%w: empty file name", errs.ErrInvalidOption)
		}
		c.file = name

		return nil
	})
}

// WithLogger sets the logger receiving header and body diagnostics.
func WithLogger(logger *slog.Logger) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", errs.ErrInvalidOption)
		}
		c.logger = logger

		return nil
	})
}

// WithOrganize enables or disables range grid reordering and viewport based
// Width/Height. It is enabled by default.
func WithOrganize(enabled bool) DecoderOption {
	return options.NoError(func(c *DecoderConfig) {
		c.organize = enabled
	})
}

// WithCompression sets the whole-file compression of the input.
func WithCompression(comp format.CompressionType) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		return c.setCompression(comp)
	})
}

func (c *DecoderConfig) setCompression(comp format.CompressionType) error {
	switch comp {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
		c.compression = comp
		return nil
	default:
		return fmt.Errorf("%w: invalid input compression: %v", errs.ErrInvalidOption, comp)
	}
}

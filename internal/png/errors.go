package png

import (
	"errors"

	"github.com/rm-hull/pixel-filters/internal/limits"
)

// Decode fails with exactly one of these, checkable with errors.Is.
var (
	// ErrUnsupported reports a format other than PNG, or a PNG feature
	// (interlacing) that is not implemented.
	ErrUnsupported = errors.New("unsupported image")
	// ErrCorruptedImage reports a stream that does not parse as PNG.
	ErrCorruptedImage = errors.New("corrupted image")
	// ErrLimits reports a decode that would exceed its resource limits.
	ErrLimits = limits.ErrExceeded
)

// A FormatError reports that the input is not a valid PNG.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

// An UnsupportedError reports that the input uses a valid but unimplemented PNG feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "png: unsupported feature: " + string(e) }

var errChunkOrder = FormatError("chunk out of order")

package png

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rm-hull/pixel-filters/internal/limits"
	"github.com/rm-hull/pixel-filters/internal/pixel"
)

const (
	// bytesPerPixel is the size of one pixel in a normalised RGB row.
	bytesPerPixel = 3
	// pixelSize is the in-memory size of one pixel.Rgb, three float32s.
	pixelSize = 12
	// initialPixels caps the buffer capacity allocated before any row has
	// been decoded.
	initialPixels = 1 << 16
)

// Decode sniffs b and, when it is a PNG, decodes it into an Image under l.
// A nil l means limits.Default(). A Limits value is consumed by the call and
// must not be reused.
//
// The error wraps ErrUnsupported, ErrCorruptedImage or ErrLimits. Width,
// height and the allocation budget are all checked against the header
// before any row is read, and no partial image is ever returned.
func Decode(b []byte, l *limits.Limits) (*Image, error) {
	if format := Sniff(b); format != FormatPNG {
		return nil, fmt.Errorf("%w: %s format", ErrUnsupported, format)
	}
	if l == nil {
		l = limits.Default()
	}

	r, err := NewReader(bytes.NewReader(b), l.MaxAlloc)
	if err != nil {
		return nil, classify(err)
	}
	h := r.Header()

	if err := l.CheckDimensions(h.Width, h.Height); err != nil {
		return nil, err
	}
	total := uint64(h.Width) * uint64(h.Height)
	if total > math.MaxUint64/pixelSize {
		return nil, fmt.Errorf("%w: %dx%d pixels cannot be addressed", ErrLimits, h.Width, h.Height)
	}
	if err := l.Reserve(total * pixelSize); err != nil {
		return nil, err
	}

	// The buffer grows as rows arrive, so a header promising more rows than
	// the stream holds never allocates for the missing ones.
	data := make([]pixel.Rgb, 0, min(total, initialPixels))
	for {
		row, err := r.NextRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classify(err)
		}
		for i := 0; i+bytesPerPixel <= len(row); i += bytesPerPixel {
			data = append(data, pixel.FromSlice(row[i:i+bytesPerPixel]))
		}
	}
	if err := r.Close(); err != nil {
		return nil, classify(err)
	}

	return NewImageFromPixels(h.Width, h.Height, data)
}

// classify maps a reader failure onto the decode error taxonomy. Input is
// always in memory, so anything that is not a declined feature or a limit
// is a malformed stream.
func classify(err error) error {
	var unsupported UnsupportedError
	switch {
	case errors.Is(err, ErrLimits):
		return err
	case errors.As(err, &unsupported):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	default:
		return fmt.Errorf("%w: %w", ErrCorruptedImage, err)
	}
}

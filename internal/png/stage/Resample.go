package stage

import (
	"fmt"
	"image"
	"math"

	"github.com/rm-hull/pixel-filters/internal/limits"
	"github.com/rm-hull/pixel-filters/internal/png"
	"golang.org/x/image/draw"
)

// resampleBytesPerPixel covers the RGBA scratch image (4 bytes) and the
// converted pixel.Rgb copy (12 bytes) held together while resampling.
const resampleBytesPerPixel = 4 + 12

// ResampleStage scales to Width x Height. A zero dimension is derived from
// the other so the aspect ratio is kept; both zero leaves the image as is.
// The target size is checked against Limits before anything is allocated,
// and each Process call starts from the full budget.
type ResampleStage struct {
	Width  uint32
	Height uint32
	Limits limits.Limits
}

// Process applies a Catmull-Rom resampling to the new size
func (s *ResampleStage) Process(img *png.Image) (*png.Image, error) {
	width, height := s.Width, s.Height
	switch {
	case width == 0 && height == 0:
		return img, nil
	case width == 0:
		width = scaled(img.Width(), height, img.Height())
	case height == 0:
		height = scaled(img.Height(), width, img.Width())
	}
	if img.Width() == 0 || img.Height() == 0 {
		return nil, fmt.Errorf("cannot resample an empty %dx%d image", img.Width(), img.Height())
	}

	l := s.Limits
	if err := l.CheckDimensions(width, height); err != nil {
		return nil, fmt.Errorf("cannot resample to %dx%d: %w", width, height, err)
	}
	total := uint64(width) * uint64(height)
	if total > math.MaxInt32 {
		return nil, fmt.Errorf("cannot resample to %dx%d: %w", width, height, limits.ErrExceeded)
	}
	if err := l.Reserve(total * resampleBytesPerPixel); err != nil {
		return nil, fmt.Errorf("cannot resample to %dx%d: %w", width, height, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return png.FromImage(dst), nil
}

// scaled returns n * num / den rounded, and never less than 1. The result
// saturates at math.MaxUint32.
func scaled(n, num, den uint32) uint32 {
	if den == 0 {
		return 1
	}
	v := (uint64(n)*uint64(num) + uint64(den)/2) / uint64(den)
	if v < 1 {
		return 1
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

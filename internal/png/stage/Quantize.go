package stage

import "github.com/rm-hull/pixel-filters/internal/png"

type QuantizeStage struct{}

// Process rounds every channel to 0 or 1
func (s *QuantizeStage) Process(img *png.Image) (*png.Image, error) {
	return img.Quantize(), nil
}

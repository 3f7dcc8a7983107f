package stage

import "github.com/rm-hull/pixel-filters/internal/png"

type InvertStage struct{}

// Process replaces each channel c with 1 - c
func (s *InvertStage) Process(img *png.Image) (*png.Image, error) {
	return img.Invert(), nil
}

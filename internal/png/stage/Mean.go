package stage

import "github.com/rm-hull/pixel-filters/internal/png"

type MeanStage struct{}

// Process converts the image to greyscale using the plain mean of the three
// channels, not a luminance weighting
func (s *MeanStage) Process(img *png.Image) (*png.Image, error) {
	return img.Mean(), nil
}

package stage

import (
	"github.com/anthonynsimon/bild/blur"
	"github.com/rm-hull/pixel-filters/internal/png"
)

type GaussianBlurStage struct {
	Sigma float64
}

// Process applies a Gaussian blur to the image using the specified Sigma value
// Higher Sigma values result in a more pronounced blur effect
func (s *GaussianBlurStage) Process(img *png.Image) (*png.Image, error) {
	if s.Sigma <= 0 {
		return img, nil
	}
	return png.FromImage(blur.Gaussian(img, s.Sigma)), nil
}

package stage

import "github.com/rm-hull/pixel-filters/internal/png"

type ReddenStage struct{}

// Process keeps the red channel and zeroes green and blue
func (s *ReddenStage) Process(img *png.Image) (*png.Image, error) {
	return img.Redden(), nil
}

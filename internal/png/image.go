package png

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rm-hull/pixel-filters/internal/pixel"
)

// Image is a width x height grid of pixels stored row by row, the pixel at
// (x, y) living at y*width + x. It implements image.Image so it can be handed
// to any library that consumes one.
type Image struct {
	data   []pixel.Rgb
	width  uint32
	height uint32
}

var _ image.Image = (*Image)(nil)

// NewImage returns a black image.
func NewImage(width, height uint32) *Image {
	return &Image{
		data:   make([]pixel.Rgb, uint64(width)*uint64(height)),
		width:  width,
		height: height,
	}
}

// NewImageFromPixels takes ownership of data, which must hold exactly
// width*height pixels.
func NewImageFromPixels(width, height uint32, data []pixel.Rgb) (*Image, error) {
	if uint64(len(data)) != uint64(width)*uint64(height) {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d", len(data), width, height)
	}
	return &Image{data: data, width: width, height: height}, nil
}

// FromImage converts any image.Image. Alpha is dropped, not composited.
func FromImage(m image.Image) *Image {
	if img, ok := m.(*Image); ok {
		return img.Map(func(c pixel.Rgb) pixel.Rgb { return c })
	}

	b := m.Bounds()
	img := NewImage(uint32(b.Dx()), uint32(b.Dy()))
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.data[i] = pixel.Model.Convert(m.At(x, y)).(pixel.Rgb)
			i++
		}
	}
	return img
}

func (img *Image) Width() uint32 {
	return img.width
}

func (img *Image) Height() uint32 {
	return img.height
}

// Pixels exposes the underlying row-major pixel slice. Callers must treat it
// as read-only.
func (img *Image) Pixels() []pixel.Rgb {
	return img.data
}

// GetPixel panics if (x, y) lies outside the image.
func (img *Image) GetPixel(x, y uint32) pixel.Rgb {
	return img.data[img.offset(x, y)]
}

// SetPixel overwrites the pixel at (x, y) in place. It panics if (x, y) lies
// outside the image.
func (img *Image) SetPixel(x, y uint32, c pixel.Rgb) {
	img.data[img.offset(x, y)] = c
}

func (img *Image) offset(x, y uint32) uint64 {
	if x >= img.width || y >= img.height {
		panic(fmt.Sprintf("png: pixel (%d, %d) out of bounds for %dx%d image", x, y, img.width, img.height))
	}
	return uint64(y)*uint64(img.width) + uint64(x)
}

// Map returns a new image of the same size with fn applied to every pixel.
func (img *Image) Map(fn func(pixel.Rgb) pixel.Rgb) *Image {
	data := make([]pixel.Rgb, len(img.data))
	for i, c := range img.data {
		data[i] = fn(c)
	}
	return &Image{data: data, width: img.width, height: img.height}
}

func (img *Image) Redden() *Image {
	return img.Map(pixel.Rgb.AsRed)
}

func (img *Image) Mean() *Image {
	return img.Map(pixel.Rgb.Mean)
}

func (img *Image) Quantize() *Image {
	return img.Map(pixel.Rgb.Quantize)
}

func (img *Image) Invert() *Image {
	return img.Map(pixel.Rgb.Invert)
}

// Bytes returns the pixels as concatenated, clamped 8-bit RGB triples.
func (img *Image) Bytes() []byte {
	b := make([]byte, 0, 3*len(img.data))
	for _, c := range img.data {
		v := c.Bytes()
		b = append(b, v[0], v[1], v[2])
	}
	return b
}

func (img *Image) ColorModel() color.Model {
	return pixel.Model
}

func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(img.width), int(img.height))
}

// Opaque reports that every pixel is fully opaque, which lets image/png
// write it as RGB without scanning for alpha.
func (img *Image) Opaque() bool {
	return true
}

// At returns black outside the bounds, as image.Image requires.
func (img *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= int(img.width) || y >= int(img.height) {
		return pixel.Black
	}
	return img.data[y*int(img.width)+x]
}

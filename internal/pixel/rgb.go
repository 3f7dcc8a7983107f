package pixel

import (
	"image/color"
	"math"
)

// Rgb is a single colour sample with each channel nominally in [0.0, 1.0].
// Channels are not clamped; values outside the unit range are only
// brought back into range by Bytes.
type Rgb struct {
	R, G, B float32
}

var (
	Black   = Rgb{0, 0, 0}
	White   = Rgb{1, 1, 1}
	Red     = Rgb{1, 0, 0}
	Green   = Rgb{0, 1, 0}
	Blue    = Rgb{0, 0, 1}
	Yellow  = Rgb{1, 1, 0}
	Cyan    = Rgb{0, 1, 1}
	Magenta = Rgb{1, 0, 1}
	Gray    = Rgb{0.5, 0.5, 0.5}
)

// Model converts any color.Color to an Rgb. Alpha is dropped, not
// composited: the non-premultiplied channels are kept as they are.
var Model = color.ModelFunc(toRgb)

func New(r, g, b float32) Rgb {
	return Rgb{R: r, G: g, B: b}
}

// FromBytes scales 8-bit channels into the unit range.
func FromBytes(r, g, b byte) Rgb {
	return Rgb{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
	}
}

// FromSlice builds an Rgb from the first three bytes of v.
func FromSlice(v []byte) Rgb {
	return FromBytes(v[0], v[1], v[2])
}

// Bytes converts back to 8-bit channels, rounding half away from zero and
// clamping to [0, 255].
func (c Rgb) Bytes() [3]byte {
	return [3]byte{toByte(c.R), toByte(c.G), toByte(c.B)}
}

// AsRed keeps the red channel and zeroes green and blue.
func (c Rgb) AsRed() Rgb {
	return Rgb{R: c.R}
}

// Mean replaces every channel with the arithmetic mean of the three.
func (c Rgb) Mean() Rgb {
	m := (c.R + c.G + c.B) / 3
	return Rgb{R: m, G: m, B: m}
}

// Quantize rounds each channel to the nearest integer, which for unit range
// input collapses every channel to 0 or 1.
func (c Rgb) Quantize() Rgb {
	return Rgb{
		R: float32(math.Round(float64(c.R))),
		G: float32(math.Round(float64(c.G))),
		B: float32(math.Round(float64(c.B))),
	}
}

func (c Rgb) Invert() Rgb {
	return Rgb{R: 1 - c.R, G: 1 - c.G, B: 1 - c.B}
}

// RGBA implements color.Color. Every Rgb is fully opaque.
func (c Rgb) RGBA() (r, g, b, a uint32) {
	v := c.Bytes()
	r = uint32(v[0]) * 0x101
	g = uint32(v[1]) * 0x101
	b = uint32(v[2]) * 0x101
	return r, g, b, 0xffff
}

func toByte(c float32) byte {
	v := math.Round(float64(c) * 255)
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}

func toRgb(c color.Color) color.Color {
	if _, ok := c.(Rgb); ok {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return FromBytes(n.R, n.G, n.B)
}

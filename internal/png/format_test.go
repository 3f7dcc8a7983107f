package png

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected Format
	}{
		{name: "png", input: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), expected: FormatPNG},
		{name: "png signature only", input: []byte(pngSignature), expected: FormatPNG},
		{name: "jpeg", input: []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}, expected: FormatJPEG},
		{name: "gif87a", input: []byte("GIF87a\x01\x00"), expected: FormatGIF},
		{name: "gif89a", input: []byte("GIF89a\x01\x00"), expected: FormatGIF},
		{name: "webp", input: []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), expected: FormatWebP},
		{name: "riff without webp is still classed as webp", input: []byte("RIFF\x24\x00\x00\x00WAVE"), expected: FormatWebP},
		{name: "truncated png signature", input: []byte("\x89PNG\r\n"), expected: FormatUnknown},
		{name: "truncated jpeg marker", input: []byte{0xff, 0xd8}, expected: FormatUnknown},
		{name: "gif without version", input: []byte("GIF8"), expected: FormatUnknown},
		{name: "text", input: []byte("hello world"), expected: FormatUnknown},
		{name: "empty", input: nil, expected: FormatUnknown},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Sniff(test.input))
		})
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "png", FormatPNG.String())
	assert.Equal(t, "jpeg", FormatJPEG.String())
	assert.Equal(t, "gif", FormatGIF.String())
	assert.Equal(t, "webp", FormatWebP.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
	assert.Equal(t, "unknown", Format(99).String())
}

package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	stdpng "image/png"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

func chunkBytes(name string, data []byte) []byte {
	b := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(b[:4], uint32(len(data)))
	copy(b[4:8], name)
	b = append(b, data...)
	crc := crc32.ChecksumIEEE(b[4:])
	return binary.BigEndian.AppendUint32(b, crc)
}

func ihdrChunk(width, height uint32, depth, colorType, interlace byte) []byte {
	var b [13]byte
	binary.BigEndian.PutUint32(b[0:4], width)
	binary.BigEndian.PutUint32(b[4:8], height)
	b[8] = depth
	b[9] = colorType
	b[12] = interlace
	return chunkBytes("IHDR", b[:])
}

func deflate(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// rawRows joins rows, each already prefixed with its filter type byte.
func rawRows(rows ...[]byte) []byte {
	return bytes.Join(rows, nil)
}

func buildPNG(chunks ...[]byte) []byte {
	return append([]byte(pngSignature), bytes.Join(chunks, nil)...)
}

func iendChunk() []byte {
	return chunkBytes("IEND", nil)
}

func encodeStd(t *testing.T, m image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, stdpng.Encode(&buf, m))
	return buf.Bytes()
}

// colorCycle gives a deterministic but non-trivial byte for each position so
// the stdlib encoder exercises its row filters.
func colorCycle(x, y, k int) uint8 {
	return uint8((x*37 + y*91 + k*53 + x*y*7) % 256)
}

func makeRGBA(width, height int) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.SetRGBA(x, y, color.RGBA{R: colorCycle(x, y, 0), G: colorCycle(x, y, 1), B: colorCycle(x, y, 2), A: 255})
		}
	}
	return m
}

func rgbAt(img *Image, x, y uint32) [3]byte {
	return img.GetPixel(x, y).Bytes()
}

package png

import (
	"bufio"
	"bytes"
	"fmt"
	stdpng "image/png"
	"io"
	"os"
	"path/filepath"
)

var encoder = stdpng.Encoder{CompressionLevel: stdpng.DefaultCompression}

// Encode writes img to w as an 8-bit RGB PNG with no alpha and no ancillary
// chunks. Channels are rounded and clamped to [0, 255].
func Encode(w io.Writer, img *Image) error {
	if img.width == 0 || img.height == 0 || img.width > maxDimension || img.height > maxDimension {
		return fmt.Errorf("invalid image size %dx%d", img.width, img.height)
	}
	return encoder.Encode(w, img)
}

// EncodeToBytes is Encode into memory.
func EncodeToBytes(img *Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save encodes img to path. The PNG is written to a temporary file next to
// path and renamed into place, so a failed save never leaves a partial file.
func (img *Image) Save(path string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "pixel-filters-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	cleanupTemp := true
	defer func() {
		_ = tmpFile.Close()
		if cleanupTemp {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	bw := bufio.NewWriter(tmpFile)
	if err := Encode(bw, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file before rename: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	cleanupTemp = false
	return nil
}

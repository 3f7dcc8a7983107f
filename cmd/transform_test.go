package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rm-hull/pixel-filters/internal/limits"
	"github.com/rm-hull/pixel-filters/internal/pixel"
	"github.com/rm-hull/pixel-filters/internal/png"
	"github.com/rm-hull/pixel-filters/internal/png/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input         string
		width, height uint32
		wantErr       bool
	}{
		{input: "640x480", width: 640, height: 480},
		{input: "640X480", width: 640, height: 480},
		{input: "640", width: 640},
		{input: "640x", width: 640},
		{input: "x480", height: 480},
		{input: "x", wantErr: true},
		{input: "0x0", wantErr: true},
		{input: "abcx10", wantErr: true},
		{input: "10x-1", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			width, height, err := parseSize(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.width, width)
			assert.Equal(t, test.height, height)
		})
	}
}

func TestBuildPipeline(t *testing.T) {
	l := &limits.Limits{MaxImageWidth: 100, MaxAlloc: 1 << 20}

	pipeline, err := buildPipeline("invert", 0, "", l)
	require.NoError(t, err)
	assert.Equal(t, []png.PipelineStage{&stage.InvertStage{}}, pipeline)

	pipeline, err = buildPipeline("Mean", 1.5, "32x", l)
	require.NoError(t, err)
	assert.Equal(t, []png.PipelineStage{
		&stage.MeanStage{},
		&stage.GaussianBlurStage{Sigma: 1.5},
		&stage.ResampleStage{Width: 32, Limits: limits.Limits{MaxImageWidth: 100, MaxAlloc: 1 << 20}},
	}, pipeline)

	_, err = buildPipeline("sepia", 0, "", l)
	assert.ErrorContains(t, err, `unknown filter "sepia"`)

	_, err = buildPipeline("redden", -1, "", l)
	assert.Error(t, err)

	_, err = buildPipeline("redden", 0, "big", l)
	assert.Error(t, err)

	_, err = buildPipeline("redden", 0, "101x1", l)
	assert.ErrorIs(t, err, limits.ErrExceeded)
}

func TestTransform(t *testing.T) {
	t.Setenv("PIXEL_VIEWER", "")
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	require.NoError(t, png.NewImage(4, 2).Map(func(pixel.Rgb) pixel.Rgb { return pixel.Yellow }).Save(src))

	err := Transform(context.Background(), TransformOptions{Source: src, Out: out, Filter: "redden", Resize: "2x", View: true})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	img, err := png.Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), img.Width())
	assert.Equal(t, uint32(1), img.Height())
	assert.Equal(t, [3]byte{255, 0, 0}, img.GetPixel(1, 0).Bytes())
}

func TestTransformErrors(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.png")
	require.NoError(t, os.WriteFile(bogus, []byte("\x89PNG\r\n\x1a\ngarbage"), 0o644))

	err := Transform(context.Background(), TransformOptions{Source: bogus, Out: filepath.Join(dir, "out.png"), Filter: "invert"})
	assert.ErrorIs(t, err, png.ErrCorruptedImage)
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))

	err = Transform(context.Background(), TransformOptions{Source: bogus, Out: filepath.Join(dir, "out.png"), Filter: "nope"})
	assert.ErrorContains(t, err, "unknown filter")
}

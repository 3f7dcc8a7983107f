package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rm-hull/pixel-filters/internal"
	"github.com/rm-hull/pixel-filters/internal/config"
	"github.com/rm-hull/pixel-filters/internal/png"
)

// Animate writes an APNG that steps through the source image and each of
// the per-pixel filters in turn.
func Animate(ctx context.Context, src, out string, frameDelay float64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if src == "" {
		src = cfg.DefaultSource
	}

	loader := internal.NewSourceLoader(cfg.FetchTimeout, cfg.FetchRetries, cfg.MaxSourceBytes)
	data, err := loader.Load(ctx, src)
	if err != nil {
		return err
	}

	img, err := png.Decode(data, cfg.Limits())
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", src, err)
	}

	frames := []*png.Image{img, img.Redden(), img.Invert(), img.Quantize(), img.Mean()}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer func() {
		_ = f.Close()
	}()

	bw := bufio.NewWriter(f)
	if err := png.Animate(bw, frames, frameDelay); err != nil {
		return fmt.Errorf("failed to create animation: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}

	log.Printf("Saved %d frame animation to %s", len(frames), out)
	return nil
}

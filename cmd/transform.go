package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/rm-hull/pixel-filters/internal"
	"github.com/rm-hull/pixel-filters/internal/config"
	"github.com/rm-hull/pixel-filters/internal/limits"
	"github.com/rm-hull/pixel-filters/internal/png"
	"github.com/rm-hull/pixel-filters/internal/png/stage"
)

type TransformOptions struct {
	Source string
	Out    string
	Filter string
	Blur   float64
	Resize string
	View   bool
}

func Transform(ctx context.Context, opts TransformOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pipeline, err := buildPipeline(opts.Filter, opts.Blur, opts.Resize, cfg.Limits())
	if err != nil {
		return err
	}

	src := opts.Source
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
	log.Printf("Decoded %dx%d image, applying %s filter", img.Width(), img.Height(), opts.Filter)

	out, err := img.Pipeline(pipeline...)
	if err != nil {
		return fmt.Errorf("failed to process image pipeline: %w", err)
	}

	if err := out.Save(opts.Out); err != nil {
		return err
	}
	log.Printf("Saved %dx%d image to %s", out.Width(), out.Height(), opts.Out)

	if !opts.View || cfg.ViewerCommand == "" {
		return nil
	}
	var viewer internal.Viewer = &internal.ExecViewer{Command: cfg.ViewerCommand}
	if err := viewer.View(ctx, opts.Out); err != nil {
		// The image is already saved, so a missing viewer is not fatal.
		log.Printf("WARNING: %v", err)
	}
	return nil
}

// buildPipeline resolves the named filter, then appends the optional blur
// and resize stages. An explicit resize target is checked against the
// dimension ceilings in l straight away; the resize stage keeps a copy of l
// to bound what it allocates.
func buildPipeline(filter string, blur float64, resize string, l *limits.Limits) ([]png.PipelineStage, error) {
	s, ok := stage.Named(filter)
	if !ok {
		return nil, fmt.Errorf("unknown filter %q, expected one of %s", filter, strings.Join(stage.Names(), ", "))
	}
	pipeline := []png.PipelineStage{s}

	if blur < 0 {
		return nil, fmt.Errorf("blur sigma must not be negative: %v", blur)
	}
	if blur > 0 {
		pipeline = append(pipeline, &stage.GaussianBlurStage{Sigma: blur})
	}

	if resize != "" {
		width, height, err := parseSize(resize)
		if err != nil {
			return nil, err
		}
		if err := l.CheckDimensions(width, height); err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", resize, err)
		}
		pipeline = append(pipeline, &stage.ResampleStage{Width: width, Height: height, Limits: *l})
	}
	return pipeline, nil
}

// parseSize accepts WxH, W, Wx or xH; an omitted side keeps the aspect
// ratio.
func parseSize(s string) (uint32, uint32, error) {
	w, h, _ := strings.Cut(strings.ToLower(s), "x")
	width, err := parseDimension(w)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	height, err := parseDimension(h)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if width == 0 && height == 0 {
		return 0, 0, fmt.Errorf("invalid size %q: width or height is required", s)
	}
	return width, height, nil
}

func parseDimension(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

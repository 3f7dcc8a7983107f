package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rm-hull/pixel-filters/internal"
	"github.com/rm-hull/pixel-filters/internal/config"
)

type BatchOptions struct {
	Pattern  string
	OutDir   string
	Filter   string
	Blur     float64
	Resize   string
	PoolSize int
	Schedule string
}

// Batch runs every file matching the pattern through the pipeline. With a
// schedule it keeps re-running until interrupted.
func Batch(opts BatchOptions) error {
	internal.ShowVersion()
	internal.EnvironmentVars()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pipeline, err := buildPipeline(opts.Filter, opts.Blur, opts.Resize, cfg.Limits())
	if err != nil {
		return err
	}

	poolSize := opts.PoolSize
	if poolSize == 0 {
		poolSize = cfg.PoolSize
	}

	if opts.Schedule != "" {
		c, err := internal.StartCron(opts.Schedule, opts.Pattern, opts.OutDir, poolSize, cfg, pipeline)
		if err != nil {
			return fmt.Errorf("failed to schedule batch: %w", err)
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Stopping scheduled batch...")
		<-c.Stop().Done()
		return nil
	}

	processor, err := internal.NewBatchProcessor(opts.Pattern, opts.OutDir, poolSize, cfg, pipeline)
	if err != nil {
		return err
	}

	if errs := processor.Run(); len(errs) > 0 {
		return fmt.Errorf("%d of the files failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

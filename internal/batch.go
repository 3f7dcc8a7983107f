package internal

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rm-hull/pixel-filters/internal/config"
	"github.com/rm-hull/pixel-filters/internal/png"
)

type Processor struct {
	startTime time.Time
	endTime   time.Time
	outDir    string
	poolSize  int
	maxJobs   int
	jobs      chan string
	results   chan error
	files     []string
	cfg       *config.Config
	pipeline  []png.PipelineStage
}

// NewBatchProcessor prepares every file matching pattern to be run through
// pipeline, with the results written to outDir under the same base name.
func NewBatchProcessor(pattern, outDir string, poolSize int, cfg *config.Config, pipeline []png.PipelineStage) (*Processor, error) {
	if poolSize < 1 {
		return nil, errors.New("pool size must be at least 1")
	}
	startTime := time.Now()

	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	log.Printf("Pattern %s matched %d files", pattern, len(files))
	if len(files) == 0 {
		return nil, errors.New("no files to process")
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Processor{
		startTime: startTime,
		outDir:    outDir,
		poolSize:  poolSize,
		maxJobs:   -1,
		jobs:      make(chan string),
		results:   make(chan error),
		files:     files,
		cfg:       cfg,
		pipeline:  pipeline,
	}, nil
}

// DispatchJobs sends files to the jobs channel for processing by workers.
// When maxJobs is greater than zero, it limits the number of jobs dispatched,
// hence set to -1 to dispatch all jobs.
func (p *Processor) DispatchJobs() {
	go func() {
		for n, file := range p.files {
			if p.maxJobs > 0 && n >= p.maxJobs {
				break
			}
			p.jobs <- file
		}
		close(p.jobs)
	}()
}

func (p *Processor) StartWorkers() {
	log.Printf("Starting processing files with pool size: %d", p.poolSize)

	for i := range p.poolSize {
		go p.worker(i)
	}
}

func (p *Processor) worker(i int) {
	log.Printf("Worker %d started", i)
	for file := range p.jobs {
		p.results <- p.processFile(file)
	}
	log.Printf("Worker %d finished", i)
}

func (p *Processor) processFile(file string) error {
	filename := filepath.Join(p.outDir, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))+".png")

	// if the file already exists, skip processing
	if _, err := os.Stat(filename); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	img, err := png.Decode(data, p.cfg.Limits())
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", file, err)
	}

	out, err := img.Pipeline(p.pipeline...)
	if err != nil {
		return fmt.Errorf("failed to process image pipeline for %s: %w", file, err)
	}

	if err := out.Save(filename); err != nil {
		return fmt.Errorf("failed to save %s: %w", filename, err)
	}
	return nil
}

func (p *Processor) Wait() []error {
	waitFor := p.maxJobs
	if waitFor < 0 || waitFor > len(p.files) {
		waitFor = len(p.files)
	}
	log.Printf("Waiting for %d files to be processed", waitFor)

	errors := make([]error, 0, 10)
	for range waitFor {
		err := <-p.results
		if err != nil {
			errors = append(errors, err)
		}
	}
	p.endTime = time.Now()
	elapsed := p.endTime.Sub(p.startTime)
	log.Printf("All files processed in %s (errors=%d)", elapsed, len(errors))
	return errors
}

// Run processes every matched file and returns the errors of those that
// failed.
func (p *Processor) Run() []error {
	p.StartWorkers()
	p.DispatchJobs()
	return p.Wait()
}

package internal

import (
	"log"

	"github.com/rm-hull/pixel-filters/internal/config"
	"github.com/rm-hull/pixel-filters/internal/png"
	"github.com/robfig/cron/v3"
)

// StartCron re-runs the batch on schedule so files arriving after the first
// run get processed too. Outputs that already exist are skipped each time.
func StartCron(schedule, pattern, outDir string, poolSize int, cfg *config.Config, pipeline []png.PipelineStage) (*cron.Cron, error) {
	c := cron.New()

	log.Printf("Starting CRON job to process files (schedule=%s)", schedule)
	_, err := c.AddFunc(schedule, func() {
		processor, err := NewBatchProcessor(pattern, outDir, poolSize, cfg, pipeline)
		if err != nil {
			log.Printf("Failed to create batch processor: %v", err)
			return
		}

		errors := processor.Run()
		if len(errors) > 0 {
			log.Printf("Errors occurred: %v", errors)
		}
	})

	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}

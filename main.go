package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/rm-hull/pixel-filters/cmd"
	"github.com/rm-hull/pixel-filters/internal"
	"github.com/spf13/cobra"
)

type filterFlags struct {
	reds     bool
	invert   bool
	quantize bool
	mean     bool
}

func (f *filterFlags) register(c *cobra.Command) {
	c.Flags().BoolVarP(&f.reds, "reds", "r", false, "Make colors more red")
	c.Flags().BoolVarP(&f.invert, "invert", "i", false, "Invert colors")
	c.Flags().BoolVarP(&f.quantize, "quantize", "q", false, "Quantize colors to 0 or 1 per channel")
	c.Flags().BoolVarP(&f.mean, "mean", "m", false, "Replace colors with the mean of their channels")
	c.MarkFlagsMutuallyExclusive("reds", "invert", "quantize", "mean")
	c.MarkFlagsOneRequired("reds", "invert", "quantize", "mean")
}

func (f *filterFlags) name() string {
	switch {
	case f.reds:
		return "reds"
	case f.invert:
		return "invert"
	case f.quantize:
		return "quantize"
	default:
		return "mean"
	}
}

func main() {
	var port int
	var debug bool
	var filters filterFlags
	var transformOpts cmd.TransformOptions
	var batchOpts cmd.BatchOptions
	var animateOut string
	var frameDelay float64

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	rootCmd := &cobra.Command{
		Use:  "pixel-filters",
		Long: `Apply simple per-pixel color filters to PNG images`,
	}

	transformCmd := &cobra.Command{
		Use:   "transform [src] (-r|-i|-q|-m) [--out <path>] [--blur <sigma>] [--resize <WxH>] [--view]",
		Short: "Apply a filter to a local or remote PNG and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if len(args) > 0 {
				transformOpts.Source = args[0]
			}
			transformOpts.Filter = filters.name()
			return cmd.Transform(c.Context(), transformOpts)
		},
	}
	filters.register(transformCmd)
	transformCmd.Flags().StringVarP(&transformOpts.Out, "out", "o", "out.png", "Path to write the filtered PNG to")
	transformCmd.Flags().Float64Var(&transformOpts.Blur, "blur", 0, "Gaussian blur sigma applied after the filter (0 disables)")
	transformCmd.Flags().StringVar(&transformOpts.Resize, "resize", "", "Resample to WxH; omit one side to keep the aspect ratio")
	transformCmd.Flags().BoolVar(&transformOpts.View, "view", true, "Show the result with the configured terminal viewer")

	batchCmd := &cobra.Command{
		Use:   "batch <glob> --out-dir <path> (-r|-i|-q|-m) [--pool <n>] [--schedule <cron>]",
		Short: "Apply a filter to every PNG matching a glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			batchOpts.Pattern = args[0]
			batchOpts.Filter = filters.name()
			return cmd.Batch(batchOpts)
		},
	}
	filters.register(batchCmd)
	batchCmd.Flags().StringVar(&batchOpts.OutDir, "out-dir", "./out", "Folder to write the filtered PNGs to")
	batchCmd.Flags().Float64Var(&batchOpts.Blur, "blur", 0, "Gaussian blur sigma applied after the filter (0 disables)")
	batchCmd.Flags().StringVar(&batchOpts.Resize, "resize", "", "Resample to WxH; omit one side to keep the aspect ratio")
	batchCmd.Flags().IntVar(&batchOpts.PoolSize, "pool", 0, "Number of workers (defaults to PIXEL_POOL_SIZE)")
	batchCmd.Flags().StringVar(&batchOpts.Schedule, "schedule", "", "Cron schedule to keep re-running the batch on, e.g. \"*/10 * * * *\"")

	animateCmd := &cobra.Command{
		Use:   "animate [src] [--out <path>] [--delay <seconds>]",
		Short: "Write an animated PNG cycling through every filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var src string
			if len(args) > 0 {
				src = args[0]
			}
			return cmd.Animate(c.Context(), src, animateOut, frameDelay)
		},
	}
	animateCmd.Flags().StringVarP(&animateOut, "out", "o", "anim.png", "Path to write the animated PNG to")
	animateCmd.Flags().Float64Var(&frameDelay, "delay", 1.0, "Seconds to show each frame for")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--port <port>] [--debug]",
		Short: "Start HTTP API server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.ApiServer(port, debug)
		},
	}
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Run: func(_ *cobra.Command, _ []string) {
			internal.ShowVersion()
		},
	}

	rootCmd.AddCommand(transformCmd, batchCmd, animateCmd, apiServerCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

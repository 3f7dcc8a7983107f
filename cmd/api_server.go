package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/rm-hull/pixel-filters/internal"
	"github.com/rm-hull/pixel-filters/internal/config"
	"github.com/rm-hull/pixel-filters/internal/png"
	"github.com/rm-hull/pixel-filters/internal/png/stage"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

func ApiServer(port int, debug bool) {
	internal.ShowVersion()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	r, err := NewRouter(cfg, debug)
	if err != nil {
		log.Fatal(err)
	}

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting HTTP API Server on port %d...", port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP API Server failed to start on port %d: %v", port, err)
	}
}

func NewRouter(cfg *config.Config, debug bool) (*gin.Engine, error) {
	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
	)

	if debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize healthcheck: %w", err)
	}

	v1 := r.Group("/v1")
	v1.GET("/filters", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"filters": stage.Names()})
	})
	v1.POST("/transform/:filter", transformHandler(cfg))

	return r, nil
}

// transformHandler decodes the PNG request body, runs it through the named
// filter (plus the optional blur and resize query parameters) and responds
// with the result as a PNG.
func transformHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := c.Param("filter")
		if _, ok := stage.Named(filter); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown filter: %s", filter)})
			return
		}

		var sigma float64
		if blur := c.Query("blur"); blur != "" {
			var err error
			if sigma, err = strconv.ParseFloat(blur, 64); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid blur: %s", blur)})
				return
			}
		}
		pipeline, err := buildPipeline(filter, sigma, c.Query("resize"), cfg.Limits())
		if err != nil {
			c.JSON(pipelineStatus(err, http.StatusBadRequest), gin.H{"error": err.Error()})
			return
		}

		body := http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxSourceBytes)
		data, err := io.ReadAll(body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("request body larger than %d bytes", maxBytesErr.Limit)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		img, err := png.Decode(data, cfg.Limits())
		if err != nil {
			c.JSON(decodeStatus(err), gin.H{"error": err.Error()})
			return
		}

		out, err := img.Pipeline(pipeline...)
		if err != nil {
			c.JSON(pipelineStatus(err, http.StatusInternalServerError), gin.H{"error": err.Error()})
			return
		}

		b, err := png.EncodeToBytes(out)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/png", b)
	}
}

func decodeStatus(err error) int {
	switch {
	case errors.Is(err, png.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, png.ErrLimits):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, png.ErrCorruptedImage):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// pipelineStatus reports 413 for a resize past the limits and fallback
// otherwise.
func pipelineStatus(err error, fallback int) int {
	if errors.Is(err, png.ErrLimits) {
		return http.StatusRequestEntityTooLarge
	}
	return fallback
}

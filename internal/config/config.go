package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rm-hull/pixel-filters/internal/limits"
)

const (
	DefaultSource         = "https://user-images.githubusercontent.com/6933510/107239146-dcc3fd00-6a28-11eb-8c7b-41aaf6618935.png"
	DefaultViewer         = "viu"
	DefaultFetchTimeout   = 30 * time.Second
	DefaultFetchRetries   = 3
	DefaultMaxSourceBytes = 64 << 20
	DefaultPoolSize       = 4
)

type Config struct {
	MaxAlloc       uint64
	MaxImageWidth  uint32
	MaxImageHeight uint32
	DefaultSource  string
	ViewerCommand  string
	FetchTimeout   time.Duration
	FetchRetries   int
	MaxSourceBytes int64
	PoolSize       int
}

// Load reads the PIXEL_* environment variables, falling back to defaults for
// any that are not set.
func Load() (*Config, error) {
	cfg := &Config{
		MaxAlloc:       limits.DefaultMaxAlloc,
		DefaultSource:  DefaultSource,
		ViewerCommand:  DefaultViewer,
		FetchTimeout:   DefaultFetchTimeout,
		FetchRetries:   DefaultFetchRetries,
		MaxSourceBytes: DefaultMaxSourceBytes,
		PoolSize:       DefaultPoolSize,
	}

	var err error
	if cfg.MaxAlloc, err = envUint("PIXEL_MAX_ALLOC", cfg.MaxAlloc, 64); err != nil {
		return nil, err
	}

	width, err := envUint("PIXEL_MAX_IMAGE_WIDTH", 0, 32)
	if err != nil {
		return nil, err
	}
	cfg.MaxImageWidth = uint32(width)

	height, err := envUint("PIXEL_MAX_IMAGE_HEIGHT", 0, 32)
	if err != nil {
		return nil, err
	}
	cfg.MaxImageHeight = uint32(height)

	if v, ok := os.LookupEnv("PIXEL_DEFAULT_SOURCE"); ok && v != "" {
		cfg.DefaultSource = v
	}
	// An empty PIXEL_VIEWER disables viewing altogether.
	if v, ok := os.LookupEnv("PIXEL_VIEWER"); ok {
		cfg.ViewerCommand = v
	}

	if v := os.Getenv("PIXEL_FETCH_TIMEOUT"); v != "" {
		if cfg.FetchTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid PIXEL_FETCH_TIMEOUT %q: %w", v, err)
		}
	}

	if cfg.FetchRetries, err = envInt("PIXEL_FETCH_RETRIES", cfg.FetchRetries, 0); err != nil {
		return nil, err
	}

	maxSourceBytes, err := envInt("PIXEL_MAX_SOURCE_BYTES", int(cfg.MaxSourceBytes), 1)
	if err != nil {
		return nil, err
	}
	cfg.MaxSourceBytes = int64(maxSourceBytes)

	if cfg.PoolSize, err = envInt("PIXEL_POOL_SIZE", cfg.PoolSize, 1); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Limits returns a fresh set of limits. Each decode must get its own, as the
// allocation budget is consumed and never restored.
func (cfg *Config) Limits() *limits.Limits {
	return &limits.Limits{
		MaxImageWidth:  cfg.MaxImageWidth,
		MaxImageHeight: cfg.MaxImageHeight,
		MaxAlloc:       cfg.MaxAlloc,
	}
}

func envUint(key string, fallback uint64, bitSize int) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envInt(key string, fallback, minimum int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n < minimum {
		return 0, fmt.Errorf("invalid %s %q: must be at least %d", key, v, minimum)
	}
	return n, nil
}

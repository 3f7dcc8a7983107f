package config

import (
	"testing"
	"time"

	"github.com/rm-hull/pixel-filters/internal/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PIXEL_MAX_ALLOC",
	"PIXEL_MAX_IMAGE_WIDTH",
	"PIXEL_MAX_IMAGE_HEIGHT",
	"PIXEL_DEFAULT_SOURCE",
	"PIXEL_FETCH_TIMEOUT",
	"PIXEL_FETCH_RETRIES",
	"PIXEL_MAX_SOURCE_BYTES",
	"PIXEL_POOL_SIZE",
}

func clearEnv(t *testing.T) {
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint64(limits.DefaultMaxAlloc), cfg.MaxAlloc)
	assert.Zero(t, cfg.MaxImageWidth)
	assert.Zero(t, cfg.MaxImageHeight)
	assert.Equal(t, DefaultSource, cfg.DefaultSource)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.FetchRetries)
	assert.Equal(t, int64(64<<20), cfg.MaxSourceBytes)
	assert.Equal(t, 4, cfg.PoolSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIXEL_MAX_ALLOC", "0")
	t.Setenv("PIXEL_MAX_IMAGE_WIDTH", "1920")
	t.Setenv("PIXEL_MAX_IMAGE_HEIGHT", "1080")
	t.Setenv("PIXEL_DEFAULT_SOURCE", "/tmp/in.png")
	t.Setenv("PIXEL_VIEWER", "")
	t.Setenv("PIXEL_FETCH_TIMEOUT", "1m30s")
	t.Setenv("PIXEL_FETCH_RETRIES", "0")
	t.Setenv("PIXEL_MAX_SOURCE_BYTES", "1024")
	t.Setenv("PIXEL_POOL_SIZE", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, &Config{
		MaxAlloc:       0,
		MaxImageWidth:  1920,
		MaxImageHeight: 1080,
		DefaultSource:  "/tmp/in.png",
		ViewerCommand:  "",
		FetchTimeout:   90 * time.Second,
		FetchRetries:   0,
		MaxSourceBytes: 1024,
		PoolSize:       16,
	}, cfg)
}

func TestLoadViewer(t *testing.T) {
	clearEnv(t)
	t.Setenv("PIXEL_VIEWER", "feh")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "feh", cfg.ViewerCommand)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "PIXEL_MAX_ALLOC", value: "lots"},
		{key: "PIXEL_MAX_ALLOC", value: "-1"},
		{key: "PIXEL_MAX_IMAGE_WIDTH", value: "4294967296"},
		{key: "PIXEL_MAX_IMAGE_HEIGHT", value: "tall"},
		{key: "PIXEL_FETCH_TIMEOUT", value: "30"},
		{key: "PIXEL_FETCH_RETRIES", value: "-1"},
		{key: "PIXEL_MAX_SOURCE_BYTES", value: "0"},
		{key: "PIXEL_POOL_SIZE", value: "0"},
		{key: "PIXEL_POOL_SIZE", value: "four"},
	}

	for _, test := range tests {
		t.Run(test.key+"="+test.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(test.key, test.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.key)
		})
	}
}

func TestLimitsAreFreshEachTime(t *testing.T) {
	cfg := &Config{MaxAlloc: 100, MaxImageWidth: 10, MaxImageHeight: 20}

	first := cfg.Limits()
	require.NoError(t, first.Reserve(100))
	assert.ErrorIs(t, first.Reserve(1), limits.ErrExceeded)

	second := cfg.Limits()
	assert.NotSame(t, first, second)
	assert.NoError(t, second.Reserve(100))
	assert.Equal(t, uint32(10), second.MaxImageWidth)
	assert.Equal(t, uint32(20), second.MaxImageHeight)
}

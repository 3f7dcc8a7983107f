package cmd

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rm-hull/pixel-filters/internal/config"
	"github.com/rm-hull/pixel-filters/internal/pixel"
	"github.com/rm-hull/pixel-filters/internal/png"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	routerOnce sync.Once
	router     *gin.Engine
)

// testRouter builds the router once, as the prometheus collectors can only
// be registered a single time per process.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	routerOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		cfg := &config.Config{
			MaxAlloc:       1 << 20,
			MaxImageWidth:  64,
			MaxSourceBytes: 4096,
		}
		var err error
		router, err = NewRouter(cfg, false)
		require.NoError(t, err)
	})
	require.NotNil(t, router)
	return router
}

func post(t *testing.T, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "image/png")
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, req)
	return w
}

func encoded(t *testing.T, img *png.Image) []byte {
	t.Helper()
	b, err := png.EncodeToBytes(img)
	require.NoError(t, err)
	return b
}

// headerOnly is a PNG signature followed by a bare IHDR chunk.
func headerOnly(width, height uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8
	ihdr[9] = 2

	b := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	b = append(b, ihdr[:]...)
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(b[12:]))
}

func TestTransformEndpoint(t *testing.T) {
	img := png.NewImage(4, 4).Map(func(pixel.Rgb) pixel.Rgb { return pixel.Blue })

	w := post(t, "/v1/transform/invert", encoded(t, img))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	out, err := png.Decode(w.Body.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, [3]byte{255, 255, 0}, out.GetPixel(3, 3).Bytes())
}

func TestTransformEndpointWithResize(t *testing.T) {
	img := png.NewImage(8, 4).Map(func(pixel.Rgb) pixel.Rgb { return pixel.White })

	w := post(t, "/v1/transform/reds?resize=4x&blur=0.5", encoded(t, img))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out, err := png.Decode(w.Body.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), out.Width())
	assert.Equal(t, uint32(2), out.Height())
}

func TestTransformEndpointErrors(t *testing.T) {
	small := encoded(t, png.NewImage(2, 2))

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
	}{
		{name: "unknown filter", path: "/v1/transform/sepia", body: small, status: http.StatusNotFound},
		{name: "bad blur", path: "/v1/transform/mean?blur=lots", body: small, status: http.StatusBadRequest},
		{name: "bad resize", path: "/v1/transform/mean?resize=huge", body: small, status: http.StatusBadRequest},
		{name: "resize too wide", path: "/v1/transform/mean?resize=100000x100000", body: small, status: http.StatusRequestEntityTooLarge},
		{name: "resize derived width too wide", path: "/v1/transform/mean?resize=x40000", body: small, status: http.StatusRequestEntityTooLarge},
		{name: "resize over budget", path: "/v1/transform/mean?resize=64x2000", body: small, status: http.StatusRequestEntityTooLarge},
		{name: "jpeg", path: "/v1/transform/mean", body: []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10}, status: http.StatusUnsupportedMediaType},
		{name: "empty body", path: "/v1/transform/mean", body: nil, status: http.StatusUnsupportedMediaType},
		{name: "corrupt png", path: "/v1/transform/mean", body: append([]byte("\x89PNG\r\n\x1a\n"), 1, 2, 3), status: http.StatusUnprocessableEntity},
		{name: "too wide", path: "/v1/transform/mean", body: headerOnly(65, 1), status: http.StatusRequestEntityTooLarge},
		{name: "over budget", path: "/v1/transform/mean", body: headerOnly(64, 10000), status: http.StatusRequestEntityTooLarge},
		{name: "body too large", path: "/v1/transform/mean", body: make([]byte, 5000), status: http.StatusRequestEntityTooLarge},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := post(t, test.path, test.body)
			assert.Equal(t, test.status, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestFiltersEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/filters", nil)
	w := httptest.NewRecorder()
	testRouter(t).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"filters":["invert","mean","quantize","redden","reds"]}`, w.Body.String())
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		testRouter(t).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

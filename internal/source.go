package internal

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SourceLoader fetches the raw bytes of an image from a local path or, when
// the source starts with "http", from a URL.
type SourceLoader struct {
	client   HTTPClient
	timeout  time.Duration
	maxBytes int64
}

func NewSourceLoader(timeout time.Duration, retries int, maxBytes int64) *SourceLoader {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	return &SourceLoader{
		client:   retryClient.StandardClient(),
		timeout:  timeout,
		maxBytes: maxBytes,
	}
}

func (s *SourceLoader) Load(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http") {
		return s.fetch(ctx, src)
	}

	log.Printf("Loading image from %s", src)
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return s.readAll(src, f)
}

func (s *SourceLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Printf("Retrieving: %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/png")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", url, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode > 299 {
		return nil, fmt.Errorf("http status response from %s: %s", url, res.Status)
	}

	return s.readAll(url, res.Body)
}

// readAll reads at most maxBytes from r, failing if there is more.
func (s *SourceLoader) readAll(src string, r io.Reader) ([]byte, error) {
	if s.maxBytes <= 0 {
		return io.ReadAll(r)
	}

	b, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	if int64(len(b)) > s.maxBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", src, s.maxBytes)
	}
	return b, nil
}

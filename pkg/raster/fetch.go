package raster

import (
	"context"
	stderrors "errors"
	"image"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	// Decoders for the formats templates actually use.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/httputil"
	"github.com/magpress/magpress/pkg/observability"
)

// Fetcher retrieves an image resource for rendering. Implementations must
// return fully decoded pixels (the offline equivalent of a CORS-enabled
// fetch with pixel read-back).
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (image.Image, error)
}

// HTTPFetcher fetches images over HTTP with a bounded per-fetch timeout
// and retry on transient failures. Local file paths (no URL scheme) are
// read directly, which editing sessions use for just-uploaded photos.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher. A zero timeout uses the httputil
// default.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: httputil.NewClient(timeout)}
}

// Fetch implements Fetcher. Every fetch reports to the registered
// observability hooks, including the encoded byte count on success.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, errors.New(errors.ErrCodeResourceFetch, "empty image reference")
	}

	observability.Fetch().OnFetch(ctx, ref)
	start := time.Now()

	img, size, err := f.fetch(ctx, ref)
	if err != nil {
		observability.Fetch().OnFetchError(ctx, ref, err)
		return nil, err
	}
	observability.Fetch().OnFetchComplete(ctx, ref, size, time.Since(start))
	return img, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, ref string) (image.Image, int, error) {
	if !strings.Contains(ref, "://") {
		return fetchFile(ref)
	}

	var (
		img  image.Image
		size int
	)
	err := httputil.Retry(ctx, 2, 500*time.Millisecond, func() error {
		var ferr error
		img, size, ferr = f.fetchHTTP(ctx, ref)
		return ferr
	})
	if err != nil {
		return nil, 0, err
	}
	return img, size, nil
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, url string) (image.Image, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeResourceFetch, err, "build request for %s", url)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		code := errors.ErrCodeResourceFetch
		var ne net.Error
		if stderrors.As(err, &ne) && ne.Timeout() {
			code = errors.ErrCodeTimeout
		}
		return nil, 0, httputil.Retryable(errors.Wrap(code, err, "fetch %s", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, 0, httputil.Retryable(errors.New(errors.ErrCodeResourceFetch,
			"fetch %s: status %d", url, resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, errors.New(errors.ErrCodeResourceFetch,
			"fetch %s: status %d", url, resp.StatusCode)
	}

	cr := &countingReader{r: resp.Body}
	img, _, err := image.Decode(cr)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeResourceDecode, err, "decode %s", url)
	}
	return img, cr.n, nil
}

func fetchFile(path string) (image.Image, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeResourceFetch, err, "open %s", path)
	}
	defer f.Close()

	cr := &countingReader{r: f}
	img, _, err := image.Decode(cr)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeResourceDecode, err, "decode %s", path)
	}
	return img, cr.n, nil
}

// countingReader counts the encoded bytes the decoder consumed.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

// staticFetcher serves images from memory; used in tests and previews.
type staticFetcher struct {
	images map[string]image.Image
}

// NewStaticFetcher returns a Fetcher that resolves refs from the given
// map. Unknown refs fail like a network miss.
func NewStaticFetcher(images map[string]image.Image) Fetcher {
	return &staticFetcher{images: images}
}

func (s *staticFetcher) Fetch(_ context.Context, ref string) (image.Image, error) {
	if img, ok := s.images[ref]; ok {
		return img, nil
	}
	return nil, errors.New(errors.ErrCodeResourceFetch, "no image for %q", ref)
}

var (
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Fetcher = (*staticFetcher)(nil)
)

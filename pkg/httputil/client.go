package httputil

import (
	"net"
	"net/http"
	"time"
)

// DefaultFetchTimeout bounds a single asset fetch. A fetch exceeding it
// fails that slot rather than hanging the page capture.
const DefaultFetchTimeout = 30 * time.Second

// NewClient returns an HTTP client with a bounded total timeout and sane
// connection limits for parallel asset fetching. A zero timeout uses
// [DefaultFetchTimeout].
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          32,
			MaxIdleConnsPerHost:   8,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}

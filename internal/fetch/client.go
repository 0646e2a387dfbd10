// Package fetch wraps net/http with the conditional, range-based request
// surface the downloader needs against the Federal Revenue origin.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// UserAgent identifies the pipeline against the origin.
const UserAgent = "cnpj-etl/1.0"

// maxRedirects bounds redirect chains the origin occasionally serves.
const maxRedirects = 10

// ByteRange is a closed byte interval for a range request.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// Client issues HEAD and (optionally ranged) GET requests. All requests
// carry the identifying user-agent and honor the configured per-request
// timeout. Safe for concurrent use.
type Client struct {
	http *http.Client
}

// NewClient creates a fetch client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// HeadInfo is what the origin advertises about an artifact.
type HeadInfo struct {
	// ContentLength is -1 when the origin does not advertise a length.
	ContentLength int64
	AcceptRanges  bool
}

// Head asks the origin for the artifact's length and range support.
func (c *Client) Head(ctx context.Context, url string) (HeadInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return HeadInfo{}, errors.Wrap(err, "building HEAD request")
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return HeadInfo{}, errors.Wrapf(err, "HEAD %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HeadInfo{}, &HTTPError{URL: url, Status: resp.StatusCode}
	}

	return HeadInfo{
		ContentLength: resp.ContentLength,
		AcceptRanges:  resp.Header.Get("Accept-Ranges") == "bytes",
	}, nil
}

// Get fetches the artifact, optionally restricted to a byte range. The
// caller owns the returned body and must close it.
func (c *Client) Get(ctx context.Context, url string, byteRange *ByteRange) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building GET request")
	}
	req.Header.Set("User-Agent", UserAgent)
	if byteRange != nil {
		req.Header.Set("Range", byteRange.header())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &HTTPError{URL: url, Status: resp.StatusCode}
	}

	return resp.Body, nil
}

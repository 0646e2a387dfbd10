package fetch

import (
	"fmt"

	"github.com/pkg/errors"
)

// permanentStatuses are HTTP statuses that no amount of retrying will fix.
var permanentStatuses = map[int]bool{
	400: true,
	401: true,
	403: true,
	404: true,
	410: true,
}

// HTTPError is a non-2xx response from the origin.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d for %s", e.Status, e.URL)
}

// Permanent reports whether retrying this request is pointless.
func (e *HTTPError) Permanent() bool {
	return permanentStatuses[e.Status]
}

// MaxRetriesError is raised after the retry budget for one request or chunk
// is exhausted.
type MaxRetriesError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("download failed after %d retries for %s: %v", e.Attempts, e.URL, e.Last)
}

func (e *MaxRetriesError) Unwrap() error { return e.Last }

// ShortReadError is a length mismatch after a transfer completed.
type ShortReadError struct {
	Filename string
	Want     int64
	Got      int64
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read for %s: got %d bytes, want %d", e.Filename, e.Got, e.Want)
}

// IsPermanent reports whether err (or anything it wraps) is a permanent
// failure that must not be retried.
func IsPermanent(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Permanent()
	}
	var shortRead *ShortReadError
	return errors.As(err, &shortRead)
}

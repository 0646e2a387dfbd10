package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", "1234")
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	info, err := client.Head(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), info.ContentLength)
	assert.True(t, info.AcceptRanges)
}

func TestHeadNoRangeSupport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "10")
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	info, err := client.Head(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, info.AcceptRanges)
}

func TestGetRange(t *testing.T) {
	payload := []byte("0123456789abcdef")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := r.Header.Get("Range")
		assert.Equal(t, "bytes=4-7", rangeHeader)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(payload[4:8])
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	body, err := client.Get(context.Background(), srv.URL, &ByteRange{Start: 4, End: 7})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, []byte("4567"), data)
}

func TestGetErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, true},
		{http.StatusGone, true},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
		{http.StatusServiceUnavailable, false},
		{http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(5 * time.Second)
			_, err := client.Get(context.Background(), srv.URL, nil)
			require.Error(t, err)

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.permanent, httpErr.Permanent())
			assert.Equal(t, tt.permanent, IsPermanent(err))
		})
	}
}

func TestRedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestIsPermanentShortRead(t *testing.T) {
	err := errors.Wrap(&ShortReadError{Filename: "Empresas0.zip", Want: 10, Got: 5}, "transfer")
	assert.True(t, IsPermanent(err))
	assert.False(t, IsPermanent(errors.New("connection reset")))
}

package ioutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRangeSizeUsesHeadAndCaches(t *testing.T) {
	var headCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			atomic.AddInt32(&headCalls, 1)
			w.Header().Set("Content-Length", "1024")
			w.WriteHeader(http.StatusOK)
			return
		}
	}))
	defer srv.Close()

	h, err := OpenHTTPRange(srv.URL, DefaultHTTPRangeOptions())
	require.NoError(t, err)
	defer h.Close()

	size, err := h.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(1024), size)

	_, err = h.Size()
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&headCalls))
}

func TestHTTPRangeRetriesOnServerErrorThenSucceeds(t *testing.T) {
	var calls int32
	payload := []byte("hello-world-payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(payload[:5])
	}))
	defer srv.Close()

	opts := DefaultHTTPRangeOptions()
	opts.MaxRetries = 2
	opts.BackoffBase = time.Millisecond
	h, err := OpenHTTPRange(srv.URL, opts)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 5)
	n, err := h.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
	// cacheHeader issues one extra successful request after the first
	// successful ReadAt, so total calls = 2 failures + 1 success + 1 cache fetch
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestHTTPRangeFailsImmediatelyOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	opts := DefaultHTTPRangeOptions()
	opts.MaxRetries = 3
	opts.BackoffBase = time.Millisecond
	h, err := OpenHTTPRange(srv.URL, opts)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 5)
	_, err = h.ReadAt(buf, 0)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPRangeServesSecondReadFromHeaderCache(t *testing.T) {
	var calls int32
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	opts := DefaultHTTPRangeOptions()
	opts.HeaderCacheBytes = 100
	h, err := OpenHTTPRange(srv.URL, opts)
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 100)
	_, err = h.ReadAt(buf, 0)
	require.NoError(t, err)
	afterFirst := atomic.LoadInt32(&calls)
	assert.Equal(t, int32(2), afterFirst) // the read itself + the cache fill

	buf2 := make([]byte, 10)
	n, err := h.ReadAt(buf2, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, payload[5:15], buf2)
	assert.Equal(t, afterFirst, atomic.LoadInt32(&calls), "cached region must not re-request the network")
}

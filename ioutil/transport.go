// Package ioutil implements the seekable-bytes capability that the rest
// of this module builds on: fixed-width little-endian primitives, a
// local-file and an HTTP-range transport behind one interface, and
// transparent zlib block (de)compression.
package ioutil

import (
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pbenner/rustynetics/bbierrors"
)

// Transport is the capability every byte source (local file or HTTP
// range server) must satisfy. There is no inheritance between the two
// variants -- LocalFile and HTTPRange both just implement this.
type Transport interface {
	// ReadAt reads len(p) bytes starting at offset off, like io.ReaderAt.
	ReadAt(p []byte, off int64) (int, error)
	// Size returns the total size of the underlying resource in bytes.
	Size() (int64, error)
	// Close releases any resource (file handle, connection) held open.
	Close() error
}

// LocalFile is a Transport backed by an *os.File.
type LocalFile struct {
	f *os.File
}

// OpenLocal opens path for reading as a Transport.
func OpenLocal(path string) (*LocalFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bbierrors.New(bbierrors.KindIO, "opening "+path, err)
	}
	return &LocalFile{f: f}, nil
}

func (l *LocalFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := l.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, bbierrors.New(bbierrors.KindIO, "read_at", err)
	}
	return n, err
}

func (l *LocalFile) Size() (int64, error) {
	fi, err := l.f.Stat()
	if err != nil {
		return 0, bbierrors.New(bbierrors.KindIO, "stat", err)
	}
	return fi.Size(), nil
}

func (l *LocalFile) Close() error { return l.f.Close() }

// HTTPRangeOptions configures the retry/backoff and caching behavior of
// an HTTPRange transport.
type HTTPRangeOptions struct {
	// Timeout bounds a single range request. Default 30s.
	Timeout time.Duration
	// MaxRetries bounds the number of retries on 5xx/timeout. Default 3.
	MaxRetries int
	// BackoffBase is the first retry delay; it doubles each subsequent
	// retry (1s, 2s, 4s by default).
	BackoffBase time.Duration
	// HeaderCacheBytes is how many leading bytes are cached so header and
	// chromosome-tree reads never re-request the network.
	HeaderCacheBytes int64
	// Client overrides the *http.Client used for range requests; if nil a
	// client honoring HTTP_PROXY/HTTPS_PROXY (http.ProxyFromEnvironment)
	// with a bounded idle-connection pool is constructed.
	Client *http.Client
}

// DefaultHTTPRangeOptions returns sensible defaults for range-backed HTTP reads.
func DefaultHTTPRangeOptions() HTTPRangeOptions {
	return HTTPRangeOptions{
		Timeout:          30 * time.Second,
		MaxRetries:       3,
		BackoffBase:      1 * time.Second,
		HeaderCacheBytes: 64 * 1024,
	}
}

// HTTPRange is a Transport that satisfies reads via HTTP byte-range
// requests, caching the file's leading HeaderCacheBytes (header, zoom
// table, chromosome tree) after the first read at offset 0 so later
// reads inside that region don't re-request the network. Reads past it
// always issue a range request.
type HTTPRange struct {
	url  string
	opts HTTPRangeOptions

	mu         sync.Mutex
	size       int64
	sizeKnown  bool
	headerBuf  []byte
	headerSize int64
}

// OpenHTTPRange opens a remote BBI file served over HTTP(S) as a
// Transport, using byte-range requests.
func OpenHTTPRange(url string, opts HTTPRangeOptions) (*HTTPRange, error) {
	if opts.Timeout == 0 {
		opts = DefaultHTTPRangeOptions()
	}
	if opts.Client == nil {
		opts.Client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 8,
				MaxConnsPerHost:     8,
			},
		}
	}
	h := &HTTPRange{url: url, opts: opts}
	return h, nil
}

func (h *HTTPRange) Size() (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sizeKnown {
		return h.size, nil
	}
	req, err := http.NewRequest(http.MethodHead, h.url, nil)
	if err != nil {
		return 0, bbierrors.New(bbierrors.KindIO, "building HEAD request", err)
	}
	resp, err := h.opts.Client.Do(req)
	if err != nil {
		return 0, bbierrors.New(bbierrors.KindIO, "HEAD "+h.url, err)
	}
	defer resp.Body.Close()
	h.size = resp.ContentLength
	h.sizeKnown = true
	return h.size, nil
}

// ReadAt satisfies len(p) bytes at off, transparently serving the
// cached header region when possible and retrying range requests with
// exponential backoff on 5xx/timeout.
func (h *HTTPRange) ReadAt(p []byte, off int64) (int, error) {
	if off >= 0 && h.headerBuf != nil && off+int64(len(p)) <= h.headerSize {
		h.mu.Lock()
		n := copy(p, h.headerBuf[off:off+int64(len(p))])
		h.mu.Unlock()
		return n, nil
	}

	var lastErr error
	delay := h.opts.BackoffBase
	for attempt := 0; attempt <= h.opts.MaxRetries; attempt++ {
		n, err := h.rangeRequest(p, off)
		if err == nil {
			if off == 0 && h.headerBuf == nil && h.opts.HeaderCacheBytes > 0 {
				h.cacheHeader()
			}
			return n, nil
		}
		lastErr = err
		if !isRetriable(err) || attempt == h.opts.MaxRetries {
			break
		}
		time.Sleep(delay)
		delay *= 2
	}
	return 0, bbierrors.New(bbierrors.KindIO, "range read at "+strconv.FormatInt(off, 10), lastErr)
}

func (h *HTTPRange) cacheHeader() {
	buf := make([]byte, h.opts.HeaderCacheBytes)
	n, err := h.rangeRequest(buf, 0)
	if err != nil || n == 0 {
		return
	}
	h.mu.Lock()
	h.headerBuf = buf[:n]
	h.headerSize = int64(n)
	h.mu.Unlock()
}

// serverError marks a 5xx response as retriable. Network timeouts are
// retriable too; any other failure (other network errors, 4xx) is not.
type serverError struct{ status int }

func (e *serverError) Error() string { return errors.Errorf("server error %d", e.status).Error() }

func (h *HTTPRange) rangeRequest(p []byte, off int64) (int, error) {
	req, err := http.NewRequest(http.MethodGet, h.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", "bytes="+strconv.FormatInt(off, 10)+"-"+strconv.FormatInt(off+int64(len(p))-1, 10))
	resp, err := h.opts.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return 0, &serverError{status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		return 0, errors.Errorf("client error %d requesting %s", resp.StatusCode, h.url)
	}
	return io.ReadFull(resp.Body, p)
}

func isRetriable(err error) bool {
	var se *serverError
	if errors.As(err, &se) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (h *HTTPRange) Close() error { return nil }

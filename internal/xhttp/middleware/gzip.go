package middleware

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/garrettladley/inbox/internal/xhttp"
)

const (
	gzipEncoding = "gzip"

	// responses smaller than this are sent as is
	gzipMinSize = 1024
)

var gzipWriters = sync.Pool{
	New: func() any { return gzip.NewWriter(nil) },
}

// gzipWriter buffers the first gzipMinSize bytes before deciding whether
// the body is worth compressing.
type gzipWriter struct {
	http.ResponseWriter
	status  int
	buf     bytes.Buffer
	zw      *gzip.Writer
	decided bool
}

var (
	_ http.ResponseWriter = (*gzipWriter)(nil)
	_ http.Flusher        = (*gzipWriter)(nil)
)

func (g *gzipWriter) WriteHeader(code int) {
	if g.status == 0 {
		g.status = code
	}
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	if g.status == 0 {
		g.status = http.StatusOK
	}
	if g.decided {
		return g.write(b)
	}

	g.buf.Write(b)
	if g.buf.Len() < gzipMinSize {
		return len(b), nil
	}
	if err := g.decide(true); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (g *gzipWriter) write(b []byte) (int, error) {
	if g.zw != nil {
		n, err := g.zw.Write(b)
		if err != nil {
			return n, fmt.Errorf("failed to write gzip: %w", err)
		}
		return n, nil
	}
	return g.ResponseWriter.Write(b)
}

// decide commits the headers and drains the buffer. Compression is skipped
// for streams and for bodies the handler already encoded.
func (g *gzipWriter) decide(large bool) error {
	g.decided = true
	if g.status == 0 {
		g.status = http.StatusOK
	}

	h := g.ResponseWriter.Header()
	compress := large &&
		h.Get(xhttp.ContentEncoding) == "" &&
		!strings.HasPrefix(h.Get(xhttp.ContentType), xhttp.MIMETextEventStream)

	if compress {
		h.Set(xhttp.ContentEncoding, gzipEncoding)
		h.Del(xhttp.ContentLength)
		g.zw = gzipWriters.Get().(*gzip.Writer)
		g.zw.Reset(g.ResponseWriter)
	}
	g.ResponseWriter.WriteHeader(g.status)

	if g.buf.Len() == 0 {
		return nil
	}
	_, err := g.write(g.buf.Bytes())
	g.buf.Reset()
	return err
}

// Flush sends whatever is buffered, uncompressed if the threshold was not reached.
func (g *gzipWriter) Flush() {
	if !g.decided {
		_ = g.decide(g.buf.Len() >= gzipMinSize)
	}
	if g.zw != nil {
		_ = g.zw.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (g *gzipWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

func (g *gzipWriter) close() error {
	if !g.decided {
		if err := g.decide(false); err != nil {
			return err
		}
	}
	if g.zw == nil {
		return nil
	}
	err := g.zw.Close()
	gzipWriters.Put(g.zw)
	g.zw = nil
	if err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return nil
}

// Gzip compresses JSON responses for clients that accept it. Requests for an
// event stream pass through untouched.
func Gzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get(xhttp.AcceptEncoding), gzipEncoding) ||
			strings.Contains(r.Header.Get(xhttp.Accept), xhttp.MIMETextEventStream) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add(xhttp.Vary, xhttp.AcceptEncoding)

		gw := &gzipWriter{ResponseWriter: w}
		defer gw.close() //nolint:errcheck // response is already committed

		next.ServeHTTP(gw, r)
	})
}

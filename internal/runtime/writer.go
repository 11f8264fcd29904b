package runtime

import (
	"bytes"
	"net/http"
)

// bufferedResponseWriter captures a response so it can be returned as a Lambda result.
type bufferedResponseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferedResponseWriter() *bufferedResponseWriter {
	return &bufferedResponseWriter{header: http.Header{}, status: http.StatusOK}
}

func (w *bufferedResponseWriter) Header() http.Header {
	return w.header
}

func (w *bufferedResponseWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedResponseWriter) WriteHeader(status int) {
	w.status = status
}

func (w *bufferedResponseWriter) flatHeaders() map[string]string {
	headers := make(map[string]string, len(w.header))
	for k := range w.header {
		headers[k] = w.header.Get(k)
	}
	return headers
}

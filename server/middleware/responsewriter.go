package middleware

import "net/http"

// responseRecorder records what a handler sent: the first status code,
// the body size, and whether the response was flushed mid-stream (SSE).
type responseRecorder struct {
	http.ResponseWriter
	status    int
	size      int64
	committed bool
	streamed  bool
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rr *responseRecorder) WriteHeader(code int) {
	if rr.committed {
		return
	}
	rr.status = code
	rr.committed = true
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	rr.committed = true
	n, err := rr.ResponseWriter.Write(b)
	rr.size += int64(n)
	return n, err
}

func (rr *responseRecorder) Flush() {
	f, ok := rr.ResponseWriter.(http.Flusher)
	if !ok {
		return
	}
	rr.committed = true
	rr.streamed = true
	f.Flush()
}

// Unwrap lets http.ResponseController reach the wrapped writer, which the
// event stream relies on to clear its write deadline.
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}

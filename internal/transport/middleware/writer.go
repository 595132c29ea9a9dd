package middleware

import (
	"bytes"
	"net/http"
)

// captureWriter wraps http.ResponseWriter to record the status and body.
type captureWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{ResponseWriter: w, body: &bytes.Buffer{}}
}

func (cw *captureWriter) WriteHeader(code int) {
	if cw.statusCode == 0 {
		cw.statusCode = code
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.statusCode == 0 {
		cw.statusCode = http.StatusOK
	}
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) status() int {
	if cw.statusCode == 0 {
		return http.StatusOK
	}
	return cw.statusCode
}

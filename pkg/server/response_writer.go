package server

import "net/http"

// statusRecorder remembers the status written by the handler so metrics and
// logging can report it. Only the first WriteHeader reaches the client.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(status int) {
	if sr.wroteHeader {
		return
	}
	sr.status = status
	sr.wroteHeader = true
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

// Status returns the recorded status code.
func (sr *statusRecorder) Status() int {
	return sr.status
}

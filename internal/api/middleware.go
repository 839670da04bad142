package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"hrvoice-go/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// withRequestLog stamps a request id, recovers panics and logs one line per
// request.
func withRequestLog(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.RequestID(r)
		r.Header.Set(logger.RequestIDHeader, id)
		w.Header().Set(logger.RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				log.WithRequest(r).WithField("panic", p).Error("handler panicked")
				writeJSON(rec, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			}
			log.WithRequest(r).
				WithField("status", rec.status).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				Info("request completed")
		}()
		next.ServeHTTP(rec, r)
	})
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

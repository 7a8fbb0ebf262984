package http

import (
	"log/slog"
	"net/http"
	"time"
)

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r.Context())

		log := s.log.With(
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)
		log.Info("request started")

		t1 := time.Now()
		ww := newResponseWriterWrapper(w)

		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.statusCode >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}

		log.Log(r.Context(), level, "request completed",
			slog.Int("status", ww.statusCode),
			slog.String("duration", time.Since(t1).String()),
		)
	})
}

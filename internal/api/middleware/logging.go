package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// AccessLog writes one structured entry per request.
func AccessLog(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(logrus.Fields{
				"request_id":  chiMiddleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			})
			if claims, ok := ClaimsFromContext(r.Context()); ok {
				entry = entry.WithField("user_id", claims.UserID)
			}

			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("request failed")
			case status >= http.StatusBadRequest:
				entry.Warn("request rejected")
			default:
				entry.Info("request handled")
			}
		})
	}
}

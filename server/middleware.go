package server

import (
	"net/http"
	"time"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const HeaderRequestID = "X-Request-ID"

// requestID reuses the caller's X-Request-ID or generates one, echoes it on the response and
// stores it in the request context.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logs.ContextWithRequestID(r.Context(), id)))
	})
}

func accessLog(logger logs.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			begin := time.Now()
			next.ServeHTTP(sw, r)

			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"took", time.Since(begin),
				"remote", r.RemoteAddr,
			}
			switch {
			case sw.status >= http.StatusInternalServerError:
				logger.Error(r.Context(), "request", kv...)
			case sw.status >= http.StatusBadRequest:
				logger.Warn(r.Context(), "request", kv...)
			default:
				logger.Info(r.Context(), "request", kv...)
			}
		})
	}
}

func statistics(stats metrics.HTTPStatistics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			begin := time.Now()
			next.ServeHTTP(sw, r)
			stats.Observe(routeName(r), sw.status, begin)
		})
	}
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
		return route.GetName()
	}
	return "unnamed"
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

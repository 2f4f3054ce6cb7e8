package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type requestIDKey struct{}

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// AuditEntry is one served request
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	Method     string
	Path       string
	ClientIP   string
	UserAgent  string
	Status     int
	DurationMs int64
}

// Fields renders the entry for zap
func (e AuditEntry) Fields() []zap.Field {
	return []zap.Field{
		zap.Time("timestamp", e.Timestamp),
		zap.String("request_id", e.RequestID),
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.String("client_ip", e.ClientIP),
		zap.String("user_agent", e.UserAgent),
		zap.Int("status", e.Status),
		zap.Int64("duration_ms", e.DurationMs),
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// audit assigns a request ID and logs every request once it completes.
// A client-supplied X-Request-ID is kept.
func (s *Server) audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := AuditEntry{
			Timestamp:  start.UTC(),
			RequestID:  id,
			Method:     r.Method,
			Path:       r.URL.Path,
			ClientIP:   r.RemoteAddr,
			UserAgent:  r.UserAgent(),
			Status:     rec.status,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Error("request", entry.Fields()...)
			return
		}
		s.logger.Info("request", entry.Fields()...)
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

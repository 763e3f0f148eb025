package http

import (
	"net/http"
	"strconv"
	"time"

	applog "payboard/internal/log"
	"payboard/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// wrap applies request IDs, logging, security headers, POST rate limiting
// and HTTP metrics to an application handler. endpoint is the metrics label.
func (s *Server) wrap(endpoint string, next http.HandlerFunc) http.Handler {
	inner := applog.Middleware(s.logger, applog.ComponentHTTP, requestID)(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		id := requestID(r)
		if id == "" {
			id = generateRequestID()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		ctx := r.Context()

		s.structured.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.securityMetrics) {
			s.logger.WithComponent(applog.ComponentSecurity).WarnContext(ctx, "Suspicious request detected",
				applog.FieldRequestID, id,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		setSecurityHeaders(w.Header())
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.securityMetrics) {
			s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldRequestID, id,
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path,
				"error_type", applog.ErrorTypeRateLimit)
			rw.Header().Set("Retry-After", "60")
			http.Error(rw, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		} else {
			inner.ServeHTTP(rw, r)
		}

		duration := time.Since(start)
		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
		metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(rw.statusCode), duration)
	})
}

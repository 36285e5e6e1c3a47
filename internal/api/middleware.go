package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests attaches a request scoped logger carrying request_id, method and path.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logger.With(r.Context(), "request_id", id, "method", r.Method, "path", r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info(ctx, "request completed",
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				err := errors.NewAppError(errors.TypeInternal, "Internal server error", fmt.Errorf("panic: %v", v))
				writeError(w, r, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimited rejects callers that exhausted their window with 429 and a reset time.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		client := clientID(r, s.trustProxy)
		res := s.limiter.Check(client)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.limiter.MaxRequests()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			resetTime := res.ResetAt.UTC().Format(isoMillis)
			retryAfter := int(res.ResetAt.Sub(s.now()).Seconds() + 0.999)
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			logger.Warn(r.Context(), "rate limit exceeded", "client", client, "reset_time", resetTime)
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":     "Too many requests",
				"message":   "Rate limit exceeded. Try again after " + resetTime,
				"resetTime": resetTime,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientID is the remote host of the connection. Behind a trusted proxy the first
// X-Forwarded-For hop is used instead; otherwise the header is ignored since any
// caller can set it.
func clientID(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

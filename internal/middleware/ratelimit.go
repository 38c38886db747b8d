package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/subtech/mina-dashboard/internal/ratelimit"
)

// LoginLimiter throttles login attempts per client IP and email. A nil
// limiter disables it.
type LoginLimiter struct {
	limiter *ratelimit.Limiter
	cfg     ratelimit.LimitConfig
}

func NewLoginLimiter(l *ratelimit.Limiter, cfg ratelimit.LimitConfig) *LoginLimiter {
	return &LoginLimiter{limiter: l, cfg: cfg}
}

// Key derives the limiter key for a login request. The body is restored
// for the handler.
func (m *LoginLimiter) Key(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	var email string
	if r.Body != nil {
		raw, _ := io.ReadAll(io.LimitReader(r.Body, 64*1024))
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		var body struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(raw, &body) == nil {
			email = strings.ToLower(strings.TrimSpace(body.Email))
		}
	}
	return "login:" + m.limiter.Hash(ip) + ":" + m.limiter.Hash(email)
}

func (m *LoginLimiter) Handler(next http.Handler) http.Handler {
	if m == nil || m.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := m.limiter.Allow(r.Context(), m.Key(r), m.cfg)
		if err != nil {
			// Auth endpoints fail closed.
			log.Printf("[ERROR] Login Limiter: %v", err)
			writeJSONError(w, http.StatusServiceUnavailable, map[string]string{"error": "Servicio no disponible"})
			return
		}
		writeRateLimitHeaders(w, d)
		if !d.Allowed {
			writeJSONError(w, http.StatusTooManyRequests, map[string]string{"error": "Demasiados intentos, intenta más tarde"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	}
}

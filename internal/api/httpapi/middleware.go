package httpapi

import (
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/pkg/errors"
)

func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.opts.AdminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "admin authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimit: фиксированное окно в минуту на IP клиента (счётчик в Redis).
// Если Redis недоступен, запрос пропускаем: вебхук важнее лимита.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := s.opts.WebhookRateLimitPerMinute
		if s.opts.Limiter == nil || limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := cache.RateLimitKey("webhook", s.clientIP(r))
		d, err := s.opts.Limiter.Allow(r.Context(), key, int64(limit), rateLimitWindow)
		if err != nil {
			s.log.Warn("webhook rate limiter unavailable", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}
		if !d.Allowed {
			s.log.Warn("webhook rate limited", "key", key, "count", d.Count)
			w.Header().Set("Retry-After", retryAfterSeconds(d.RetryAfter))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP: X-Forwarded-For читаем только если соединение пришло от доверенного прокси.
// Идём по цепочке справа налево и берём первый адрес, который не наш прокси.
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !s.trustedProxy(peer) {
		return peer
	}
	xff := r.Header.Values("X-Forwarded-For")
	var hops []string
	for _, v := range xff {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hops = append(hops, h)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !s.trustedProxy(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return peer
}

func (s *Server) trustedProxy(host string) bool {
	if len(s.opts.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.opts.TrustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// ParseTrustedProxies принимает адреса ("10.0.0.1") и подсети ("10.0.0.0/8").
func ParseTrustedProxies(list []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(list))
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "trusted proxy %q", raw)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "trusted proxy %q", raw)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func retryAfterSeconds(d time.Duration) string {
	sec := int64(math.Ceil(d.Seconds()))
	if sec < 1 {
		sec = 1
	}
	return strconv.FormatInt(sec, 10)
}

package rpc

import (
	"net"
	"net/http"
	"strings"
	"time"

	"cardsmith/go-backend/internal/platform/ratelimiter"
)

// RateLimitConfig bounds /rpc calls per client key (token, else remote ip).
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Enabled: true, RPS: 30, Burst: 60}
}

const rpcLimiterIdleTTL = 10 * time.Minute

// newRPCRateLimiter returns nil when disabled; a nil limiter allows all.
func newRPCRateLimiter(cfg RateLimitConfig) *ratelimiter.KeyedLimiter[string] {
	if !cfg.Enabled {
		return nil
	}
	def := DefaultRateLimitConfig()
	if cfg.RPS <= 0 {
		cfg.RPS = def.RPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	return ratelimiter.NewKeyed[string](cfg.RPS, cfg.Burst, rpcLimiterIdleTTL)
}

func rpcRateLimitKey(r *http.Request, token string) string {
	if strings.TrimSpace(token) != "" {
		return "token:" + token
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "ip:unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return "ip:" + remote
	}
	if strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}

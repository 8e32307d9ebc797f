package rpc

import "sync"

type StreamLimitConfig struct {
	MaxGlobal    int
	MaxPerClient int
}

func DefaultStreamLimitConfig() StreamLimitConfig {
	return StreamLimitConfig{MaxGlobal: 128, MaxPerClient: 8}
}

type rpcStreamLimiter struct {
	maxGlobal    int
	maxPerClient int

	mu       sync.Mutex
	global   int
	byClient map[string]int
}

func newRPCStreamLimiter(cfg StreamLimitConfig) *rpcStreamLimiter {
	def := DefaultStreamLimitConfig()
	if cfg.MaxGlobal <= 0 {
		cfg.MaxGlobal = def.MaxGlobal
	}
	if cfg.MaxPerClient <= 0 {
		cfg.MaxPerClient = def.MaxPerClient
	}
	return &rpcStreamLimiter{
		maxGlobal:    cfg.MaxGlobal,
		maxPerClient: cfg.MaxPerClient,
		byClient:     make(map[string]int),
	}
}

func (l *rpcStreamLimiter) acquire(clientKey string) (func(), bool) {
	if l == nil {
		return func() {}, true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.global >= l.maxGlobal {
		return nil, false
	}
	if l.byClient[clientKey] >= l.maxPerClient {
		return nil, false
	}
	l.global++
	l.byClient[clientKey]++
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.global > 0 {
			l.global--
		}
		next := l.byClient[clientKey] - 1
		if next <= 0 {
			delete(l.byClient, clientKey)
			return
		}
		l.byClient[clientKey] = next
	}, true
}

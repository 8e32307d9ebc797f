package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"cardsmith/go-backend/internal/app"
	"cardsmith/go-backend/internal/domains/contracts"
	"cardsmith/go-backend/internal/platform/ratelimiter"
)

type Options struct {
	// ListenAddr is a multiaddr (/ip4/127.0.0.1/tcp/8787) or host:port.
	ListenAddr string
	// Token guards every endpoint but /healthz and /metrics. "auto" generates
	// one at start and writes it to TokenFile.
	Token     string
	TokenFile string
	// AllowNoToken permits running without a token, for local development.
	AllowNoToken bool
	MaxBodyBytes int64
	RateLimit    RateLimitConfig
	Streams      StreamLimitConfig
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
	// Health adds fields to the /healthz body.
	Health func() map[string]any
	Logger *slog.Logger
}

type Server struct {
	httpServer   *http.Server
	addr         string
	service      contracts.BotService
	outbox       *app.Outbox
	rpcToken     string
	maxBodyBytes int64
	rpcLimiter   *ratelimiter.KeyedLimiter[string]
	streams      *rpcStreamLimiter
	idempotency  *rpcIdempotencyCache
	health       func() map[string]any
	logger       *slog.Logger
}

const defaultMaxBodyBytes int64 = 16 << 20

func NewServer(opts Options, svc contracts.BotService, outbox *app.Outbox) (*Server, error) {
	if svc == nil || outbox == nil {
		return nil, errors.New("rpc server needs a bot service and an outbox")
	}
	addr, err := ListenAddress(opts.ListenAddr)
	if err != nil {
		return nil, err
	}
	token, err := resolveRPCToken(opts.Token, opts.TokenFile)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if token == "" {
		if !opts.AllowNoToken {
			return nil, errors.New("rpc token is required; set rpc.token or allow_no_token for local use")
		}
		logger.Warn("rpc token is not set; rpc auth disabled", "component", "rpc")
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr:         addr,
		service:      svc,
		outbox:       outbox,
		rpcToken:     token,
		maxBodyBytes: maxBody,
		rpcLimiter:   newRPCRateLimiter(opts.RateLimit),
		streams:      newRPCStreamLimiter(opts.Streams),
		idempotency:  newRPCIdempotencyCache(),
		health:       opts.Health,
		logger:       logger,
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/rpc/stream", s.handleRPCStream)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s, nil
}

func (s *Server) Addr() string {
	return s.addr
}

// Token is the effective rpc token, after "auto" generation.
func (s *Server) Token() string {
	return s.rpcToken
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx ends, then shuts down and disconnects stream clients.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("rpc listening", "component", "rpc", "addr", ln.Addr().String())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		// Open SSE streams never end on their own.
		s.outbox.Hub().Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body := map[string]any{"status": "ok"}
	if s.health != nil {
		for k, v := range s.health() {
			if strings.TrimSpace(k) != "" && k != "status" {
				body[k] = v
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

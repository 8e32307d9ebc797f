package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cardsmith/go-backend/internal/domains/contracts"
	"cardsmith/go-backend/internal/domains/workflow/sessions"
	"cardsmith/go-backend/internal/platform/ratelimiter"
	"cardsmith/go-backend/internal/storage"
)

// ArtifactStore is the temp-file storage the workflows run on.
type ArtifactStore interface {
	Save(owner int64, name string, r io.Reader) (storage.Artifact, error)
	Create(owner int64, name string, data []byte) (storage.Artifact, error)
	Get(id string) (storage.Artifact, error)
	Read(id string) ([]byte, error)
	Release(id string) error
	ReleaseOwner(owner int64) (int, error)
}

type Deps struct {
	Artifacts  ArtifactStore
	Transport  contracts.Transport
	Authorizer contracts.Authorizer
	// Sessions defaults to a manager over Artifacts.
	Sessions *sessions.Manager
	// Limiter may be nil, which disables inbound rate limiting.
	Limiter *ratelimiter.RequesterLimiter
	// Registerer defaults to a private registry.
	Registerer prometheus.Registerer
	// ArtifactCount feeds the live artifacts gauge when set.
	ArtifactCount func() int
	Logger        *slog.Logger
}

// Service turns inbound chat events into session transitions, prompts and
// engine runs. Events of one requester are handled strictly in order; engine
// runs go to their own goroutine.
type Service struct {
	artifacts ArtifactStore
	transport contracts.Transport
	auth      contracts.Authorizer
	sessions  *sessions.Manager
	limiter   *ratelimiter.RequesterLimiter
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time

	runCtx  context.Context
	stopRun context.CancelFunc
	runs    sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

func NewService(deps Deps) (*Service, error) {
	if deps.Artifacts == nil {
		return nil, errors.New("workflow service: artifact store is required")
	}
	if deps.Transport == nil {
		return nil, errors.New("workflow service: transport is required")
	}
	if deps.Authorizer == nil {
		return nil, errors.New("workflow service: authorizer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mgr := deps.Sessions
	if mgr == nil {
		mgr = sessions.NewManager(deps.Artifacts, logger)
	}
	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := newMetrics()
	if err := metrics.register(reg, mgr.Len, deps.ArtifactCount); err != nil {
		return nil, err
	}
	runCtx, stop := context.WithCancel(context.Background())
	return &Service{
		artifacts: deps.Artifacts,
		transport: deps.Transport,
		auth:      deps.Authorizer,
		sessions:  mgr,
		limiter:   deps.Limiter,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		runCtx:    runCtx,
		stopRun:   stop,
	}, nil
}

// Sessions exposes the session manager for health reporting.
func (s *Service) Sessions() *sessions.Manager {
	return s.sessions
}

// Close cancels running engines and waits for them to clean up.
func (s *Service) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	s.closeMu.Unlock()
	s.stopRun()
	s.runs.Wait()
}

// Wait blocks until every engine run started so far has finished.
func (s *Service) Wait() {
	s.runs.Wait()
}

// admit applies the inbound rate limit. Dropped events are counted and logged.
func (s *Service) admit(requesterID int64, operation string) bool {
	if s.limiter.Allow(requesterID, s.now()) {
		return true
	}
	s.metrics.eventsDropped.WithLabelValues("rate_limited").Inc()
	s.logWarn(operation, "n/a", "inbound event rate limited", "requester_id", requesterID)
	return false
}

var _ contracts.BotService = (*Service)(nil)

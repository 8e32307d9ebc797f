package botserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cardsmith/go-backend/internal/adapters/rpc"
	"cardsmith/go-backend/internal/app"
	"cardsmith/go-backend/internal/bootstrap/botconfig"
	"cardsmith/go-backend/internal/domains/access"
	"cardsmith/go-backend/internal/domains/workflow/usecase"
	"cardsmith/go-backend/internal/platform/privacylog"
	"cardsmith/go-backend/internal/platform/ratelimiter"
	"cardsmith/go-backend/internal/storage"
)

// Daemon is the wired bot: workflow service behind the rpc adapter.
type Daemon struct {
	Config    botconfig.Config
	Server    *rpc.Server
	Service   *usecase.Service
	Access    *access.Service
	Artifacts *storage.ArtifactStore
	Outbox    *app.Outbox
	Registry  *prometheus.Registry
	logger    *slog.Logger
}

// Build wires every component from cfg. logOut receives JSON log lines.
func Build(cfg botconfig.Config, logOut io.Writer) (*Daemon, error) {
	cfg.ResolvePaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := privacylog.NewLogger(logOut, cfg.LogLevel)

	artifacts, err := storage.NewArtifactStore(cfg.ArtifactDir())
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	store := &access.StateStore{}
	store.Configure(cfg.AdminFile, cfg.AdminSecret)
	authz, err := access.NewService(cfg.OwnerID, store)
	if err != nil {
		return nil, fmt.Errorf("admin list: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	outbox := app.NewOutbox(app.NewNotificationHub(cfg.StreamHistory), app.DefaultMaxFileBytes)
	svc, err := usecase.NewService(usecase.Deps{
		Artifacts:     artifacts,
		Transport:     outbox,
		Authorizer:    authz,
		Limiter:       ratelimiter.New(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.LimiterIdleTTL),
		Registerer:    registry,
		ArtifactCount: artifacts.Len,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	server, err := rpc.NewServer(rpc.Options{
		ListenAddr:   cfg.ListenAddr,
		Token:        cfg.RPCToken,
		TokenFile:    cfg.RPCTokenFile,
		AllowNoToken: cfg.AllowNoToken,
		MaxBodyBytes: cfg.MaxUploadBytes,
		RateLimit:    rpc.DefaultRateLimitConfig(),
		Streams:      rpc.DefaultStreamLimitConfig(),
		Gatherer:     registry,
		Health: func() map[string]any {
			return map[string]any{
				"sessions":    svc.Sessions().Len(),
				"artifacts":   artifacts.Len(),
				"subscribers": outbox.Hub().Subscribers(),
			}
		},
		Logger: logger,
	}, svc, outbox)
	if err != nil {
		svc.Close()
		return nil, err
	}

	return &Daemon{
		Config:    cfg,
		Server:    server,
		Service:   svc,
		Access:    authz,
		Artifacts: artifacts,
		Outbox:    outbox,
		Registry:  registry,
		logger:    logger,
	}, nil
}

// Run serves until ctx ends, then cancels running workflows and wipes the
// artifact directory.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("cardbot starting",
		"component", "daemon",
		"addr", d.Server.Addr(),
		"owner_id", d.Config.OwnerID,
		"admins", len(d.Access.List()),
	)
	err := d.Server.Run(ctx)
	d.Service.Close()
	d.Service.Wait()
	if wipeErr := d.Artifacts.Wipe(); wipeErr != nil {
		d.logger.Warn("artifact wipe failed", "component", "daemon", "error", wipeErr.Error())
	}
	d.logger.Info("cardbot stopped", "component", "daemon")
	return err
}

package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	daodirectory "agora/contexts/governance/dao-directory"
	daopostgres "agora/contexts/governance/dao-directory/adapters/postgres"
	daoworkers "agora/contexts/governance/dao-directory/application/workers"
	proposalservice "agora/contexts/governance/proposal-service"
	proposalpostgres "agora/contexts/governance/proposal-service/adapters/postgres"
	proposalworkers "agora/contexts/governance/proposal-service/application/workers"
	votingengine "agora/contexts/governance/voting-engine"
	votingpostgres "agora/contexts/governance/voting-engine/adapters/postgres"
	votingworkers "agora/contexts/governance/voting-engine/application/workers"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"

	"github.com/robfig/cron/v3"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres       *db.Postgres
	sweeper        proposalworkers.ExpirationSweeper
	directoryRelay daoworkers.OutboxRelay
	proposalRelay  proposalworkers.OutboxRelay
	votingRelay    votingworkers.OutboxRelay
	sweepInterval  time.Duration
	relayInterval  time.Duration
	enableSweep    bool
	enableRelay    bool
	logger         *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	daoRepo := daopostgres.NewRepository(pg.DB, logger)
	directoryModule := daodirectory.NewModule(daodirectory.Dependencies{
		DAOs:   daoRepo,
		Outbox: daoRepo,
		Clock:  daopostgres.SystemClock{},
		IDGen:  daopostgres.UUIDGenerator{},
		Logger: logger,
	})

	voteRepo := votingpostgres.NewRepository(pg.DB, logger)
	votingModule := votingengine.NewModule(votingengine.Dependencies{
		Votes:     voteRepo,
		Proposals: voteRepo,
		Directory: voteRepo,
		// No balance source wired yet, so every ballot counts as weight 1
		// until a token ledger adapter lands here.
		Balances: nil,
		Outbox:   voteRepo,
		Clock:    votingpostgres.SystemClock{},
		IDGen:    votingpostgres.UUIDGenerator{},
		Logger:   logger,
	})

	proposalRepo := proposalpostgres.NewRepository(pg.DB, logger)
	proposalModule := proposalservice.NewModule(proposalservice.Dependencies{
		Proposals: proposalRepo,
		Directory: proposalRepo,
		Tallies:   votingModule.Tallies,
		Outbox:    proposalRepo,
		Clock:     proposalpostgres.SystemClock{},
		IDGen:     proposalpostgres.UUIDGenerator{},
		Logger:    logger,
	})

	server := httpserver.New(directoryModule, proposalModule, votingModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	daoRepo := daopostgres.NewRepository(pg.DB, logger)
	proposalRepo := proposalpostgres.NewRepository(pg.DB, logger)
	voteRepo := votingpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		sweeper: proposalworkers.ExpirationSweeper{
			Proposals: proposalRepo,
			Outbox:    proposalRepo,
			Clock:     proposalpostgres.SystemClock{},
			IDGen:     proposalpostgres.UUIDGenerator{},
			BatchSize: 100,
			Logger:    logger,
		},
		directoryRelay: daoworkers.OutboxRelay{
			Outbox:    daoRepo,
			Publisher: kafka,
			Clock:     daopostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		proposalRelay: proposalworkers.OutboxRelay{
			Outbox:    proposalRepo,
			Publisher: kafka,
			Clock:     proposalpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		votingRelay: votingworkers.OutboxRelay{
			Outbox:    voteRepo,
			Publisher: kafka,
			Clock:     votingpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		sweepInterval: cfg.SweepInterval,
		relayInterval: cfg.RelayInterval,
		enableSweep:   cfg.EnableExpirationSweep,
		enableRelay:   cfg.EnableOutboxRelay,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	scheduler := cron.New()

	if w.enableSweep {
		if _, err := scheduler.AddFunc("@every "+w.sweepInterval.String(), func() {
			if err := w.sweeper.RunOnce(ctx); err != nil {
				w.logger.Error("expiration sweep failed",
					"event", "bootstrap_sweep_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}); err != nil {
			return err
		}
	}

	if w.enableRelay {
		if _, err := scheduler.AddFunc("@every "+w.relayInterval.String(), func() {
			w.runRelays(ctx)
		}); err != nil {
			return err
		}
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_enabled", w.enableSweep,
		"sweep_interval", w.sweepInterval.String(),
		"relay_enabled", w.enableRelay,
		"relay_interval", w.relayInterval.String(),
	)

	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func (w *WorkerApp) runRelays(ctx context.Context) {
	if err := w.directoryRelay.RunOnce(ctx); err != nil {
		w.logger.Error("directory outbox relay failed",
			"event", "bootstrap_relay_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	if err := w.proposalRelay.RunOnce(ctx); err != nil {
		w.logger.Error("proposal outbox relay failed",
			"event", "bootstrap_relay_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	if err := w.votingRelay.RunOnce(ctx); err != nil {
		w.logger.Error("voting outbox relay failed",
			"event", "bootstrap_relay_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

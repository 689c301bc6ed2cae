package proposalservice

import (
	"log/slog"

	httpadapter "agora/contexts/governance/proposal-service/adapters/http"
	"agora/contexts/governance/proposal-service/adapters/memory"
	"agora/contexts/governance/proposal-service/application/commands"
	"agora/contexts/governance/proposal-service/application/queries"
	"agora/contexts/governance/proposal-service/application/workers"
	"agora/contexts/governance/proposal-service/domain/entities"
	"agora/contexts/governance/proposal-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Sweeper workers.ExpirationSweeper
	Store   *memory.Store
}

type Dependencies struct {
	Proposals ports.ProposalRepository
	Directory ports.DAODirectory
	Tallies   ports.TallySource
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createProposal := commands.CreateProposalUseCase{
		Proposals: deps.Proposals,
		Directory: deps.Directory,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	updateStatus := commands.UpdateProposalStatusUseCase{
		Proposals: deps.Proposals,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	settle := commands.SettleProposalUseCase{
		Proposals: deps.Proposals,
		Directory: deps.Directory,
		Tallies:   deps.Tallies,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	queryUseCase := queries.ProposalQueryUseCase{
		Proposals: deps.Proposals,
		Clock:     deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			CreateProposal: createProposal,
			UpdateStatus:   updateStatus,
			Settle:         settle,
			Queries:        queryUseCase,
			Logger:         deps.Logger,
		},
		Sweeper: workers.ExpirationSweeper{
			Proposals: deps.Proposals,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Proposal, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Proposals: store,
		Directory: store,
		Tallies:   store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}

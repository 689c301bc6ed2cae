package votingengine

import (
	"log/slog"

	httpadapter "agora/contexts/governance/voting-engine/adapters/http"
	"agora/contexts/governance/voting-engine/adapters/memory"
	"agora/contexts/governance/voting-engine/application/commands"
	"agora/contexts/governance/voting-engine/application/queries"
	"agora/contexts/governance/voting-engine/domain/entities"
	"agora/contexts/governance/voting-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Tallies queries.TallyUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Votes     ports.VoteRepository
	Proposals ports.ProposalGateway
	Directory ports.DAOGateway
	Balances  ports.TokenBalanceSource
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	castVote := commands.CastVoteUseCase{
		Votes:     deps.Votes,
		Proposals: deps.Proposals,
		Directory: deps.Directory,
		Balances:  deps.Balances,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	tallies := queries.TallyUseCase{
		Votes:     deps.Votes,
		Proposals: deps.Proposals,
	}
	voteQueries := queries.VoteQueryUseCase{
		Votes: deps.Votes,
	}
	return Module{
		Handler: httpadapter.Handler{
			CastVote: castVote,
			Tallies:  tallies,
			Votes:    voteQueries,
			Logger:   deps.Logger,
		},
		Tallies: tallies,
	}
}

func NewInMemoryModule(seed []entities.Vote, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Votes:     store,
		Proposals: store,
		Directory: store,
		Balances:  store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}

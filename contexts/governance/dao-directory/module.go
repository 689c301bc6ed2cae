package daodirectory

import (
	"log/slog"

	httpadapter "agora/contexts/governance/dao-directory/adapters/http"
	"agora/contexts/governance/dao-directory/adapters/memory"
	"agora/contexts/governance/dao-directory/application/commands"
	"agora/contexts/governance/dao-directory/application/queries"
	"agora/contexts/governance/dao-directory/domain/entities"
	"agora/contexts/governance/dao-directory/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	DAOs   ports.DAORepository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createDAO := commands.CreateDAOUseCase{
		DAOs:   deps.DAOs,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	membership := commands.MembershipUseCase{
		DAOs:   deps.DAOs,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	updateStatus := commands.UpdateDAOStatusUseCase{
		DAOs:   deps.DAOs,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	directory := queries.DirectoryUseCase{
		DAOs: deps.DAOs,
	}
	return Module{
		Handler: httpadapter.Handler{
			CreateDAO:    createDAO,
			Membership:   membership,
			UpdateStatus: updateStatus,
			Directory:    directory,
			Logger:       deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.DAO, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		DAOs:   store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}

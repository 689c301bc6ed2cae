package queries

import (
	"context"
	"strings"

	"agora/contexts/governance/dao-directory/domain/entities"
	"agora/contexts/governance/dao-directory/ports"
)

type DirectoryUseCase struct {
	DAOs ports.DAORepository
}

func (uc DirectoryUseCase) GetDAO(ctx context.Context, daoID string) (entities.DAO, error) {
	return uc.DAOs.GetDAO(ctx, strings.TrimSpace(daoID))
}

func (uc DirectoryUseCase) ListDAOs(ctx context.Context, filter ports.DAOFilter) ([]entities.DAO, error) {
	return uc.DAOs.ListDAOs(ctx, filter)
}

// IsMember reports membership for a DAO that must exist; a missing DAO is
// surfaced as ErrDAONotFound by the repository.
func (uc DirectoryUseCase) IsMember(ctx context.Context, daoID string, address string) (bool, error) {
	return uc.DAOs.IsMember(ctx, strings.TrimSpace(daoID), strings.TrimSpace(address))
}

func (uc DirectoryUseCase) ListProposalRefs(ctx context.Context, daoID string) ([]string, error) {
	return uc.DAOs.ListProposalRefs(ctx, strings.TrimSpace(daoID))
}

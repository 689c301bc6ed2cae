package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"agora/contexts/governance/dao-directory/application/commands"
	"agora/contexts/governance/dao-directory/application/queries"
	"agora/contexts/governance/dao-directory/domain/entities"
	"agora/contexts/governance/dao-directory/ports"
	httptransport "agora/contexts/governance/dao-directory/transport/http"
)

type Handler struct {
	CreateDAO    commands.CreateDAOUseCase
	Membership   commands.MembershipUseCase
	UpdateStatus commands.UpdateDAOStatusUseCase
	Directory    queries.DirectoryUseCase
	Logger       *slog.Logger
}

func (h Handler) CreateDAOHandler(ctx context.Context, req httptransport.CreateDAORequest) (httptransport.DAOResponse, error) {
	dao, err := h.CreateDAO.Execute(ctx, commands.CreateDAOCommand{
		Name:         req.Name,
		Description:  req.Description,
		OwnerAddress: req.OwnerAddress,
		Status:       entities.DAOStatus(req.Status),
		VotingRules: entities.VotingRules{
			ThresholdPercent:     req.VotingRules.Threshold,
			MinVotingPeriodHours: req.VotingRules.MinVotingPeriod,
			TokenWeighted:        req.VotingRules.TokenWeighted,
		},
		Members: req.Members,
	})
	if err != nil {
		return httptransport.DAOResponse{}, err
	}
	return mapDAO(dao, nil), nil
}

func (h Handler) GetDAOHandler(ctx context.Context, daoID string) (httptransport.DAOResponse, error) {
	dao, err := h.Directory.GetDAO(ctx, daoID)
	if err != nil {
		return httptransport.DAOResponse{}, err
	}
	refs, err := h.Directory.ListProposalRefs(ctx, daoID)
	if err != nil {
		return httptransport.DAOResponse{}, err
	}
	return mapDAO(dao, refs), nil
}

func (h Handler) ListDAOsHandler(ctx context.Context, owner string, status string) (httptransport.DAOListResponse, error) {
	daos, err := h.Directory.ListDAOs(ctx, ports.DAOFilter{
		OwnerAddress: owner,
		Status:       entities.DAOStatus(status),
	})
	if err != nil {
		return httptransport.DAOListResponse{}, err
	}
	items := make([]httptransport.DAOResponse, 0, len(daos))
	for _, dao := range daos {
		items = append(items, mapDAO(dao, nil))
	}
	return httptransport.DAOListResponse{Items: items}, nil
}

func (h Handler) IsMemberHandler(ctx context.Context, daoID string, address string) (httptransport.MembershipResponse, error) {
	isMember, err := h.Directory.IsMember(ctx, daoID, address)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return httptransport.MembershipResponse{
		DAOID:    daoID,
		Address:  address,
		IsMember: isMember,
	}, nil
}

func (h Handler) AddMemberHandler(ctx context.Context, daoID string, req httptransport.MemberRequest) (httptransport.DAOResponse, error) {
	dao, err := h.Membership.AddMember(ctx, daoID, req.MemberAddress)
	if err != nil {
		return httptransport.DAOResponse{}, err
	}
	return mapDAO(dao, nil), nil
}

func (h Handler) RemoveMemberHandler(ctx context.Context, daoID string, req httptransport.MemberRequest) (httptransport.DAOResponse, error) {
	dao, err := h.Membership.RemoveMember(ctx, daoID, req.MemberAddress)
	if err != nil {
		return httptransport.DAOResponse{}, err
	}
	return mapDAO(dao, nil), nil
}

func (h Handler) UpdateStatusHandler(ctx context.Context, daoID string, req httptransport.UpdateDAOStatusRequest) (httptransport.DAOResponse, error) {
	dao, err := h.UpdateStatus.Execute(ctx, daoID, entities.DAOStatus(req.Status))
	if err != nil {
		return httptransport.DAOResponse{}, err
	}
	return mapDAO(dao, nil), nil
}

func mapDAO(dao entities.DAO, refs []string) httptransport.DAOResponse {
	return httptransport.DAOResponse{
		DAOID:        dao.DAOID,
		Name:         dao.Name,
		Description:  dao.Description,
		OwnerAddress: dao.OwnerAddress,
		Status:       string(dao.Status),
		VotingRules: httptransport.VotingRulesPayload{
			Threshold:       dao.VotingRules.ThresholdPercent,
			MinVotingPeriod: dao.VotingRules.MinVotingPeriodHours,
			TokenWeighted:   dao.VotingRules.TokenWeighted,
		},
		Members:   dao.Members,
		Proposals: refs,
		CreatedAt: dao.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: dao.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

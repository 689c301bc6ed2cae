package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	proposalerrors "agora/contexts/governance/proposal-service/domain/errors"
	proposalhttp "agora/contexts/governance/proposal-service/transport/http"
)

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalhttp.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProposalError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.CreatorAddress == "" {
		req.CreatorAddress = r.Header.Get("X-User-Address")
	}
	resp, err := s.proposals.Handler.CreateProposalHandler(r.Context(), req)
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.proposals.Handler.ListProposalsHandler(r.Context(), query.Get("dao_id"), query.Get("creator"), query.Get("status"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	resp, err := s.proposals.Handler.GetProposalHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListActiveProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.proposals.Handler.ListActiveProposalsHandler(r.Context(), r.PathValue("dao_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	var req proposalhttp.UpdateProposalStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProposalError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	resp, err := s.proposals.Handler.UpdateStatusHandler(r.Context(), r.PathValue("proposal_id"), req)
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettleProposal(w http.ResponseWriter, r *http.Request) {
	resp, err := s.proposals.Handler.SettleProposalHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeProposalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeProposalDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, proposalerrors.ErrProposalNotFound):
		writeProposalError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, proposalerrors.ErrDAONotFound):
		writeProposalError(w, http.StatusNotFound, "dao_not_found", err.Error())
	case errors.Is(err, proposalerrors.ErrCreatorNotMember):
		writeProposalError(w, http.StatusBadRequest, "creator_not_member", err.Error())
	case errors.Is(err, proposalerrors.ErrVotingPeriodTooShort):
		writeProposalError(w, http.StatusBadRequest, "voting_period_too_short", err.Error())
	case errors.Is(err, proposalerrors.ErrTooManyVotingOptions):
		writeProposalError(w, http.StatusBadRequest, "too_many_voting_options", err.Error())
	case errors.Is(err, proposalerrors.ErrInvalidProposalInput):
		writeProposalError(w, http.StatusBadRequest, "invalid_proposal_input", err.Error())
	case errors.Is(err, proposalerrors.ErrInvalidProposalStatus):
		writeProposalError(w, http.StatusBadRequest, "invalid_proposal_status", err.Error())
	case errors.Is(err, proposalerrors.ErrInvalidStateTransition):
		writeProposalError(w, http.StatusBadRequest, "invalid_state_transition", err.Error())
	case errors.Is(err, proposalerrors.ErrProposalNotSettleable):
		writeProposalError(w, http.StatusBadRequest, "proposal_not_settleable", err.Error())
	case errors.Is(err, proposalerrors.ErrConflict):
		writeProposalError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, proposalerrors.ErrNotificationFailed):
		writeProposalError(w, http.StatusBadGateway, "notification_failed", err.Error())
	default:
		writeProposalError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeProposalError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, proposalhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	votingerrors "agora/contexts/governance/voting-engine/domain/errors"
	votinghttp "agora/contexts/governance/voting-engine/transport/http"
)

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req votinghttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.VoterAddress == "" {
		req.VoterAddress = r.Header.Get("X-User-Address")
	}
	resp, err := s.voting.Handler.CastVoteHandler(r.Context(), req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.GetVoteHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProposalVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.ListProposalVotesHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFindVoterVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.FindVoterVoteHandler(r.Context(), r.PathValue("proposal_id"), r.PathValue("voter_address"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.TallyHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDAOVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.voting.Handler.ListDAOVotesHandler(r.Context(), r.PathValue("dao_id"))
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrProposalNotFound):
		writeVotingError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrDAONotFound):
		writeVotingError(w, http.StatusNotFound, "dao_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrVoteNotFound):
		writeVotingError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrProposalNotActive):
		writeVotingError(w, http.StatusBadRequest, "proposal_not_active", err.Error())
	case errors.Is(err, votingerrors.ErrVotingWindowClosed):
		writeVotingError(w, http.StatusBadRequest, "voting_window_closed", err.Error())
	case errors.Is(err, votingerrors.ErrVoterNotMember):
		writeVotingError(w, http.StatusBadRequest, "voter_not_member", err.Error())
	case errors.Is(err, votingerrors.ErrInvalidChoice):
		writeVotingError(w, http.StatusBadRequest, "invalid_choice", err.Error())
	case errors.Is(err, votingerrors.ErrInvalidVoteInput):
		writeVotingError(w, http.StatusBadRequest, "invalid_vote_input", err.Error())
	case errors.Is(err, votingerrors.ErrAlreadyVoted):
		writeVotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, votingerrors.ErrConflict):
		writeVotingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, votingerrors.ErrNotificationFailed):
		writeVotingError(w, http.StatusBadGateway, "notification_failed", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	directoryerrors "agora/contexts/governance/dao-directory/domain/errors"
	directoryhttp "agora/contexts/governance/dao-directory/transport/http"
)

func (s *Server) handleCreateDAO(w http.ResponseWriter, r *http.Request) {
	var req directoryhttp.CreateDAORequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDirectoryError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	resp, err := s.directory.Handler.CreateDAOHandler(r.Context(), req)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListDAOs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.directory.Handler.ListDAOsHandler(r.Context(), query.Get("owner"), query.Get("status"))
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDAO(w http.ResponseWriter, r *http.Request) {
	resp, err := s.directory.Handler.GetDAOHandler(r.Context(), r.PathValue("dao_id"))
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateDAOStatus(w http.ResponseWriter, r *http.Request) {
	var req directoryhttp.UpdateDAOStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDirectoryError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	resp, err := s.directory.Handler.UpdateStatusHandler(r.Context(), r.PathValue("dao_id"), req)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req directoryhttp.MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDirectoryError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	resp, err := s.directory.Handler.AddMemberHandler(r.Context(), r.PathValue("dao_id"), req)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	var req directoryhttp.MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDirectoryError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	resp, err := s.directory.Handler.RemoveMemberHandler(r.Context(), r.PathValue("dao_id"), req)
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIsMember(w http.ResponseWriter, r *http.Request) {
	resp, err := s.directory.Handler.IsMemberHandler(r.Context(), r.PathValue("dao_id"), r.PathValue("address"))
	if err != nil {
		writeDirectoryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDirectoryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directoryerrors.ErrDAONotFound):
		writeDirectoryError(w, http.StatusNotFound, "dao_not_found", err.Error())
	case errors.Is(err, directoryerrors.ErrInvalidDAOInput):
		writeDirectoryError(w, http.StatusBadRequest, "invalid_dao_input", err.Error())
	case errors.Is(err, directoryerrors.ErrInvalidDAOStatus):
		writeDirectoryError(w, http.StatusBadRequest, "invalid_dao_status", err.Error())
	case errors.Is(err, directoryerrors.ErrConflict):
		writeDirectoryError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, directoryerrors.ErrNotificationFailed):
		writeDirectoryError(w, http.StatusBadGateway, "notification_failed", err.Error())
	default:
		writeDirectoryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDirectoryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, directoryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

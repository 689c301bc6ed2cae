package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	daodirectory "agora/contexts/governance/dao-directory"
	proposalservice "agora/contexts/governance/proposal-service"
	votingengine "agora/contexts/governance/voting-engine"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "agora/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	directory daodirectory.Module
	proposals proposalservice.Module
	voting    votingengine.Module
}

func New(
	directory daodirectory.Module,
	proposals proposalservice.Module,
	voting votingengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		directory: directory,
		proposals: proposals,
		voting:    voting,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/governance/v1/daos", s.handleCreateDAO)
	s.mux.HandleFunc("GET /api/governance/v1/daos", s.handleListDAOs)
	s.mux.HandleFunc("GET /api/governance/v1/daos/{dao_id}", s.handleGetDAO)
	s.mux.HandleFunc("POST /api/governance/v1/daos/{dao_id}/status", s.handleUpdateDAOStatus)
	s.mux.HandleFunc("POST /api/governance/v1/daos/{dao_id}/members/add", s.handleAddMember)
	s.mux.HandleFunc("POST /api/governance/v1/daos/{dao_id}/members/remove", s.handleRemoveMember)
	s.mux.HandleFunc("GET /api/governance/v1/daos/{dao_id}/members/{address}", s.handleIsMember)

	s.mux.HandleFunc("POST /api/governance/v1/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /api/governance/v1/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("GET /api/governance/v1/daos/{dao_id}/proposals/active", s.handleListActiveProposals)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/status", s.handleUpdateProposalStatus)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/settle", s.handleSettleProposal)

	s.mux.HandleFunc("POST /api/governance/v1/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/governance/v1/votes/{vote_id}", s.handleGetVote)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/votes", s.handleListProposalVotes)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/votes/{voter_address}", s.handleFindVoterVote)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/tally", s.handleTally)
	s.mux.HandleFunc("GET /api/governance/v1/daos/{dao_id}/votes", s.handleListDAOVotes)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

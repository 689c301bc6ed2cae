package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastVoteRequest struct {
	ProposalID   string `json:"proposal_id"`
	VoterAddress string `json:"voter_address"`
	Choice       string `json:"choice"`
	Comment      string `json:"comment,omitempty"`
}

type VoteResponse struct {
	VoteID       string `json:"vote_id"`
	ProposalID   string `json:"proposal_id"`
	DAOID        string `json:"dao_id"`
	VoterAddress string `json:"voter_address"`
	Choice       string `json:"choice"`
	Weight       int64  `json:"weight"`
	Comment      string `json:"comment,omitempty"`
	CastAt       string `json:"cast_at"`
}

type VoteListResponse struct {
	Items []VoteResponse `json:"items"`
}

type TallyResponse struct {
	ProposalID string           `json:"proposal_id"`
	Totals     map[string]int64 `json:"totals"`
	VoteCount  int              `json:"vote_count"`
}

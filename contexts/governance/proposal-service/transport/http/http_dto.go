package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	DAOID          string          `json:"dao_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	CreatorAddress string          `json:"creator_address"`
	VotingOptions  []string        `json:"voting_options,omitempty"`
	StartTime      string          `json:"start_time,omitempty"`
	EndTime        string          `json:"end_time"`
	ProposalData   json.RawMessage `json:"proposal_data,omitempty"`
}

type ProposalResponse struct {
	ProposalID     string          `json:"proposal_id"`
	DAOID          string          `json:"dao_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	CreatorAddress string          `json:"creator_address"`
	Status         string          `json:"status"`
	VotingOptions  []string        `json:"voting_options"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	ProposalData   json.RawMessage `json:"proposal_data,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type UpdateProposalStatusRequest struct {
	Status string `json:"status"`
}

type SettlementResponse struct {
	Proposal    ProposalResponse `json:"proposal"`
	Tally       map[string]int64 `json:"tally"`
	TotalWeight int64            `json:"total_weight"`
	YesWeight   int64            `json:"yes_weight"`
}

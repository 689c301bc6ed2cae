package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type VotingRulesPayload struct {
	Threshold       int  `json:"threshold"`
	MinVotingPeriod int  `json:"min_voting_period"`
	TokenWeighted   bool `json:"token_weighted"`
}

type CreateDAORequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	OwnerAddress string             `json:"owner_address"`
	Status       string             `json:"status,omitempty"`
	VotingRules  VotingRulesPayload `json:"voting_rules"`
	Members      []string           `json:"members,omitempty"`
}

type DAOResponse struct {
	DAOID        string             `json:"dao_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	OwnerAddress string             `json:"owner_address"`
	Status       string             `json:"status"`
	VotingRules  VotingRulesPayload `json:"voting_rules"`
	Members      []string           `json:"members"`
	Proposals    []string           `json:"proposals,omitempty"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

type DAOListResponse struct {
	Items []DAOResponse `json:"items"`
}

type MemberRequest struct {
	MemberAddress string `json:"member_address"`
}

type MembershipResponse struct {
	DAOID    string `json:"dao_id"`
	Address  string `json:"address"`
	IsMember bool   `json:"is_member"`
}

type UpdateDAOStatusRequest struct {
	Status string `json:"status"`
}

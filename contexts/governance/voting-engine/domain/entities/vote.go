package entities

import "time"

// Vote is an immutable ballot. Once cast it is never updated or deleted;
// corrections happen at the proposal level, not by rewriting ballots.
type Vote struct {
	VoteID       string
	ProposalID   string
	DAOID        string
	VoterAddress string
	Choice       string
	Weight       int64
	Comment      string
	CastAt       time.Time
}

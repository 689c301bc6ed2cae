package errors

import "errors"

var (
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrProposalNotActive  = errors.New("proposal is not active")
	ErrVotingWindowClosed = errors.New("voting window is closed")
	ErrDAONotFound        = errors.New("dao not found")
	ErrVoterNotMember     = errors.New("voter is not a dao member")
	ErrAlreadyVoted       = errors.New("voter already voted on this proposal")
	ErrInvalidChoice      = errors.New("choice is not a voting option")
	ErrInvalidVoteInput   = errors.New("invalid vote input")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrConflict           = errors.New("voting conflict")
	ErrNotificationFailed = errors.New("notification enqueue failed")
)

package errors

import "errors"

var (
	ErrProposalNotFound       = errors.New("proposal not found")
	ErrDAONotFound            = errors.New("dao not found")
	ErrInvalidProposalInput   = errors.New("invalid proposal input")
	ErrCreatorNotMember       = errors.New("creator is not a dao member")
	ErrVotingPeriodTooShort   = errors.New("voting period shorter than dao minimum")
	ErrTooManyVotingOptions   = errors.New("too many voting options")
	ErrInvalidProposalStatus  = errors.New("invalid proposal status")
	ErrInvalidStateTransition = errors.New("invalid proposal state transition")
	ErrProposalNotSettleable  = errors.New("proposal cannot be settled yet")
	ErrConflict               = errors.New("proposal conflict")
	ErrNotificationFailed     = errors.New("notification enqueue failed")
)

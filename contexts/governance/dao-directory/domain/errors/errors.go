package errors

import "errors"

var (
	ErrDAONotFound        = errors.New("dao not found")
	ErrInvalidDAOInput    = errors.New("invalid dao input")
	ErrInvalidDAOStatus   = errors.New("invalid dao status")
	ErrConflict           = errors.New("directory conflict")
	ErrNotificationFailed = errors.New("notification enqueue failed")
)

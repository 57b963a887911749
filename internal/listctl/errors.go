package listctl

import "errors"

var (
	ErrClientRequired    = errors.New("resource client is required")
	ErrValidation        = errors.New("form validation failed")
	ErrCancelled         = errors.New("operation cancelled")
	ErrEmptySelection    = errors.New("no rows selected")
	ErrDialogOpen        = errors.New("dialog already open")
	ErrDialogClosed      = errors.New("dialog closed")
	ErrDialogBusy        = errors.New("dialog is submitting")
	ErrInvalidDialogMode = errors.New("invalid dialog mode")
	ErrInvalidTransition = errors.New("invalid delete flow transition")
	ErrRowNotFound       = errors.New("row not found")
)

package contract

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrPermission        = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrExecution         = errors.New("mutation execution failed")
)

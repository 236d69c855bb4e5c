package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrLockHeld       = errors.New("lock already held")
	ErrNoSignal       = errors.New("no signal available")
	ErrNotApplicable  = errors.New("provider not applicable")
	ErrInvalidWeights = errors.New("invalid weight table")
	ErrInvalidScore   = errors.New("score out of range")
)

package domain

import "errors"

var (
	ErrVideoNotFound     = errors.New("video not found")
	ErrGrantNotFound     = errors.New("grant not found")
	ErrRequestNotFound   = errors.New("request not found")
	ErrCoachNotFound     = errors.New("coach not found")
	ErrForbidden         = errors.New("caller lacks required capability")
	ErrInvalidCapability = errors.New("capability not allowed for this operation")
	ErrIDConflict        = errors.New("id already in use")
	ErrRequestClosed     = errors.New("request already responded to")
)

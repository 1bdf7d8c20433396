package session

import "errors"

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrUnauthorized   = errors.New("unauthorized")
)

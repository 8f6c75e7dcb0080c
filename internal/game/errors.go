package game

import "errors"

var (
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state for action")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrValidation         = errors.New("invalid input")
	ErrAlreadyDone        = errors.New("already done")
	ErrInternal           = errors.New("internal inconsistency")
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
)

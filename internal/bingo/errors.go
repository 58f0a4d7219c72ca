package bingo

import "errors"

// Engine errors. All are caller-recoverable: a failed operation leaves the
// session and registry invariants intact, and nothing here is retried
// automatically.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrDuplicatePlayer   = errors.New("player already in session")
	ErrGameInProgress    = errors.New("cannot join game in progress")
	ErrGameNotInProgress = errors.New("game not in progress")
	ErrGameFinished      = errors.New("game already finished")
	ErrNotEnoughPlayers  = errors.New("not enough players to start game")
	ErrCallTooSoon       = errors.New("too soon for next call")
	ErrAllNumbersCalled  = errors.New("all numbers have been called")
	ErrNumberNotCalled   = errors.New("number has not been called")
	ErrInvalidClaim      = errors.New("invalid bingo claim")
)

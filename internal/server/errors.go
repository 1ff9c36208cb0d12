package server

import (
	"errors"
	"net/http"
)

// Typed failures surfaced to the HTTP layer. Core operations never retry;
// a rejected transition leaves room state unchanged.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrRoundNotStarted     = errors.New("round not started")
	ErrNotJoined           = errors.New("join the room first")
	ErrPermissionDenied    = errors.New("only the host can do that")
	ErrInsufficientPlayers = errors.New("not enough players")
	ErrDuplicateName       = errors.New("name already taken in this room")
	ErrDuplicateHint       = errors.New("that emoji set is already used this round")
	ErrHintsClosed         = errors.New("hints not accepted in this phase")
	ErrVotesClosed         = errors.New("votes not accepted in this phase")
	ErrSelfVote            = errors.New("cannot vote for yourself")
	ErrTargetNotFound      = errors.New("vote target not in this room")
	ErrRoundInProgress     = errors.New("round already in progress")
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrTargetNotFound),
		errors.Is(err, ErrRoundNotStarted):
		return http.StatusNotFound
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotJoined):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrDuplicateHint),
		errors.Is(err, ErrHintsClosed),
		errors.Is(err, ErrVotesClosed),
		errors.Is(err, ErrSelfVote),
		errors.Is(err, ErrInsufficientPlayers),
		errors.Is(err, ErrRoundInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

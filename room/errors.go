package room

import "errors"

var (
	// ErrRoomNotJoinable is returned by Join when the round is not waiting
	// or every seat is taken.
	ErrRoomNotJoinable = errors.New("room is not joinable")
	// ErrAlreadyJoined is returned by Join together with the existing card.
	ErrAlreadyJoined = errors.New("player already joined")
	// ErrRoundNotActive is returned when an operation needs a round in play.
	ErrRoundNotActive = errors.New("round not active")
	// ErrInvalidClaim means the claimant's card has no complete line.
	ErrInvalidClaim = errors.New("invalid bingo claim")
	ErrNotSeated    = errors.New("player not seated in room")
	// ErrNumbersExhausted is returned by DrawNumber when the draw ended the round.
	ErrNumbersExhausted = errors.New("numbers exhausted")
	ErrRoomClosed       = errors.New("room closed")
	// ErrRoomNotFound is returned by read-only lookups of an unknown room id.
	ErrRoomNotFound = errors.New("room not found")
)

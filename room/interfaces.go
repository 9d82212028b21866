package room

import "github.com/wfunc/bingoserver/models"

// Broadcaster defines the transport capabilities a room needs: room-scoped
// fan-out, one-to-one replies, and maintaining which connections belong to
// the room channel.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	SendToSession(sessionID string, msgID uint16, data []byte) error
	Attach(roomID, sessionID string)
	Detach(roomID, sessionID string)
}

// Observer receives lifecycle notifications, e.g. for metrics.
type Observer interface {
	RoundStarted(roomID string)
	RoundEnded(roomID, reason string)
	NumberDrawn(roomID string)
	PlayersChanged(roomID string, count int)
}

// Recorder archives finished rounds. Implementations must not block.
type Recorder interface {
	RecordRound(record models.RoundRecord)
}

type nopObserver struct{}

func (nopObserver) RoundStarted(string)        {}
func (nopObserver) RoundEnded(string, string)  {}
func (nopObserver) NumberDrawn(string)         {}
func (nopObserver) PlayersChanged(string, int) {}

type nopRecorder struct{}

func (nopRecorder) RecordRound(models.RoundRecord) {}

// state/interfaces.go
package state

// RoomContext is the part of a room the round states drive: the timers that
// must be armed exactly while a state is current.
// This breaks the import cycle between room and state.
type RoomContext interface {
	GetID() string
	StartDrawTimer()
	StopDrawTimer()
	StopWaitingTimers()
	ScheduleReset()
	CancelReset()
}

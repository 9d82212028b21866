package state

import "github.com/wfunc/bingoserver/logger"

const (
	StateWaiting  = "waiting"
	StatePlaying  = "playing"
	StateFinished = "finished"
)

// WaitingState 等待玩家加入。等待计时器由房间按人数装配，离开该状态时一律撤销。
type WaitingState struct {
	RoomStateBase
}

func NewWaitingState(room RoomContext) *WaitingState {
	return &WaitingState{RoomStateBase{ID: StateWaiting, Room: room}}
}

func (s *WaitingState) OnExit() {
	s.Room.StopWaitingTimers()
}

// PlayingState 游戏进行中，抽号计时器的生命周期与该状态完全一致
type PlayingState struct {
	RoomStateBase
}

func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{RoomStateBase{ID: StatePlaying, Room: room}}
}

func (s *PlayingState) OnEnter() {
	logger.Log.Infow("round playing", "room", s.Room.GetID())
	s.Room.StartDrawTimer()
}

func (s *PlayingState) OnExit() {
	s.Room.StopDrawTimer()
}

// FinishedState 本局结束，展示结果直到宽限期后的重置
type FinishedState struct {
	RoomStateBase
}

func NewFinishedState(room RoomContext) *FinishedState {
	return &FinishedState{RoomStateBase{ID: StateFinished, Room: room}}
}

func (s *FinishedState) OnEnter() {
	s.Room.ScheduleReset()
}

func (s *FinishedState) OnExit() {
	s.Room.CancelReset()
}

// RoundStates groups the three lifecycle states of one room.
type RoundStates struct {
	Waiting  *WaitingState
	Playing  *PlayingState
	Finished *FinishedState
}

func NewRoundStates(room RoomContext) RoundStates {
	return RoundStates{
		Waiting:  NewWaitingState(room),
		Playing:  NewPlayingState(room),
		Finished: NewFinishedState(room),
	}
}

// NewRoundStateMachine wires the round cycle: waiting -> playing -> finished
// -> waiting, plus playing -> waiting for a manual stop or an emptied room.
func NewRoundStateMachine(states RoundStates) *BaseStateMachine {
	sm := NewBaseStateMachine(states.Waiting)
	sm.AddTransition(states.Waiting, states.Playing, nil)
	sm.AddTransition(states.Playing, states.Finished, nil)
	sm.AddTransition(states.Playing, states.Waiting, nil)
	sm.AddTransition(states.Finished, states.Waiting, nil)
	return sm
}

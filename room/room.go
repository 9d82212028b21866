// room/room.go
package room

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/state"
	"github.com/wfunc/bingoserver/timer"
)

// RoomStatus 表示房间的业务状态，取值与状态机的状态 ID 一致
type RoomStatus string

const (
	StatusWaiting  RoomStatus = state.StateWaiting
	StatusPlaying  RoomStatus = state.StatePlaying
	StatusFinished RoomStatus = state.StateFinished
)

const (
	ReasonBingo     = "bingo"
	ReasonExhausted = "numbers exhausted"
)

// Settings 房间规则与计时参数
type Settings struct {
	MinPlayers        int
	MaxPlayers        int
	WaitingTime       time.Duration
	DrawInterval      time.Duration
	GraceDelay        time.Duration
	CountdownInterval time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MinPlayers:        1,
		MaxPlayers:        10,
		WaitingTime:       2 * time.Minute,
		DrawInterval:      3 * time.Second,
		GraceDelay:        10 * time.Second,
		CountdownInterval: time.Second,
	}
}

// Player 是房间中的一个座位，Card 在入座时生成，本局内不再改变
type Player struct {
	ID       string
	Name     string
	Card     bingo.Card
	JoinedAt time.Time
}

type Winner struct {
	PlayerID string
	Name     string
	Pattern  string
}

// armedTimer is a live scheduler registration. seq is unique per arming and
// lets a firing recognise that it has been superseded.
type armedTimer struct {
	id  int64
	seq uint64
}

func (t armedTimer) armed() bool { return t.seq != 0 }

// Room 是一个房间的状态机。所有对房间字段的读写都在 loop 协程中串行执行：
// 客户端操作通过 do 入队并等待，定时器回调通过 post 入队。
type Room struct {
	ID        string
	IsDefault bool
	CreatedAt time.Time

	settings       Settings
	players        []*Player
	pool           *bingo.NumberPool
	rng            *rand.Rand
	winner         *Winner
	roundStartedAt time.Time

	// sm is only touched from the room goroutine.
	states state.RoundStates
	sm     state.StateMachine

	scheduler        timer.Scheduler
	drawTimer        armedTimer
	waitingTimer     armedTimer
	countdownTimer   armedTimer
	resetTimer       armedTimer
	waitingStartedAt time.Time
	timerSeq         uint64

	broadcaster Broadcaster
	observer    Observer
	recorder    Recorder

	ops       chan func()
	closeChan chan struct{}
	closeOnce sync.Once
}

type Option func(*Room)

func WithObserver(o Observer) Option {
	return func(r *Room) { r.observer = o }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Room) { r.recorder = rec }
}

// WithRand sets the random source for draws, cards and names. The source is
// only used from the room goroutine, so it must not be shared with another room.
func WithRand(rng *rand.Rand) Option {
	return func(r *Room) { r.rng = rng }
}

func asDefault() Option {
	return func(r *Room) { r.IsDefault = true }
}

var seedCounter int64

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano() + atomic.AddInt64(&seedCounter, 1)))
}

// NewRoom 创建一个处于 waiting 状态的房间并启动其主循环
func NewRoom(id string, settings Settings, broadcaster Broadcaster, scheduler timer.Scheduler, opts ...Option) *Room {
	r := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		settings:    settings,
		scheduler:   scheduler,
		broadcaster: broadcaster,
		observer:    nopObserver{},
		recorder:    nopRecorder{},
		ops:         make(chan func(), 64),
		closeChan:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = newRand()
	}
	r.pool = bingo.NewNumberPool(r.rng)

	// 初始化状态机，将房间自身(room)作为上下文传入
	r.states = state.NewRoundStates(r)
	r.sm = state.NewRoundStateMachine(r.states)

	go r.loop()
	return r
}

// loop 是房间的主循环，串行执行所有操作
func (r *Room) loop() {
	for {
		select {
		case op := <-r.ops:
			op()
		case <-r.closeChan:
			return
		}
	}
}

// do runs fn on the room goroutine and waits for it to finish.
func (r *Room) do(fn func()) error {
	done := make(chan struct{})
	select {
	case r.ops <- func() { fn(); close(done) }:
	case <-r.closeChan:
		return ErrRoomClosed
	}
	select {
	case <-done:
		return nil
	case <-r.closeChan:
		return ErrRoomClosed
	}
}

// post queues fn without waiting. Used by timer callbacks.
func (r *Room) post(fn func()) {
	select {
	case r.ops <- fn:
	case <-r.closeChan:
	}
}

// Close 撤销所有定时器并停止主循环
func (r *Room) Close() {
	_ = r.do(r.disarmAll)
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
}

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) status() RoomStatus {
	return RoomStatus(r.sm.GetCurrentState().GetID())
}

func (r *Room) is(s RoomStatus) bool {
	return r.sm.Is(string(s))
}

// GetStatus 获取房间的业务状态
func (r *Room) GetStatus() RoomStatus {
	return r.status()
}

// --- 定时器 ---

func (r *Room) arm(delay, interval time.Duration, fire func(seq uint64)) armedTimer {
	r.timerSeq++
	seq := r.timerSeq
	id := r.scheduler.AddTimer(delay, interval, func() {
		r.post(func() { fire(seq) })
	})
	return armedTimer{id: id, seq: seq}
}

func (r *Room) disarm(t *armedTimer) {
	if !t.armed() {
		return
	}
	r.scheduler.RemoveTimer(t.id)
	*t = armedTimer{}
}

func (r *Room) disarmAll() {
	r.disarm(&r.drawTimer)
	r.disarm(&r.waitingTimer)
	r.disarm(&r.countdownTimer)
	r.disarm(&r.resetTimer)
	r.waitingStartedAt = time.Time{}
}

// --- 实现 state.RoomContext 接口 ---

func (r *Room) StartDrawTimer() {
	r.disarm(&r.drawTimer)
	r.drawTimer = r.arm(r.settings.DrawInterval, r.settings.DrawInterval, r.onDrawTick)
}

func (r *Room) StopDrawTimer() {
	r.disarm(&r.drawTimer)
}

func (r *Room) StopWaitingTimers() {
	r.disarm(&r.waitingTimer)
	r.disarm(&r.countdownTimer)
	r.waitingStartedAt = time.Time{}
}

func (r *Room) ScheduleReset() {
	r.disarm(&r.resetTimer)
	r.resetTimer = r.arm(r.settings.GraceDelay, 0, r.onResetDue)
}

func (r *Room) CancelReset() {
	r.disarm(&r.resetTimer)
}

func (r *Room) startWaitingTimers() {
	r.StopWaitingTimers()
	r.waitingStartedAt = time.Now()
	r.waitingTimer = r.arm(r.settings.WaitingTime, 0, r.onWaitingExpired)
	r.countdownTimer = r.arm(r.settings.CountdownInterval, r.settings.CountdownInterval, r.onCountdownTick)
	logger.Log.Infow("waiting period started", "room", r.ID, "duration", r.settings.WaitingTime)
	r.broadcastWaitingStarted()
}

func (r *Room) onDrawTick(seq uint64) {
	if r.drawTimer.seq != seq || !r.is(StatusPlaying) {
		return
	}
	if _, ok := r.drawNumber(); ok {
		r.logCompletedLines()
	}
}

func (r *Room) onCountdownTick(seq uint64) {
	if r.countdownTimer.seq != seq || !r.is(StatusWaiting) {
		return
	}
	remaining := r.settings.WaitingTime - time.Since(r.waitingStartedAt)
	if remaining <= 0 {
		r.disarm(&r.countdownTimer)
		return
	}
	r.broadcastWaitingCountdown(remaining)
}

func (r *Room) onWaitingExpired(seq uint64) {
	if r.waitingTimer.seq != seq || !r.is(StatusWaiting) {
		return
	}
	r.StopWaitingTimers()

	n := len(r.players)
	if n == 0 {
		return
	}
	if n < r.settings.MinPlayers {
		logger.Log.Infow("waiting period expired below minimum, restarting", "room", r.ID, "players", n, "min", r.settings.MinPlayers)
		r.startWaitingTimers()
		return
	}

	logger.Log.Infow("waiting period expired, force starting", "room", r.ID, "players", n)
	r.broadcastWaitingEnded("Time expired - Game started!")
	r.startRound()
}

func (r *Room) onResetDue(seq uint64) {
	if r.resetTimer.seq != seq || !r.is(StatusFinished) {
		return
	}
	r.resetTimer = armedTimer{}
	r.resetRound()
}

package room

import (
	"slices"
	"time"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/network"
)

// Join 为玩家分配座位和卡片。重复加入返回已有卡片和 ErrAlreadyJoined。
func (r *Room) Join(playerID, name string) (card bingo.Card, err error) {
	if e := r.do(func() { card, err = r.join(playerID, name) }); e != nil {
		return card, e
	}
	return card, err
}

// Leave 移除玩家，返回该玩家之前是否在房间中
func (r *Room) Leave(playerID string) (left bool, err error) {
	if e := r.do(func() { left = r.leave(playerID) }); e != nil {
		return false, e
	}
	return left, nil
}

// DrawNumber draws one number outside the automatic cadence. It returns
// ErrNumbersExhausted when the pool was already empty and the draw ended the round.
func (r *Room) DrawNumber() (n int, err error) {
	if e := r.do(func() {
		if !r.is(StatusPlaying) {
			err = ErrRoundNotActive
			return
		}
		var ok bool
		if n, ok = r.drawNumber(); !ok {
			err = ErrNumbersExhausted
		}
	}); e != nil {
		return 0, e
	}
	return n, err
}

// ClaimWin 服务端重新计算玩家卡片，命中则结束本局
func (r *Room) ClaimWin(playerID string) (pattern string, err error) {
	if e := r.do(func() { pattern, err = r.claimWin(playerID) }); e != nil {
		return "", e
	}
	return pattern, err
}

// StopRound 手动中止本局，直接回到 waiting，已抽号码保留。满员房间立即开始下一局。
func (r *Room) StopRound() (err error) {
	if e := r.do(func() { err = r.stopRound() }); e != nil {
		return e
	}
	return err
}

// Snapshot is a point-in-time copy of a room, safe to use from any goroutine.
type Snapshot struct {
	RoomID           string
	IsDefault        bool
	Status           RoomStatus
	Players          []Player
	CalledNumbers    []int
	Remaining        int
	Winner           *Winner
	MinPlayers       int
	MaxPlayers       int
	WaitingStartedAt time.Time

	DrawTimerArmed      bool
	WaitingTimerArmed   bool
	CountdownTimerArmed bool
	ResetTimerArmed     bool
}

// CanJoin reports whether a new player would get a seat.
func (s Snapshot) CanJoin() bool {
	return s.Status == StatusWaiting
}

func (r *Room) Snapshot() (snap Snapshot, err error) {
	err = r.do(func() { snap = r.snapshot() })
	return snap, err
}

func (r *Room) snapshot() Snapshot {
	s := Snapshot{
		RoomID:              r.ID,
		IsDefault:           r.IsDefault,
		Status:              r.status(),
		Players:             make([]Player, 0, len(r.players)),
		CalledNumbers:       r.pool.Called(),
		Remaining:           r.pool.Remaining(),
		MinPlayers:          r.settings.MinPlayers,
		MaxPlayers:          r.settings.MaxPlayers,
		WaitingStartedAt:    r.waitingStartedAt,
		DrawTimerArmed:      r.drawTimer.armed(),
		WaitingTimerArmed:   r.waitingTimer.armed(),
		CountdownTimerArmed: r.countdownTimer.armed(),
		ResetTimerArmed:     r.resetTimer.armed(),
	}
	for _, p := range r.players {
		s.Players = append(s.Players, *p)
	}
	if r.winner != nil {
		w := *r.winner
		s.Winner = &w
	}
	return s
}

// --- 以下方法只在 loop 协程中调用 ---

func (r *Room) findPlayer(playerID string) *Player {
	if i := r.indexOf(playerID); i >= 0 {
		return r.players[i]
	}
	return nil
}

func (r *Room) indexOf(playerID string) int {
	return slices.IndexFunc(r.players, func(p *Player) bool { return p.ID == playerID })
}

func (r *Room) join(playerID, name string) (bingo.Card, error) {
	if p := r.findPlayer(playerID); p != nil {
		r.replyJoinAccepted(p)
		return p.Card, ErrAlreadyJoined
	}
	if !r.is(StatusWaiting) {
		r.reply(playerID, network.MsgTypeJoinRejected, network.JoinRejected{
			Message:    "Game in progress, please wait for the next round",
			RoomStatus: string(r.status()),
			RoomID:     r.ID,
		})
		return bingo.Card{}, ErrRoomNotJoinable
	}

	if name == "" {
		name = bingo.RandomName(r.rng)
	}
	p := &Player{
		ID:       playerID,
		Name:     name,
		Card:     bingo.NewCard(r.rng),
		JoinedAt: time.Now(),
	}
	r.players = append(r.players, p)
	r.broadcaster.Attach(r.ID, playerID)
	r.observer.PlayersChanged(r.ID, len(r.players))
	logger.Log.Infow("player joined", "room", r.ID, "player", playerID, "name", name, "players", len(r.players))

	r.broadcastRoster()
	r.broadcastStatus()
	r.replyJoinAccepted(p)
	r.evaluateWaitingEntry()
	return p.Card, nil
}

func (r *Room) leave(playerID string) bool {
	i := r.indexOf(playerID)
	if i < 0 {
		return false
	}
	p := r.players[i]
	r.players = slices.Delete(r.players, i, i+1)
	r.reply(playerID, network.MsgTypeLeftRoom, network.LeftRoom{Message: "You left the room", RoomID: r.ID})
	r.broadcaster.Detach(r.ID, playerID)
	r.observer.PlayersChanged(r.ID, len(r.players))
	logger.Log.Infow("player left", "room", r.ID, "player", p.ID, "name", p.Name, "players", len(r.players))

	if len(r.players) == 0 {
		logger.Log.Infow("room empty, resetting", "room", r.ID, "status", r.status())
		r.resetInPlace()
		return true
	}
	r.broadcastRoster()
	r.broadcastStatus()
	return true
}

// evaluateWaitingEntry runs after every join and manual stop: full rooms start at once,
// otherwise the first seated player arms the waiting period.
func (r *Room) evaluateWaitingEntry() {
	if !r.is(StatusWaiting) {
		return
	}
	n := len(r.players)
	if n >= r.settings.MaxPlayers {
		logger.Log.Infow("room full, starting round", "room", r.ID, "players", n)
		r.broadcastWaitingEnded("Enough players joined - Game started!")
		r.startRound()
		return
	}
	if n >= 1 && !r.waitingTimer.armed() {
		r.startWaitingTimers()
	}
}

func (r *Room) startRound() {
	if !r.is(StatusWaiting) {
		return
	}
	if err := r.sm.ChangeState(r.states.Playing); err != nil {
		logger.Log.Warnw("start round", "room", r.ID, "error", err)
		return
	}
	r.winner = nil
	r.roundStartedAt = time.Now()
	r.observer.RoundStarted(r.ID)
	logger.Log.Infow("round started", "room", r.ID, "players", len(r.players), "called", r.pool.CalledCount())

	r.broadcast(network.MsgTypeRoundStarted, network.RoundStarted{
		Message:       "Game started!",
		AllNumbers:    bingo.AllNumbers(),
		CalledNumbers: r.pool.Called(),
	})
	r.broadcastStatus()
}

// drawNumber performs one draw. An empty pool ends the round and reports false.
func (r *Room) drawNumber() (int, bool) {
	n, ok := r.pool.Draw()
	if !ok {
		r.endRound(ReasonExhausted, nil)
		return 0, false
	}
	r.observer.NumberDrawn(r.ID)
	logger.Log.Debugw("number drawn", "room", r.ID, "number", n, "called", r.pool.CalledCount())
	r.broadcast(network.MsgTypeNumberDrawn, network.NumberDrawn{
		Number:      n,
		TotalCalled: r.pool.CalledCount(),
		Remaining:   r.pool.Remaining(),
	})
	return n, true
}

// logCompletedLines only logs. Winning always requires an explicit claim.
func (r *Room) logCompletedLines() {
	called := r.pool.Called()
	for _, p := range r.players {
		if pattern, ok := bingo.Evaluate(p.Card, called); ok {
			logger.Log.Infow("player has a complete line", "room", r.ID, "player", p.ID, "name", p.Name, "pattern", pattern)
		}
	}
}

func (r *Room) claimWin(playerID string) (string, error) {
	if !r.is(StatusPlaying) {
		r.replyClaim(playerID, false, "No round in progress", "")
		return "", ErrRoundNotActive
	}
	p := r.findPlayer(playerID)
	if p == nil {
		r.replyClaim(playerID, false, "You are not seated in this room", "")
		return "", ErrNotSeated
	}
	pattern, ok := bingo.Evaluate(p.Card, r.pool.Called())
	if !ok {
		logger.Log.Infow("invalid bingo claim", "room", r.ID, "player", playerID)
		r.replyClaim(playerID, false, "Invalid bingo claim", "")
		return "", ErrInvalidClaim
	}

	logger.Log.Infow("bingo", "room", r.ID, "player", playerID, "name", p.Name, "pattern", pattern)
	r.replyClaim(playerID, true, "BINGO! You won with "+pattern, pattern)
	r.endRound(ReasonBingo, &Winner{PlayerID: p.ID, Name: p.Name, Pattern: pattern})
	return pattern, nil
}

func (r *Room) stopRound() error {
	if !r.is(StatusPlaying) {
		return ErrRoundNotActive
	}
	if err := r.sm.ChangeState(r.states.Waiting); err != nil {
		return err
	}
	logger.Log.Infow("round stopped", "room", r.ID, "called", r.pool.CalledCount())
	r.broadcast(network.MsgTypeRoundStopped, network.RoundStopped{
		Reason:        "Round stopped",
		CalledNumbers: r.pool.Called(),
	})
	r.broadcastStatus()
	// A full room starts the next round at once, so Waiting never holds MaxPlayers.
	r.evaluateWaitingEntry()
	return nil
}

func (r *Room) endRound(reason string, winner *Winner) {
	if !r.is(StatusPlaying) {
		return
	}
	r.winner = winner
	if err := r.sm.ChangeState(r.states.Finished); err != nil {
		logger.Log.Warnw("end round", "room", r.ID, "error", err)
		return
	}
	endedAt := time.Now()
	r.observer.RoundEnded(r.ID, reason)
	logger.Log.Infow("round ended", "room", r.ID, "reason", reason, "called", r.pool.CalledCount(), "duration", endedAt.Sub(r.roundStartedAt))

	msg := network.RoundEnded{
		Reason:             reason,
		CalledNumbers:      r.pool.Called(),
		TotalNumbersCalled: r.pool.CalledCount(),
	}
	if winner != nil {
		msg.Winner = &network.WinnerInfo{ID: winner.PlayerID, Name: winner.Name, WinPattern: winner.Pattern}
	}
	r.broadcast(network.MsgTypeRoundEnded, msg)
	r.broadcastStatus()
	r.recorder.RecordRound(r.roundRecord(reason, endedAt))
}

// resetRound evicts every seat after the grace delay. Nobody carries over
// into the next round.
func (r *Room) resetRound() {
	kicked := r.players
	r.broadcast(network.MsgTypeRoundReset, network.RoundReset{
		Message:       "Round over - please join again for the next round",
		Kicked:        true,
		AllNumbers:    bingo.AllNumbers(),
		CalledNumbers: []int{},
	})
	for _, p := range kicked {
		r.reply(p.ID, network.MsgTypeKickedFromRoom, network.KickedFromRoom{
			Message: "The round has ended and you have been removed from the room",
			RoomID:  r.ID,
		})
		r.broadcaster.Detach(r.ID, p.ID)
	}
	r.players = nil
	r.observer.PlayersChanged(r.ID, 0)
	logger.Log.Infow("round reset", "room", r.ID, "kicked", len(kicked))
	r.resetInPlace()
}

// resetInPlace returns the room to a fresh waiting state with no timers.
func (r *Room) resetInPlace() {
	if !r.is(StatusWaiting) {
		if err := r.sm.ChangeState(r.states.Waiting); err != nil {
			logger.Log.Warnw("reset room", "room", r.ID, "error", err)
		}
	}
	r.pool.Reset()
	r.winner = nil
	r.roundStartedAt = time.Time{}
	r.disarmAll()
}

func (r *Room) roundRecord(reason string, endedAt time.Time) models.RoundRecord {
	rec := models.RoundRecord{
		RoomID:        r.ID,
		Reason:        reason,
		CalledNumbers: r.pool.Called(),
		Players:       make([]models.PlayerInfo, 0, len(r.players)),
		StartedAt:     r.roundStartedAt,
		EndedAt:       endedAt,
	}
	if r.winner != nil {
		rec.Winner = &models.WinnerInfo{ID: r.winner.PlayerID, Name: r.winner.Name, Pattern: r.winner.Pattern}
	}
	for _, p := range r.players {
		outcome := models.OutcomeLose
		if r.winner != nil && r.winner.PlayerID == p.ID {
			outcome = models.OutcomeWin
		}
		rec.Players = append(rec.Players, models.PlayerInfo{ID: p.ID, Name: p.Name, Outcome: outcome})
	}
	return rec
}

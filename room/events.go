package room

import (
	"encoding/json"
	"time"

	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/network"
)

// broadcast 序列化后发给房间频道内的所有连接，发送失败只记录日志
func (r *Room) broadcast(msgID uint16, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorw("marshal room event", "room", r.ID, "msg", msgID, "error", err)
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.ID, msgID, data); err != nil {
		logger.Log.Debugw("broadcast room event", "room", r.ID, "msg", msgID, "error", err)
	}
}

// reply 只发给一个连接
func (r *Room) reply(sessionID string, msgID uint16, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorw("marshal reply", "room", r.ID, "msg", msgID, "error", err)
		return
	}
	if err := r.broadcaster.SendToSession(sessionID, msgID, data); err != nil {
		logger.Log.Debugw("send reply", "room", r.ID, "session", sessionID, "msg", msgID, "error", err)
	}
}

func (r *Room) replyJoinAccepted(p *Player) {
	r.reply(p.ID, network.MsgTypeJoinAccepted, network.JoinAccepted{
		Name:          p.Name,
		RoomID:        r.ID,
		BingoCard:     p.Card,
		AllNumbers:    bingo.AllNumbers(),
		CalledNumbers: r.pool.Called(),
	})
}

func (r *Room) replyClaim(playerID string, success bool, message, pattern string) {
	r.reply(playerID, network.MsgTypeWinClaimResult, network.WinClaimResult{
		Success: success,
		Message: message,
		Pattern: pattern,
	})
}

func (r *Room) broadcastRoster() {
	players := make([]network.PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, network.PlayerInfo{ID: p.ID, Name: p.Name})
	}
	r.broadcast(network.MsgTypeRosterUpdated, network.RosterUpdated{RoomID: r.ID, Players: players})
}

func (r *Room) broadcastStatus() {
	r.broadcast(network.MsgTypeRoomStatusUpdated, network.RoomStatus{
		RoomID:     r.ID,
		Status:     string(r.status()),
		Players:    len(r.players),
		MinPlayers: r.settings.MinPlayers,
	})
}

func (r *Room) broadcastWaitingStarted() {
	r.broadcast(network.MsgTypeWaitingStarted, network.WaitingStarted{
		MaxWaitingTime: r.settings.WaitingTime.Milliseconds(),
		Message:        "Waiting for more players...",
		AllNumbers:     bingo.AllNumbers(),
		CalledNumbers:  r.pool.Called(),
	})
}

func (r *Room) broadcastWaitingCountdown(remaining time.Duration) {
	ms := remaining.Milliseconds()
	r.broadcast(network.MsgTypeWaitingCountdown, network.WaitingCountdown{
		RemainingTime:    ms,
		RemainingSeconds: (ms + 999) / 1000,
	})
}

func (r *Room) broadcastWaitingEnded(reason string) {
	r.broadcast(network.MsgTypeWaitingEnded, network.WaitingEnded{Reason: reason})
}

// models/models.go
package models

import (
	"time"
)

// RoundRecord 一局结束后的归档记录
type RoundRecord struct {
	ID            uint         `json:"id"`
	RoomID        string       `json:"room_id"`
	Reason        string       `json:"reason"`
	Winner        *WinnerInfo  `json:"winner,omitempty"`
	CalledNumbers []int        `json:"called_numbers"`
	Players       []PlayerInfo `json:"players"`
	StartedAt     time.Time    `json:"started_at"`
	EndedAt       time.Time    `json:"ended_at"`
}

// Duration is how long the round was in play.
func (r RoundRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// PlayerInfo 玩家信息（用于对局记录）
type PlayerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Outcome string `json:"outcome"` // win/lose
}

type WinnerInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
)

// broadcast/broadcast.go
package broadcast

import (
	"errors"
	"sync"

	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/session"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	SendToSession(sessionID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
}

// RoomBroadcaster 维护房间频道与连接的关联，一个连接可以同时关联多个房间。
// 关联关系由房间在玩家入座/离开时通过 Attach/Detach 维护。
type RoomBroadcaster struct {
	sessionManager *session.Manager
	channels       map[string]map[string]struct{} // roomID -> sessionIDs
	mutex          sync.RWMutex
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		sessionManager: sessionManager,
		channels:       make(map[string]map[string]struct{}),
	}
}

func (b *RoomBroadcaster) Attach(roomID, sessionID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	members, ok := b.channels[roomID]
	if !ok {
		members = make(map[string]struct{})
		b.channels[roomID] = members
	}
	members[sessionID] = struct{}{}
}

func (b *RoomBroadcaster) Detach(roomID, sessionID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	members, ok := b.channels[roomID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(b.channels, roomID)
	}
}

// Rooms returns the rooms a session is currently attached to.
func (b *RoomBroadcaster) Rooms(sessionID string) []string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	var rooms []string
	for roomID, members := range b.channels {
		if _, ok := members[sessionID]; ok {
			rooms = append(rooms, roomID)
		}
	}
	return rooms
}

// Members returns the session ids attached to a room.
func (b *RoomBroadcaster) Members(roomID string) []string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	members := make([]string, 0, len(b.channels[roomID]))
	for id := range b.channels[roomID] {
		members = append(members, id)
	}
	return members
}

// BroadcastToRoom 发送给房间频道内的所有连接。单个连接发送失败只记日志。
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	members := b.Members(roomID)
	if len(members) == 0 {
		return ErrRoomNotFound
	}

	for _, id := range members {
		s, ok := b.sessionManager.Get(id)
		if !ok {
			continue
		}
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Warnw("broadcast send failed", "room", roomID, "session", id, "msg", msgID, "error", err)
		}
	}
	return nil
}

func (b *RoomBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	s, ok := b.sessionManager.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	return s.Send(msgID, data)
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Warnw("broadcast send failed", "session", s.GetID(), "msg", msgID, "error", err)
		}
	}
	return nil
}

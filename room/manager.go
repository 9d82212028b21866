package room

import (
	"sort"
	"sync"

	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/timer"
)

// Manager 管理所有房间。房间在进程生命周期内不会被删除。
type Manager struct {
	rooms       map[string]*Room
	defaultID   string
	settings    Settings
	broadcaster Broadcaster
	scheduler   timer.Scheduler
	opts        []Option
	mutex       sync.RWMutex
}

// NewRoomManager 创建房间管理器并立即创建默认房间。opts 作用于之后创建的每个房间，
// 因此不要在这里传入 WithRand。
func NewRoomManager(defaultID string, settings Settings, broadcaster Broadcaster, scheduler timer.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		rooms:       make(map[string]*Room),
		defaultID:   defaultID,
		settings:    settings,
		broadcaster: broadcaster,
		scheduler:   scheduler,
		opts:        opts,
	}
	m.rooms[defaultID] = NewRoom(defaultID, settings, broadcaster, scheduler, append(opts[:len(opts):len(opts)], asDefault())...)
	return m
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// GetOrCreate 返回已有房间，不存在时以 waiting 状态创建
func (m *Manager) GetOrCreate(id string) *Room {
	if room, ok := m.GetRoom(id); ok {
		return room
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, ok := m.rooms[id]; ok {
		return room
	}
	room := NewRoom(id, m.settings, m.broadcaster, m.scheduler, m.opts...)
	m.rooms[id] = room
	logger.Log.Infow("room created", "room", id, "rooms", len(m.rooms))
	return room
}

func (m *Manager) DefaultRoom() *Room {
	room, _ := m.GetRoom(m.defaultID)
	return room
}

func (m *Manager) DefaultRoomID() string {
	return m.defaultID
}

// Rooms returns every room ordered by id.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Close 关闭所有房间
func (m *Manager) Close() {
	for _, room := range m.Rooms() {
		room.Close()
	}
}

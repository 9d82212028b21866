package broadcast

import (
	"errors"
	"net"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/bingoserver/network"
	"github.com/wfunc/bingoserver/session"
)

type MockConnection struct {
	mu   sync.Mutex
	sent []uint16
	fail bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("broken pipe")
	}
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) frames() []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint16(nil), m.sent...)
}

func setup(ids ...string) (*RoomBroadcaster, map[string]*MockConnection) {
	sessions := session.NewManager()
	conns := make(map[string]*MockConnection)
	for _, id := range ids {
		c := &MockConnection{}
		conns[id] = c
		sessions.Add(session.NewSession(id, c))
	}
	return NewRoomBroadcaster(sessions), conns
}

func TestBroadcastToRoom_OnlyAttached(t *testing.T) {
	b, conns := setup("a", "b", "c")
	b.Attach("room1", "a")
	b.Attach("room1", "b")
	b.Attach("room2", "c")

	require.NoError(t, b.BroadcastToRoom("room1", network.MsgTypeNumberDrawn, []byte("{}")))

	assert.Equal(t, []uint16{network.MsgTypeNumberDrawn}, conns["a"].frames())
	assert.Equal(t, []uint16{network.MsgTypeNumberDrawn}, conns["b"].frames())
	assert.Empty(t, conns["c"].frames())
}

func TestBroadcastToRoom_Empty(t *testing.T) {
	b, _ := setup()
	assert.ErrorIs(t, b.BroadcastToRoom("nobody", 1, nil), ErrRoomNotFound)
}

func TestBroadcastToRoom_FailedSendDoesNotStopFanout(t *testing.T) {
	b, conns := setup("a", "b")
	conns["a"].fail = true
	b.Attach("room", "a")
	b.Attach("room", "b")

	require.NoError(t, b.BroadcastToRoom("room", network.MsgTypeRoundEnded, nil))
	assert.Equal(t, []uint16{network.MsgTypeRoundEnded}, conns["b"].frames())
}

func TestAttachDetach(t *testing.T) {
	b, _ := setup("a")
	b.Attach("room1", "a")
	b.Attach("room2", "a")

	rooms := b.Rooms("a")
	sort.Strings(rooms)
	assert.Equal(t, []string{"room1", "room2"}, rooms)

	b.Detach("room1", "a")
	assert.Equal(t, []string{"room2"}, b.Rooms("a"))
	assert.Empty(t, b.Members("room1"))

	b.Detach("room1", "a") // no-op
	b.Detach("missing", "a")
}

func TestSendToSession(t *testing.T) {
	b, conns := setup("a")
	require.NoError(t, b.SendToSession("a", network.MsgTypeJoinAccepted, nil))
	assert.Equal(t, []uint16{network.MsgTypeJoinAccepted}, conns["a"].frames())

	assert.ErrorIs(t, b.SendToSession("ghost", 1, nil), ErrSessionNotFound)
}

func TestBroadcastToAll(t *testing.T) {
	b, conns := setup("a", "b")
	require.NoError(t, b.BroadcastToAll(network.MsgTypeError, nil))
	assert.Len(t, conns["a"].frames(), 1)
	assert.Len(t, conns["b"].frames(), 1)
}

package network

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestEncodeDecodePacket(t *testing.T) {
	payload := []byte(`{"room_id":"default"}`)
	raw, err := EncodePacket(MsgTypeJoinRoom, payload)
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}
	if len(raw) != headerSize+len(payload) {
		t.Fatalf("Expected %d bytes, got %d", headerSize+len(payload), len(raw))
	}

	packet, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if packet.MsgID != MsgTypeJoinRoom {
		t.Errorf("Expected msg id %d, got %d", MsgTypeJoinRoom, packet.MsgID)
	}
	if string(packet.Data) != string(payload) {
		t.Errorf("Expected payload %s, got %s", payload, packet.Data)
	}
}

func TestDecodePacket_Short(t *testing.T) {
	if _, err := DecodePacket([]byte{0, 1}); err != io.ErrShortBuffer {
		t.Errorf("Expected io.ErrShortBuffer for truncated header, got %v", err)
	}
	// header claims 10 bytes, only 2 present
	if _, err := DecodePacket([]byte{0, 1, 0, 10, 'a', 'b'}); err != io.ErrShortBuffer {
		t.Errorf("Expected io.ErrShortBuffer for truncated payload, got %v", err)
	}
}

func TestEncodePacket_TooLarge(t *testing.T) {
	if _, err := EncodePacket(1, make([]byte, 0x10000)); err != ErrPayloadTooLarge {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestWSConnection_RoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewWSConnection(conn)
		defer c.Close()
		packet, err := c.ReadPacket()
		if err != nil {
			return
		}
		c.Send(packet.MsgID+1, packet.Data)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	raw, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	client := NewWSConnection(raw)
	defer client.Close()
	client.SetHeartbeat(time.Second)

	if err := client.Send(MsgTypeClaimWin, []byte("ping")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	packet, err := client.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if packet.MsgID != MsgTypeClaimWin+1 || string(packet.Data) != "ping" {
		t.Errorf("Unexpected echo: id=%d data=%s", packet.MsgID, packet.Data)
	}
}

// stalledSocket blocks every write until release is closed.
type stalledSocket struct {
	release chan struct{}
	closed  chan struct{}
	once    sync.Once
	mu      sync.Mutex
	written [][]byte
}

func newStalledSocket() *stalledSocket {
	return &stalledSocket{release: make(chan struct{}), closed: make(chan struct{})}
}

func (s *stalledSocket) WriteMessage(messageType int, data []byte) error {
	<-s.release
	s.mu.Lock()
	s.written = append(s.written, data)
	s.mu.Unlock()
	return nil
}

func (s *stalledSocket) ReadMessage() (int, []byte, error) {
	<-s.closed
	return 0, nil, io.EOF
}

func (s *stalledSocket) SetReadDeadline(time.Time) error  { return nil }
func (s *stalledSocket) SetWriteDeadline(time.Time) error { return nil }
func (s *stalledSocket) RemoteAddr() net.Addr             { return &net.TCPAddr{} }

func (s *stalledSocket) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *stalledSocket) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWSConnection_SendDoesNotBlockOnStalledPeer(t *testing.T) {
	sock := newStalledSocket()
	c := NewSocketConnection(sock, 2, time.Minute)
	defer close(sock.release)

	start := time.Now()
	var err error
	sent := 0
	for ; sent < 10; sent++ {
		if err = c.Send(MsgTypeNumberDrawn, []byte(`{"number":7}`)); err != nil {
			break
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Send blocked for %v on a stalled peer", elapsed)
	}
	if err != ErrSendQueueFull {
		t.Fatalf("Expected ErrSendQueueFull after %d sends, got %v", sent, err)
	}
	if sent > 3 {
		t.Errorf("Expected overflow within queue size plus one in-flight frame, got %d sends", sent)
	}
	if err := c.Send(MsgTypeNumberDrawn, nil); err != ErrConnectionClosed {
		t.Errorf("Expected ErrConnectionClosed after overflow, got %v", err)
	}
}

func TestWSConnection_CloseFlushesQueuedFrames(t *testing.T) {
	sock := newStalledSocket()
	close(sock.release)
	c := NewSocketConnection(sock, 8, time.Minute)

	for i := 0; i < 3; i++ {
		if err := c.Send(MsgTypeRoundEnded, []byte("{}")); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	c.Close()

	waitFor(t, func() bool {
		select {
		case <-sock.closed:
			return true
		default:
			return false
		}
	})
	if sock.count() != 3 {
		t.Errorf("Expected 3 frames written before close, got %d", sock.count())
	}
}

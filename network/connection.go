// network/connection.go
package network

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/bingoserver/logger"
)

const headerSize = 4

// ErrPayloadTooLarge is returned when a payload does not fit the 16-bit length field.
var ErrPayloadTooLarge = errors.New("network: payload exceeds 65535 bytes")

type Packet struct {
	MsgID  uint16
	Data   []byte
	Length uint16
}

type Connection interface {
	Send(msgID uint16, data []byte) error
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

// EncodePacket 封包: 2字节消息ID + 2字节数据长度 + 数据
func EncodePacket(msgID uint16, data []byte) ([]byte, error) {
	if len(data) > 0xFFFF {
		return nil, ErrPayloadTooLarge
	}
	packet := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[headerSize:], data)
	return packet, nil
}

// DecodePacket 解包，数据不足时返回 io.ErrShortBuffer
func DecodePacket(data []byte) (*Packet, error) {
	if len(data) < headerSize {
		return nil, io.ErrShortBuffer
	}

	msgID := binary.BigEndian.Uint16(data[0:2])
	length := binary.BigEndian.Uint16(data[2:4])

	if len(data) < headerSize+int(length) {
		return nil, io.ErrShortBuffer
	}

	return &Packet{
		MsgID:  msgID,
		Length: length,
		Data:   data[headerSize : headerSize+int(length)],
	}, nil
}

const (
	sendQueueSize = 256
	flushTimeout  = time.Second
)

var (
	// ErrSendQueueFull is returned when a peer does not drain its queue; the
	// connection is closed.
	ErrSendQueueFull = errors.New("network: send queue full")
	// ErrConnectionClosed is returned by Send after Close.
	ErrConnectionClosed = errors.New("network: connection closed")
)

// Socket is the part of *websocket.Conn a WSConnection uses.
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
	RemoteAddr() net.Addr
}

// WSConnection 发送只入队，由 writePump 单独写 socket，慢连接不会阻塞调用方
type WSConnection struct {
	conn         Socket
	send         chan []byte
	closeChan    chan struct{}
	closeOnce    sync.Once
	heartbeat    time.Duration
	writeTimeout time.Duration
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return NewSocketConnection(conn, sendQueueSize, 10*time.Second)
}

// NewSocketConnection starts the writer for sock. Send fails fast once
// queueSize frames are waiting.
func NewSocketConnection(conn Socket, queueSize int, writeTimeout time.Duration) *WSConnection {
	c := &WSConnection{
		conn:         conn,
		send:         make(chan []byte, queueSize),
		closeChan:    make(chan struct{}),
		writeTimeout: writeTimeout,
	}
	go c.writePump()
	return c
}

func (c *WSConnection) Send(msgID uint16, data []byte) error {
	packet, err := EncodePacket(msgID, data)
	if err != nil {
		return err
	}

	select {
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- packet:
		return nil
	default:
		logger.Log.Warnw("send queue full, closing slow connection", "remote", c.RemoteAddr(), "msg", msgID)
		c.Close()
		return ErrSendQueueFull
	}
}

func (c *WSConnection) writePump() {
	defer c.conn.Close()

	for {
		select {
		case packet := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, packet); err != nil {
				logger.Log.Debugw("websocket write failed", "remote", c.RemoteAddr(), "error", err)
				c.Close()
				return
			}
		case <-c.closeChan:
			c.flush()
			return
		}
	}
}

// flush writes whatever is still queued, bounded by flushTimeout.
func (c *WSConnection) flush() {
	c.conn.SetWriteDeadline(time.Now().Add(flushTimeout))
	for {
		select {
		case packet := <-c.send:
			if err := c.conn.WriteMessage(websocket.BinaryMessage, packet); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.heartbeat > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.heartbeat * 2))
	}
	return DecodePacket(data)
}

// SetHeartbeat 设置心跳间隔，两个间隔内没有任何消息则读超时
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
}

// Close stops the writer; queued frames are flushed before the socket closes.
func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
	return nil
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

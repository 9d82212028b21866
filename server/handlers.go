package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/network"
	"github.com/wfunc/bingoserver/room"
	"github.com/wfunc/bingoserver/session"
)

var (
	ErrMalformedPacket = errors.New("malformed packet")
	ErrUnknownMessage  = errors.New("unknown message type")
	ErrMissingRoomID   = errors.New("missing room_id")
)

// errorCode maps an operation error onto the code sent in an Error frame.
func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, room.ErrRoundNotActive):
		return "round_not_active"
	case errors.Is(err, room.ErrNotSeated):
		return "not_seated"
	case errors.Is(err, room.ErrRoomClosed):
		return "room_closed"
	case errors.Is(err, ErrMalformedPacket), errors.Is(err, ErrMissingRoomID):
		return "malformed_packet"
	case errors.Is(err, ErrUnknownMessage):
		return "unknown_message"
	default:
		return "internal_error"
	}
}

// messageLabel bounds the msg_id label set to the known inbound ids.
func messageLabel(id uint16) string {
	if !network.IsInbound(id) {
		return "unknown"
	}
	return strconv.Itoa(int(id))
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	sess.Touch()
	s.monitor.IncMessagesReceived(messageLabel(packet.MsgID))
	defer func() {
		s.monitor.ObserveMessageLatency(time.Since(start))
	}()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		// Touch above is all a heartbeat needs.
	case network.MsgTypeJoinDefaultRoom:
		s.joinRoom(sess, s.roomManager.DefaultRoom(), "")
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeDrawNumber:
		s.handleDrawNumber(sess, packet)
	case network.MsgTypeResyncNumbers:
		s.handleResync(sess, packet)
	case network.MsgTypeStopRound:
		s.handleStopRound(sess, packet)
	case network.MsgTypeClaimWin:
		s.handleClaimWin(sess, packet)
	case network.MsgTypeQueryRoomStatus:
		s.handleQueryRoomStatus(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.sendError(sess, ErrUnknownMessage, "unknown message type "+strconv.Itoa(int(packet.MsgID)))
	}
}

func (s *GameServer) send(sess *session.Session, msgID uint16, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorw("marshal reply", "msg", msgID, "error", err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		logger.Log.Debugw("send reply", "session", sess.GetID(), "msg", msgID, "error", err)
	}
}

func (s *GameServer) sendError(sess *session.Session, err error, message string) {
	s.send(sess, network.MsgTypeError, network.ErrorMessage{Code: errorCode(err), Message: message})
}

// decodeRoomRequest parses a RoomRequest. An empty body is allowed and
// yields an empty room id.
func decodeRoomRequest(data []byte) (network.RoomRequest, error) {
	var req network.RoomRequest
	if len(data) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, errors.Join(ErrMalformedPacket, err)
	}
	return req, nil
}

// lookupRoom resolves the room named by a packet. It reports failures to
// the session and returns nil.
func (s *GameServer) lookupRoom(sess *session.Session, packet *network.Packet, defaultIfEmpty bool) *room.Room {
	req, err := decodeRoomRequest(packet.Data)
	if err != nil {
		logger.Log.Warnw("malformed request", "session", sess.GetID(), "msg", packet.MsgID, "error", err)
		s.sendError(sess, err, "malformed request")
		return nil
	}
	roomID := req.RoomID
	if roomID == "" {
		if !defaultIfEmpty {
			s.sendError(sess, ErrMissingRoomID, "room_id is required")
			return nil
		}
		roomID = s.roomManager.DefaultRoomID()
	}
	r, ok := s.roomManager.GetRoom(roomID)
	if !ok {
		s.sendError(sess, room.ErrRoomNotFound, "room "+roomID+" not found")
		return nil
	}
	return r
}

func (s *GameServer) joinRoom(sess *session.Session, r *room.Room, name string) {
	_, err := r.Join(sess.GetID(), name)
	switch {
	case err == nil:
		logger.Log.Infof("Session %s joined room %s", sess.GetID(), r.GetID())
	case errors.Is(err, room.ErrAlreadyJoined), errors.Is(err, room.ErrRoomNotJoinable):
		// 房间已经回复了 join-accepted / join-rejected
		logger.Log.Infow("join not applied", "session", sess.GetID(), "room", r.GetID(), "reason", err)
	default:
		s.sendError(sess, err, err.Error())
	}
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		logger.Log.Warnw("malformed join request", "session", sess.GetID(), "error", err)
		s.sendError(sess, ErrMalformedPacket, "malformed join request")
		return
	}
	if req.RoomID == "" {
		s.sendError(sess, ErrMissingRoomID, "room_id is required")
		return
	}

	r := s.roomManager.GetOrCreate(req.RoomID)
	s.monitor.SetActiveRooms(s.roomManager.Count())
	s.joinRoom(sess, r, req.Name)
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	r := s.lookupRoom(sess, packet, false)
	if r == nil {
		return
	}
	left, err := r.Leave(sess.GetID())
	if err != nil {
		s.sendError(sess, err, err.Error())
		return
	}
	if !left {
		s.sendError(sess, room.ErrNotSeated, "you are not in room "+r.GetID())
	}
}

func (s *GameServer) handleDrawNumber(sess *session.Session, packet *network.Packet) {
	r := s.lookupRoom(sess, packet, false)
	if r == nil {
		return
	}
	// ErrNumbersExhausted means the draw ended the round; the round-ended
	// broadcast already tells everyone.
	if _, err := r.DrawNumber(); err != nil && !errors.Is(err, room.ErrNumbersExhausted) {
		s.sendError(sess, err, err.Error())
	}
}

func (s *GameServer) handleResync(sess *session.Session, packet *network.Packet) {
	r := s.lookupRoom(sess, packet, true)
	if r == nil {
		return
	}
	snap, err := r.Snapshot()
	if err != nil {
		s.sendError(sess, err, err.Error())
		return
	}
	s.send(sess, network.MsgTypeResyncResult, network.ResyncResult{
		RoomID:        snap.RoomID,
		CalledNumbers: snap.CalledNumbers,
	})
}

func (s *GameServer) handleStopRound(sess *session.Session, packet *network.Packet) {
	r := s.lookupRoom(sess, packet, false)
	if r == nil {
		return
	}
	if err := r.StopRound(); err != nil {
		s.sendError(sess, err, err.Error())
		return
	}
	logger.Log.Infof("Session %s stopped the round in room %s", sess.GetID(), r.GetID())
}

func (s *GameServer) handleClaimWin(sess *session.Session, packet *network.Packet) {
	r := s.lookupRoom(sess, packet, false)
	if r == nil {
		return
	}
	// The room answers every claim with a win-claim-result.
	if _, err := r.ClaimWin(sess.GetID()); err != nil && errors.Is(err, room.ErrRoomClosed) {
		s.sendError(sess, err, err.Error())
	}
}

// handleQueryRoomStatus 未知房间返回 not_found 且 canJoin 为 true，加入时会自动创建
func (s *GameServer) handleQueryRoomStatus(sess *session.Session, packet *network.Packet) {
	req, err := decodeRoomRequest(packet.Data)
	if err != nil {
		s.sendError(sess, err, "malformed request")
		return
	}
	if req.RoomID == "" {
		req.RoomID = s.roomManager.DefaultRoomID()
	}

	r, ok := s.roomManager.GetRoom(req.RoomID)
	if !ok {
		s.send(sess, network.MsgTypeRoomStatusInfo, network.RoomStatusInfo{
			RoomStatus: network.RoomStatus{
				RoomID:     req.RoomID,
				Status:     "not_found",
				MinPlayers: s.opts.Settings.MinPlayers,
			},
			CanJoin: true,
		})
		return
	}
	snap, err := r.Snapshot()
	if err != nil {
		s.sendError(sess, err, err.Error())
		return
	}
	s.send(sess, network.MsgTypeRoomStatusInfo, statusInfo(snap))
}

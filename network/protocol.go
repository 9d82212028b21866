package network

// 客户端 -> 服务端
const (
	MsgTypeHeartbeat       = 1
	MsgTypeJoinDefaultRoom = 101
	MsgTypeJoinRoom        = 102
	MsgTypeLeaveRoom       = 103
	MsgTypeDrawNumber      = 201
	MsgTypeResyncNumbers   = 202
	MsgTypeStopRound       = 203
	MsgTypeClaimWin        = 204
	MsgTypeQueryRoomStatus = 205
)

// 服务端 -> 客户端
const (
	MsgTypeRosterUpdated     = 301
	MsgTypeRoomStatusUpdated = 302
	MsgTypeNumberDrawn       = 303
	MsgTypeWaitingStarted    = 304
	MsgTypeWaitingCountdown  = 305
	MsgTypeWaitingEnded      = 306
	MsgTypeRoundStarted      = 307
	MsgTypeRoundEnded        = 308
	MsgTypeRoundReset        = 309
	MsgTypeKickedFromRoom    = 310
	MsgTypeRoundStopped      = 311
	MsgTypeWinClaimResult    = 401
	MsgTypeJoinRejected      = 402
	MsgTypeJoinAccepted      = 403
	MsgTypeLeftRoom          = 404
	MsgTypeResyncResult      = 405
	MsgTypeRoomStatusInfo    = 406
	MsgTypeError             = 499
)

// IsInbound reports whether id is a message type clients may send.
func IsInbound(id uint16) bool {
	switch id {
	case MsgTypeHeartbeat, MsgTypeJoinDefaultRoom, MsgTypeJoinRoom, MsgTypeLeaveRoom,
		MsgTypeDrawNumber, MsgTypeResyncNumbers, MsgTypeStopRound, MsgTypeClaimWin,
		MsgTypeQueryRoomStatus:
		return true
	}
	return false
}

package network

// Request payloads.

type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

// RoomRequest is the payload of every inbound message that only names a room.
type RoomRequest struct {
	RoomID string `json:"room_id"`
}

// Response and notification payloads.

type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WinnerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WinPattern string `json:"winPattern"`
}

type RosterUpdated struct {
	RoomID  string       `json:"roomId"`
	Players []PlayerInfo `json:"players"`
}

type RoomStatus struct {
	RoomID     string `json:"roomId"`
	Status     string `json:"status"`
	Players    int    `json:"players"`
	MinPlayers int    `json:"minPlayers"`
}

type RoomStatusInfo struct {
	RoomStatus
	CanJoin bool `json:"canJoin"`
}

type NumberDrawn struct {
	Number      int `json:"number"`
	TotalCalled int `json:"totalCalled"`
	Remaining   int `json:"remaining"`
}

type WaitingStarted struct {
	MaxWaitingTime int64  `json:"maxWaitingTime"`
	Message        string `json:"message"`
	AllNumbers     []int  `json:"allNumbers"`
	CalledNumbers  []int  `json:"calledNumbers"`
}

type WaitingCountdown struct {
	RemainingTime    int64 `json:"remainingTime"`
	RemainingSeconds int64 `json:"remainingSeconds"`
}

type WaitingEnded struct {
	Reason string `json:"reason"`
}

type RoundStarted struct {
	Message       string `json:"message"`
	AllNumbers    []int  `json:"allNumbers"`
	CalledNumbers []int  `json:"calledNumbers"`
}

type RoundEnded struct {
	Reason             string      `json:"reason"`
	Winner             *WinnerInfo `json:"winner"`
	CalledNumbers      []int       `json:"calledNumbers"`
	TotalNumbersCalled int         `json:"totalNumbersCalled"`
}

type RoundStopped struct {
	Reason        string `json:"reason"`
	CalledNumbers []int  `json:"calledNumbers"`
}

type RoundReset struct {
	Message       string `json:"message"`
	Kicked        bool   `json:"kicked"`
	AllNumbers    []int  `json:"allNumbers"`
	CalledNumbers []int  `json:"calledNumbers"`
}

type KickedFromRoom struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

type WinClaimResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Pattern string `json:"pattern,omitempty"`
}

type JoinRejected struct {
	Message    string `json:"message"`
	RoomStatus string `json:"roomStatus"`
	RoomID     string `json:"roomId"`
}

type JoinAccepted struct {
	Name          string    `json:"name"`
	RoomID        string    `json:"roomId"`
	BingoCard     [5][5]int `json:"bingoCard"`
	AllNumbers    []int     `json:"allNumbers"`
	CalledNumbers []int     `json:"calledNumbers"`
}

type LeftRoom struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

type ResyncResult struct {
	RoomID        string `json:"roomId"`
	CalledNumbers []int  `json:"calledNumbers"`
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

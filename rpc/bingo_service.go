package rpc

import (
	"context"
	"time"

	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/room"
	"github.com/wfunc/bingoserver/services"
)

const callTimeout = 5 * time.Second

// BingoService exposes room inspection and round history over net/rpc.
// Methods follow the net/rpc signature: exported args, pointer reply, error.
type BingoService struct {
	rooms   *room.Manager
	history *services.HistoryService
}

func NewBingoService(rooms *room.Manager, history *services.HistoryService) *BingoService {
	return &BingoService{rooms: rooms, history: history}
}

type RoomArgs struct {
	RoomID string
}

type RoomStatusReply struct {
	RoomID        string
	Status        string
	Players       []string
	CalledNumbers []int
	MinPlayers    int
	MaxPlayers    int
	CanJoin       bool
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []RoomStatusReply
}

type RecentRoundsArgs struct {
	RoomID string
	Limit  int
}

type RecentRoundsReply struct {
	Rounds []models.RoundRecord
}

type StatsArgs struct{}

type StatsReply struct {
	Rounds map[string]int64
}

type Ack struct {
	OK bool
}

func statusReply(snap room.Snapshot) RoomStatusReply {
	reply := RoomStatusReply{
		RoomID:        snap.RoomID,
		Status:        string(snap.Status),
		CalledNumbers: snap.CalledNumbers,
		MinPlayers:    snap.MinPlayers,
		MaxPlayers:    snap.MaxPlayers,
		CanJoin:       snap.CanJoin(),
	}
	for _, p := range snap.Players {
		reply.Players = append(reply.Players, p.Name)
	}
	return reply
}

func (s *BingoService) RoomStatus(args *RoomArgs, reply *RoomStatusReply) error {
	r, ok := s.rooms.GetRoom(args.RoomID)
	if !ok {
		return room.ErrRoomNotFound
	}
	snap, err := r.Snapshot()
	if err != nil {
		return err
	}
	*reply = statusReply(snap)
	return nil
}

func (s *BingoService) ListRooms(_ *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, r := range s.rooms.Rooms() {
		snap, err := r.Snapshot()
		if err != nil {
			continue
		}
		reply.Rooms = append(reply.Rooms, statusReply(snap))
	}
	return nil
}

// StopRound aborts the round in play, the same as a client stop request.
func (s *BingoService) StopRound(args *RoomArgs, reply *Ack) error {
	r, ok := s.rooms.GetRoom(args.RoomID)
	if !ok {
		return room.ErrRoomNotFound
	}
	if err := r.StopRound(); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

func (s *BingoService) RecentRounds(args *RecentRoundsArgs, reply *RecentRoundsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	rounds, err := s.history.RecentRounds(ctx, args.RoomID, args.Limit)
	if err != nil {
		return err
	}
	reply.Rounds = rounds
	return nil
}

func (s *BingoService) RoundStats(_ *StatsArgs, reply *StatsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	stats, err := s.history.Stats(ctx)
	if err != nil {
		return err
	}
	reply.Rounds = stats
	return nil
}

package room

import (
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/bingoserver/bingo"
	"github.com/wfunc/bingoserver/models"
)

// fakeScheduler records timers and fires them only when a test asks.
// Removed timers keep their callback so a test can simulate a firing that
// raced with its cancellation.
type fakeScheduler struct {
	mu    sync.Mutex
	next  int64
	tasks map[int64]*fakeTask
}

type fakeTask struct {
	delay    time.Duration
	interval time.Duration
	callback func()
	removed  bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[int64]*fakeTask)}
}

func (s *fakeScheduler) AddTimer(delay, interval time.Duration, callback func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.tasks[s.next] = &fakeTask{delay: delay, interval: interval, callback: callback}
	return s.next
}

func (s *fakeScheduler) RemoveTimer(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[id]; ok {
		task.removed = true
	}
}

// fire runs the callback of id, live or not. One-shot timers are retired
// afterwards, like TimerManager does.
func (s *fakeScheduler) fire(id int64) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if ok && task.interval == 0 {
		task.removed = true
	}
	s.mu.Unlock()
	if ok {
		task.callback()
	}
}

func (s *fakeScheduler) active() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, task := range s.tasks {
		if !task.removed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type sentMessage struct {
	roomID    string
	sessionID string
	msgID     uint16
	data      []byte
}

// recordingBroadcaster keeps every outgoing message in order.
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []sentMessage
	members  map[string]map[string]bool
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{members: make(map[string]map[string]bool)}
}

func (b *recordingBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, sentMessage{roomID: roomID, msgID: msgID, data: data})
	return nil
}

func (b *recordingBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, sentMessage{sessionID: sessionID, msgID: msgID, data: data})
	return nil
}

func (b *recordingBroadcaster) Attach(roomID, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.members[roomID] == nil {
		b.members[roomID] = make(map[string]bool)
	}
	b.members[roomID][sessionID] = true
}

func (b *recordingBroadcaster) Detach(roomID, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.members[roomID], sessionID)
}

func (b *recordingBroadcaster) memberCount(roomID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.members[roomID])
}

func (b *recordingBroadcaster) ids() []uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]uint16, 0, len(b.messages))
	for _, m := range b.messages {
		ids = append(ids, m.msgID)
	}
	return ids
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

// find returns every message with msgID, in send order.
func (b *recordingBroadcaster) find(msgID uint16) []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []sentMessage
	for _, m := range b.messages {
		if m.msgID == msgID {
			out = append(out, m)
		}
	}
	return out
}

func decode[T any](t *testing.T, m sentMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(m.data, &v))
	return v
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []models.RoundRecord
}

func (r *recordingRecorder) RecordRound(rec models.RoundRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recordingRecorder) all() []models.RoundRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.RoundRecord(nil), r.records...)
}

type countingObserver struct {
	mu      sync.Mutex
	started int
	ended   map[string]int
	drawn   int
	players int
}

func (o *countingObserver) RoundStarted(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) RoundEnded(_ string, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ended == nil {
		o.ended = make(map[string]int)
	}
	o.ended[reason]++
}

func (o *countingObserver) NumberDrawn(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drawn++
}

func (o *countingObserver) PlayersChanged(_ string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.players = count
}

type harness struct {
	room     *Room
	sched    *fakeScheduler
	bc       *recordingBroadcaster
	recorder *recordingRecorder
	observer *countingObserver
}

func testSettings(minPlayers, maxPlayers int) Settings {
	s := DefaultSettings()
	s.MinPlayers = minPlayers
	s.MaxPlayers = maxPlayers
	return s
}

func newHarness(t *testing.T, settings Settings, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		sched:    newFakeScheduler(),
		bc:       newRecordingBroadcaster(),
		recorder: &recordingRecorder{},
		observer: &countingObserver{},
	}
	opts = append([]Option{
		WithRand(rand.New(rand.NewSource(1))),
		WithRecorder(h.recorder),
		WithObserver(h.observer),
	}, opts...)
	h.room = NewRoom("room-1", settings, h.bc, h.sched, opts...)
	t.Cleanup(h.room.Close)
	return h
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	snap, err := h.room.Snapshot()
	require.NoError(t, err)
	return snap
}

type timerHandles struct {
	draw, waiting, countdown, reset armedTimer
}

func (h *harness) timers(t *testing.T) timerHandles {
	t.Helper()
	var th timerHandles
	require.NoError(t, h.room.do(func() {
		th = timerHandles{h.room.drawTimer, h.room.waitingTimer, h.room.countdownTimer, h.room.resetTimer}
	}))
	return th
}

// fire runs a timer callback and waits until the room processed it.
func (h *harness) fire(t *testing.T, id int64) {
	t.Helper()
	h.sched.fire(id)
	require.NoError(t, h.room.do(func() {}))
}

// leaveOnly drains the pool so that only keep remains undrawn.
func (h *harness) leaveOnly(t *testing.T, keep ...int) {
	t.Helper()
	require.NoError(t, h.room.do(func() {
		for _, n := range bingo.AllNumbers() {
			skip := false
			for _, k := range keep {
				skip = skip || n == k
			}
			if !skip {
				h.room.pool.Take(n)
			}
		}
	}))
}

func (h *harness) setCard(t *testing.T, playerID string, card bingo.Card) {
	t.Helper()
	require.NoError(t, h.room.do(func() {
		h.room.findPlayer(playerID).Card = card
	}))
}

func (h *harness) take(t *testing.T, numbers ...int) {
	t.Helper()
	require.NoError(t, h.room.do(func() {
		for _, n := range numbers {
			h.room.pool.Take(n)
		}
	}))
}

// row3Card has row 3 = [2, 17, free, 47, 62].
func row3Card() bingo.Card {
	return bingo.Card{
		{1, 3, 2, 4, 5},
		{16, 18, 17, 19, 20},
		{31, 32, bingo.FreeCell, 34, 35},
		{46, 48, 47, 49, 50},
		{61, 63, 62, 64, 65},
	}
}

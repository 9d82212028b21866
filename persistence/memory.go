// persistence/memory.go
package persistence

import (
	"context"
	"slices"
	"sync"

	"github.com/wfunc/bingoserver/models"
)

// MemoryStore keeps the most recent records in process memory. It backs the
// history service when no database driver is configured.
type MemoryStore struct {
	mutex    sync.RWMutex
	records  []models.RoundRecord
	capacity int
	nextID   uint
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryStore{capacity: capacity}
}

func (m *MemoryStore) SaveRoundRecord(_ context.Context, rec *models.RoundRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, cloneRecord(*rec))
	if len(m.records) > m.capacity {
		m.records = slices.Delete(m.records, 0, len(m.records)-m.capacity)
	}
	return nil
}

func (m *MemoryStore) GetRoundRecord(_ context.Context, id uint) (*models.RoundRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, rec := range m.records {
		if rec.ID == id {
			out := cloneRecord(rec)
			return &out, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryStore) ListRoundRecords(_ context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	limit = normalizeLimit(limit)
	var out []models.RoundRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if roomID == "" || m.records[i].RoomID == roomID {
			out = append(out, cloneRecord(m.records[i]))
		}
	}
	return out, nil
}

func (m *MemoryStore) RoundStats(context.Context) (map[string]int64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := make(map[string]int64)
	for _, rec := range m.records {
		stats[rec.Reason]++
	}
	return stats, nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneRecord(rec models.RoundRecord) models.RoundRecord {
	rec.CalledNumbers = slices.Clone(rec.CalledNumbers)
	rec.Players = slices.Clone(rec.Players)
	if rec.Winner != nil {
		w := *rec.Winner
		rec.Winner = &w
	}
	return rec
}

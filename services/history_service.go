// services/history_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/models"
	"github.com/wfunc/bingoserver/persistence"
)

// HistoryService 归档已结束的对局并提供查询。RecordRound 满足 room.Recorder，
// 写库在独立协程中进行，房间主循环不会被数据库阻塞。
type HistoryService struct {
	db      persistence.Database
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewHistoryService(db persistence.Database, timeout time.Duration) *HistoryService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HistoryService{db: db, timeout: timeout}
}

// RecordRound 异步保存对局记录，失败只记录日志
func (s *HistoryService) RecordRound(rec models.RoundRecord) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.db.SaveRoundRecord(ctx, &rec); err != nil {
			logger.Log.Warnw("save round record", "room", rec.RoomID, "reason", rec.Reason, "error", err)
			return
		}
		logger.Log.Infow("round archived", "id", rec.ID, "room", rec.RoomID, "reason", rec.Reason, "duration", rec.Duration())
	}()
}

// Wait blocks until every pending RecordRound has finished.
func (s *HistoryService) Wait() {
	s.wg.Wait()
}

// RecentRounds 最近结束的对局，最新的在前
func (s *HistoryService) RecentRounds(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	return s.db.ListRoundRecords(ctx, roomID, limit)
}

func (s *HistoryService) Round(ctx context.Context, id uint) (*models.RoundRecord, error) {
	return s.db.GetRoundRecord(ctx, id)
}

// Stats 按结束原因统计对局数量
func (s *HistoryService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.db.RoundStats(ctx)
}

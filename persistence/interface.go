// persistence/interface.go
package persistence

import (
	"context"
	"errors"

	"github.com/wfunc/bingoserver/models"
)

// Database 对局归档存储接口
type Database interface {
	// SaveRoundRecord stores rec and sets rec.ID.
	SaveRoundRecord(ctx context.Context, rec *models.RoundRecord) error
	GetRoundRecord(ctx context.Context, id uint) (*models.RoundRecord, error)
	// ListRoundRecords returns the newest records first. An empty roomID
	// matches every room.
	ListRoundRecords(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error)
	// RoundStats counts finished rounds by end reason.
	RoundStats(ctx context.Context) (map[string]int64, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
)

const defaultListLimit = 20

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return defaultListLimit
	}
	return limit
}

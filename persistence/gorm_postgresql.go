// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/bingoserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接，dsn 可以是 key=value 或 URL 形式
func NewGormPostgreSQL(dsn string) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&RoundRecordModel{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// RoundRecordModel 对局归档表，切片与结构体字段以 JSON 存储
type RoundRecordModel struct {
	ID            uint                `gorm:"primaryKey"`
	RoomID        string              `gorm:"index;not null"`
	Reason        string              `gorm:"not null"`
	Winner        *models.WinnerInfo  `gorm:"type:jsonb;serializer:json"`
	CalledNumbers []int               `gorm:"type:jsonb;serializer:json;not null"`
	Players       []models.PlayerInfo `gorm:"type:jsonb;serializer:json;not null"`
	StartedAt     time.Time           `gorm:"not null"`
	EndedAt       time.Time           `gorm:"index;not null"`
}

func (RoundRecordModel) TableName() string {
	return "round_records"
}

func toModel(rec *models.RoundRecord) RoundRecordModel {
	return RoundRecordModel{
		RoomID:        rec.RoomID,
		Reason:        rec.Reason,
		Winner:        rec.Winner,
		CalledNumbers: nonNilInts(rec.CalledNumbers),
		Players:       nonNilPlayers(rec.Players),
		StartedAt:     rec.StartedAt,
		EndedAt:       rec.EndedAt,
	}
}

func (m RoundRecordModel) toRecord() models.RoundRecord {
	return models.RoundRecord{
		ID:            m.ID,
		RoomID:        m.RoomID,
		Reason:        m.Reason,
		Winner:        m.Winner,
		CalledNumbers: m.CalledNumbers,
		Players:       m.Players,
		StartedAt:     m.StartedAt,
		EndedAt:       m.EndedAt,
	}
}

func (p *GormPostgreSQL) SaveRoundRecord(ctx context.Context, rec *models.RoundRecord) error {
	model := toModel(rec)
	if err := p.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	rec.ID = model.ID
	return nil
}

func (p *GormPostgreSQL) GetRoundRecord(ctx context.Context, id uint) (*models.RoundRecord, error) {
	var model RoundRecordModel
	if err := p.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	rec := model.toRecord()
	return &rec, nil
}

func (p *GormPostgreSQL) ListRoundRecords(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	query := p.db.WithContext(ctx).Order("ended_at DESC").Order("id DESC").Limit(normalizeLimit(limit))
	if roomID != "" {
		query = query.Where("room_id = ?", roomID)
	}

	var rows []RoundRecordModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]models.RoundRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (p *GormPostgreSQL) RoundStats(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Reason string
		Count  int64
	}
	err := p.db.WithContext(ctx).Model(&RoundRecordModel{}).
		Select("reason, COUNT(*) AS count").
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Reason] = row.Count
	}
	return stats, nil
}

// Transaction 在同一事务中执行 fn
func (p *GormPostgreSQL) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.db.WithContext(ctx).Transaction(fn)
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

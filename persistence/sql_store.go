// persistence/sql_store.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL 驱动
	_ "github.com/mattn/go-sqlite3" // SQLite 驱动

	"github.com/wfunc/bingoserver/models"
)

// SQLStore 基于 database/sql 的实现，支持 postgres(lib/pq) 与 sqlite3
type SQLStore struct {
	db     *sql.DB
	driver string
}

var schemas = map[string]string{
	"postgres": `
        CREATE TABLE IF NOT EXISTS round_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            reason VARCHAR(64) NOT NULL,
            winner JSONB,
            called_numbers JSONB NOT NULL,
            players JSONB NOT NULL,
            started_at TIMESTAMPTZ NOT NULL,
            ended_at TIMESTAMPTZ NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_round_records_room_id ON round_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_round_records_ended_at ON round_records(ended_at);
    `,
	"sqlite3": `
        CREATE TABLE IF NOT EXISTS round_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            room_id TEXT NOT NULL,
            reason TEXT NOT NULL,
            winner TEXT,
            called_numbers TEXT NOT NULL,
            players TEXT NOT NULL,
            started_at DATETIME NOT NULL,
            ended_at DATETIME NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_round_records_room_id ON round_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_round_records_ended_at ON round_records(ended_at);
    `,
}

// NewSQLStore 打开连接并初始化表结构。driver 为 "postgres" 或 "sqlite3"。
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("persistence: unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数，sqlite 只允许单写
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: init tables: %w", err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

// SaveRoundRecord 保存一局的归档记录
func (s *SQLStore) SaveRoundRecord(ctx context.Context, rec *models.RoundRecord) error {
	var winner []byte
	if rec.Winner != nil {
		var err error
		if winner, err = json.Marshal(rec.Winner); err != nil {
			return err
		}
	}
	called, err := json.Marshal(nonNilInts(rec.CalledNumbers))
	if err != nil {
		return err
	}
	players, err := json.Marshal(nonNilPlayers(rec.Players))
	if err != nil {
		return err
	}

	query := `
        INSERT INTO round_records (room_id, reason, winner, called_numbers, players, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	var id int64
	err = s.db.QueryRowContext(ctx, query,
		rec.RoomID, rec.Reason, nullableJSON(winner), string(called), string(players),
		rec.StartedAt.UTC(), rec.EndedAt.UTC()).Scan(&id)
	if err != nil {
		return err
	}
	rec.ID = uint(id)
	return nil
}

const selectColumns = `SELECT id, room_id, reason, winner, called_numbers, players, started_at, ended_at FROM round_records`

func (s *SQLStore) GetRoundRecord(ctx context.Context, id uint) (*models.RoundRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, int64(id))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *SQLStore) ListRoundRecords(ctx context.Context, roomID string, limit int) ([]models.RoundRecord, error) {
	limit = normalizeLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if roomID == "" {
		rows, err = s.db.QueryContext(ctx, selectColumns+` ORDER BY ended_at DESC, id DESC LIMIT $1`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, selectColumns+` WHERE room_id = $1 ORDER BY ended_at DESC, id DESC LIMIT $2`, roomID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RoundRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *SQLStore) RoundStats(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT reason, COUNT(*) FROM round_records GROUP BY reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var (
			reason string
			count  int64
		)
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, err
		}
		stats[reason] = count
	}
	return stats, rows.Err()
}

// Close 关闭数据库连接
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.RoundRecord, error) {
	var (
		rec                     models.RoundRecord
		id                      int64
		winner, called, players []byte
	)
	if err := row.Scan(&id, &rec.RoomID, &rec.Reason, &winner, &called, &players, &rec.StartedAt, &rec.EndedAt); err != nil {
		return nil, err
	}
	rec.ID = uint(id)
	if len(winner) > 0 {
		rec.Winner = &models.WinnerInfo{}
		if err := json.Unmarshal(winner, rec.Winner); err != nil {
			return nil, fmt.Errorf("decode winner: %w", err)
		}
	}
	if err := json.Unmarshal(called, &rec.CalledNumbers); err != nil {
		return nil, fmt.Errorf("decode called numbers: %w", err)
	}
	if err := json.Unmarshal(players, &rec.Players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	return &rec, nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}

func nonNilPlayers(s []models.PlayerInfo) []models.PlayerInfo {
	if s == nil {
		return []models.PlayerInfo{}
	}
	return s
}

// persistence/open.go
package persistence

import (
	"fmt"

	"github.com/wfunc/bingoserver/config"
)

// Open 按配置选择存储实现，driver 为 none 时使用内存存储
func Open(cfg config.DatabaseConfig) (Database, error) {
	switch cfg.Driver {
	case config.DriverNone, "":
		return NewMemoryStore(0), nil
	case config.DriverGorm:
		return NewGormPostgreSQL(cfg.Postgres.DSN())
	case config.DriverPostgres:
		return NewSQLStore("postgres", cfg.Postgres.DSN())
	case config.DriverSQLite:
		return NewSQLStore("sqlite3", cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("persistence: unknown driver %q", cfg.Driver)
	}
}

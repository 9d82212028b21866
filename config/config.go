package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
	RPCAddress  string `mapstructure:"rpc_address"`
	GRPCAddress string `mapstructure:"grpc_address"`
	// HeartbeatInterval 为 0 时不设置读超时
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// GameConfig 房间规则与计时参数
type GameConfig struct {
	DefaultRoom       string        `mapstructure:"default_room"`
	MinPlayers        int           `mapstructure:"min_players"`
	MaxPlayers        int           `mapstructure:"max_players"`
	WaitingTime       time.Duration `mapstructure:"waiting_time"`
	DrawInterval      time.Duration `mapstructure:"draw_interval"`
	GraceDelay        time.Duration `mapstructure:"grace_delay"`
	CountdownInterval time.Duration `mapstructure:"countdown_interval"`
	TimerResolution   time.Duration `mapstructure:"timer_resolution"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// DSN returns a key/value connection string understood by both lib/pq and pgx.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.DBName)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

const (
	DriverNone     = "none"
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", "")
	v.SetDefault("server.grpc_address", "")
	v.SetDefault("server.heartbeat_interval", time.Duration(0))

	v.SetDefault("game.default_room", "default")
	v.SetDefault("game.min_players", 1)
	v.SetDefault("game.max_players", 10)
	v.SetDefault("game.waiting_time", 2*time.Minute)
	v.SetDefault("game.draw_interval", 3*time.Second)
	v.SetDefault("game.grace_delay", 10*time.Second)
	v.SetDefault("game.countdown_interval", time.Second)
	v.SetDefault("game.timer_resolution", 50*time.Millisecond)

	v.SetDefault("database.driver", DriverNone)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.sqlite.path", "bingo.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig 读取 path 下的 config.yaml（可选）、.env（可选）以及环境变量。
// 兼容旧的 PORT / MIN_PLAYERS / MAX_PLAYERS / MAX_WAITING_TIME(毫秒) 变量。
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("game.min_players", "GAME_MIN_PLAYERS", "MIN_PLAYERS")
	_ = v.BindEnv("game.max_players", "GAME_MAX_PLAYERS", "MAX_PLAYERS")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("max_waiting_time", "MAX_WAITING_TIME")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if port := v.GetString("port"); port != "" {
		cfg.Server.HTTPAddress = ":" + port
	}
	if ms := v.GetInt64("max_waiting_time"); ms > 0 {
		cfg.Game.WaitingTime = time.Duration(ms) * time.Millisecond
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	g := c.Game
	if g.DefaultRoom == "" {
		return errors.New("config: game.default_room must not be empty")
	}
	if g.MinPlayers < 1 {
		return fmt.Errorf("config: game.min_players must be >= 1, got %d", g.MinPlayers)
	}
	if g.MaxPlayers < g.MinPlayers {
		return fmt.Errorf("config: game.max_players (%d) must be >= game.min_players (%d)", g.MaxPlayers, g.MinPlayers)
	}
	for name, d := range map[string]time.Duration{
		"waiting_time":       g.WaitingTime,
		"draw_interval":      g.DrawInterval,
		"grace_delay":        g.GraceDelay,
		"countdown_interval": g.CountdownInterval,
		"timer_resolution":   g.TimerResolution,
	} {
		if d <= 0 {
			return fmt.Errorf("config: game.%s must be positive, got %s", name, d)
		}
	}

	if c.Server.HeartbeatInterval < 0 {
		return fmt.Errorf("config: server.heartbeat_interval must not be negative, got %s", c.Server.HeartbeatInterval)
	}

	switch c.Database.Driver {
	case DriverNone, DriverGorm, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	return nil
}

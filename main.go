package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wfunc/bingoserver/config"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/persistence"
	"github.com/wfunc/bingoserver/server"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:           "bingoserver",
	Short:         "Real-time multiplayer bingo server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory holding config.yaml and .env")
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	db, err := persistence.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	logger.Log.Infow("Database ready.", "driver", cfg.Database.Driver)

	gameServer, err := server.NewGameServer(server.OptionsFromConfig(cfg), db)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	return gameServer.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/wfunc/bingoserver/broadcast"
	"github.com/wfunc/bingoserver/config"
	"github.com/wfunc/bingoserver/logger"
	"github.com/wfunc/bingoserver/monitor"
	"github.com/wfunc/bingoserver/network"
	"github.com/wfunc/bingoserver/persistence"
	"github.com/wfunc/bingoserver/room"
	gamerpc "github.com/wfunc/bingoserver/rpc"
	"github.com/wfunc/bingoserver/services"
	"github.com/wfunc/bingoserver/session"
	"github.com/wfunc/bingoserver/timer"
)

const healthLine = "Bingo Game Server is running!"

// Options 服务启动参数
type Options struct {
	HTTPAddress       string
	RPCAddress        string
	GRPCAddress       string
	HeartbeatInterval time.Duration
	StatusLogInterval time.Duration

	DefaultRoom     string
	Settings        room.Settings
	TimerResolution time.Duration
}

// OptionsFromConfig maps the loaded configuration onto server options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		HTTPAddress:       cfg.Server.HTTPAddress,
		RPCAddress:        cfg.Server.RPCAddress,
		GRPCAddress:       cfg.Server.GRPCAddress,
		HeartbeatInterval: cfg.Server.HeartbeatInterval,
		StatusLogInterval: 30 * time.Second,
		DefaultRoom:       cfg.Game.DefaultRoom,
		Settings: room.Settings{
			MinPlayers:        cfg.Game.MinPlayers,
			MaxPlayers:        cfg.Game.MaxPlayers,
			WaitingTime:       cfg.Game.WaitingTime,
			DrawInterval:      cfg.Game.DrawInterval,
			GraceDelay:        cfg.Game.GraceDelay,
			CountdownInterval: cfg.Game.CountdownInterval,
		},
		TimerResolution: cfg.Game.TimerResolution,
	}
}

type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	timers         *timer.TimerManager
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    *broadcast.RoomBroadcaster
	monitor        *monitor.Monitor
	history        *services.HistoryService
	rpcServer      *gamerpc.Server
	healthServer   *gamerpc.HealthServer
	httpServer     *http.Server
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewGameServer(opts Options, db persistence.Database) (*GameServer, error) {
	if opts.StatusLogInterval <= 0 {
		opts.StatusLogInterval = 30 * time.Second
	}
	if opts.TimerResolution <= 0 {
		opts.TimerResolution = 50 * time.Millisecond
	}

	s := &GameServer{
		opts:           opts,
		timers:         timer.NewTimerManager(opts.TimerResolution),
		sessionManager: session.NewManager(),
		monitor:        monitor.NewMonitor("bingo"),
		history:        services.NewHistoryService(db, 5*time.Second),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器与房间管理器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)
	s.roomManager = room.NewRoomManager(opts.DefaultRoom, opts.Settings, s.broadcaster, s.timers,
		room.WithObserver(s.monitor),
		room.WithRecorder(s.history),
	)
	s.monitor.SetActiveRooms(s.roomManager.Count())

	if opts.RPCAddress != "" {
		rpcServer, err := gamerpc.NewServer(opts.RPCAddress, gamerpc.NewBingoService(s.roomManager, s.history))
		if err != nil {
			s.closeCore()
			return nil, err
		}
		s.rpcServer = rpcServer
	}
	if opts.GRPCAddress != "" {
		healthServer, err := gamerpc.NewHealthServer(opts.GRPCAddress)
		if err != nil {
			if s.rpcServer != nil {
				s.rpcServer.Stop()
			}
			s.closeCore()
			return nil, err
		}
		s.healthServer = healthServer
	}

	s.httpServer = &http.Server{
		Addr:              opts.HTTPAddress,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Rooms exposes the registry, mainly for tests and admin tooling.
func (s *GameServer) Rooms() *room.Manager {
	return s.roomManager
}

// Routes 注册 HTTP 路由
func (s *GameServer) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/rooms", s.handleRooms).Methods(http.MethodGet)
	r.Handle("/metrics", s.monitor.Handler())
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *GameServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, healthLine)
}

func (s *GameServer) handleRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := make([]network.RoomStatusInfo, 0, s.roomManager.Count())
	for _, r := range s.roomManager.Rooms() {
		snap, err := r.Snapshot()
		if err != nil {
			continue
		}
		rooms = append(rooms, statusInfo(snap))
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rooms); err != nil {
		logger.Log.Warnw("encode room list", "error", err)
	}
}

// Run 启动所有监听，ctx 取消后优雅关闭
func (s *GameServer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Infof("Game server listening on %s", s.opts.HTTPAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if s.rpcServer != nil {
		g.Go(func() error {
			s.rpcServer.Start()
			return nil
		})
	}
	if s.healthServer != nil {
		s.healthServer.SetServing(true)
		g.Go(s.healthServer.Start)
	}
	g.Go(func() error {
		s.statusLoop(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Shutdown()
		return nil
	})

	return g.Wait()
}

// statusLoop 定期输出连接与房间概况
func (s *GameServer) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.StatusLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logStatus()
		}
	}
}

func (s *GameServer) logStatus() {
	rooms := s.roomManager.Rooms()
	s.monitor.SetActiveRooms(len(rooms))
	seated := 0
	for _, r := range rooms {
		snap, err := r.Snapshot()
		if err != nil {
			continue
		}
		seated += len(snap.Players)
		if len(snap.Players) > 0 {
			logger.Log.Infow("room status", "room", snap.RoomID, "status", snap.Status, "players", len(snap.Players), "called", len(snap.CalledNumbers))
		}
	}
	logger.Log.Infow("server status", "connections", s.sessionManager.Count(), "rooms", len(rooms), "seated", seated)
}

// Shutdown 通知所有连接并关闭监听与房间，可重复调用
func (s *GameServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		logger.Log.Info("Shutting down game server.")
		if s.healthServer != nil {
			s.healthServer.SetServing(false)
		}

		if data, err := json.Marshal(network.ErrorMessage{Code: "server_shutdown", Message: "Server is shutting down"}); err == nil {
			_ = s.broadcaster.BroadcastToAll(network.MsgTypeError, data)
		}
		close(s.shutdownChan)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.Log.Warnw("http shutdown", "error", err)
		}
		for _, sess := range s.sessionManager.All() {
			_ = sess.Close()
		}
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		if s.healthServer != nil {
			s.healthServer.Stop()
		}
		s.closeCore()
	})
}

func (s *GameServer) closeCore() {
	s.roomManager.Close()
	s.timers.Stop()
	s.history.Wait()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineSessions()
	if s.opts.HeartbeatInterval > 0 {
		conn.SetHeartbeat(s.opts.HeartbeatInterval)
	}

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.disconnect(sess)
		s.monitor.DecOnlineSessions()
		conn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}

		packet, err := conn.ReadPacket()
		if err != nil {
			if errors.Is(err, io.ErrShortBuffer) {
				logger.Log.Warnw("malformed frame", "session", sess.GetID(), "error", err)
				s.sendError(sess, ErrMalformedPacket, "frame shorter than its header")
				continue
			}
			return
		}
		s.handlePacket(sess, packet)
	}
}

// disconnect 等同于对连接所在的每个房间执行 leave
func (s *GameServer) disconnect(sess *session.Session) {
	s.sessionManager.Remove(sess.GetID())
	for _, roomID := range s.broadcaster.Rooms(sess.GetID()) {
		r, ok := s.roomManager.GetRoom(roomID)
		if !ok {
			continue
		}
		if _, err := r.Leave(sess.GetID()); err != nil && !errors.Is(err, room.ErrRoomClosed) {
			logger.Log.Warnw("leave on disconnect", "room", roomID, "session", sess.GetID(), "error", err)
		}
	}
}

func statusInfo(snap room.Snapshot) network.RoomStatusInfo {
	return network.RoomStatusInfo{
		RoomStatus: network.RoomStatus{
			RoomID:     snap.RoomID,
			Status:     string(snap.Status),
			Players:    len(snap.Players),
			MinPlayers: snap.MinPlayers,
		},
		CanJoin: snap.CanJoin(),
	}
}

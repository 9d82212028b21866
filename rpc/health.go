package rpc

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/wfunc/bingoserver/logger"
)

// ServiceName is the health-check service name reported for the game server.
const ServiceName = "bingo.BingoServer"

// HealthServer serves the standard gRPC health protocol for load balancers
// and orchestrators.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func NewHealthServer(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	hs := &HealthServer{server: s, health: h, listener: listener}
	hs.SetServing(false)
	return hs, nil
}

func (h *HealthServer) Addr() string {
	return h.listener.Addr().String()
}

// SetServing flips both the overall and the named service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Start serves until Stop is called.
func (h *HealthServer) Start() error {
	logger.Log.Infof("gRPC health server listening on %s", h.Addr())
	return h.server.Serve(h.listener)
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}

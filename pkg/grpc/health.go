package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/example/shopfront/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const pingTimeout = 2 * time.Second

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer answers grpc.health.v1 checks for the API process. Each Check
// pings the dependencies before reporting.
type HealthServer struct {
	*health.Server
	service string
	deps    map[string]Pinger
	logger  *zap.Logger
}

func NewHealthServer(service string, deps map[string]Pinger, logger *zap.Logger) *HealthServer {
	return &HealthServer{
		Server:  health.NewServer(),
		service: service,
		deps:    deps,
		logger:  logger,
	}
}

// Refresh pings every dependency and records the resulting status for the
// overall ("") and the named service.
func (h *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, dep := range h.deps {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := dep.Ping(pctx)
		cancel()
		if err != nil {
			h.logger.Warn("Health dependency unreachable", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.SetServingStatus("", status)
	h.SetServingStatus(h.service, status)
	return status
}

func (h *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	h.Refresh(ctx)
	return h.Server.Check(ctx, req)
}

type Server struct {
	config *config.GRPCConfig
	health *HealthServer
	srv    *grpc.Server
	logger *zap.Logger
}

func NewServer(cfg *config.GRPCConfig, hs *HealthServer, logger *zap.Logger) *Server {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{config: cfg, health: hs, srv: srv, logger: logger}
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.health.Refresh(context.Background())
	s.logger.Info("gRPC ops server started", zap.String("address", lis.Addr().String()))
	return s.srv.Serve(lis)
}

// Stop marks the process as not serving, then drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

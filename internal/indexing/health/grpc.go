package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported besides "".
const ServiceName = "feedwatch"

// GRPCServer exposes the health report over the standard gRPC health protocol.
type GRPCServer struct {
	monitor  *Monitor
	port     int
	interval time.Duration
	server   *grpc.Server
	health   *grpchealth.Server
	log      *slog.Logger
}

// NewGRPCServer creates a gRPC health server refreshed from monitor.
func NewGRPCServer(monitor *Monitor, port int) *GRPCServer {
	s := &GRPCServer{
		monitor:  monitor,
		port:     port,
		interval: 10 * time.Second,
		server:   grpc.NewServer(),
		health:   grpchealth.NewServer(),
		log:      slog.Default().With("component", "grpc-health"),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	return s
}

// Start serves until Stop is called, refreshing the status every interval.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on %d: %w", s.port, err)
	}

	s.refresh(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	s.log.Info("gRPC health listening", "port", s.port)
	return s.server.Serve(lis)
}

// Stop shuts the server down gracefully.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *GRPCServer) refresh(ctx context.Context) {
	status := servingStatus(s.monitor.CheckHealth(ctx).SystemStatus)
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func servingStatus(status SystemStatus) healthpb.HealthCheckResponse_ServingStatus {
	if status == StatusCritical {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

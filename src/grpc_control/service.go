package grpc_control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Health service names reported besides the overall "" entry.
const (
	FeedService    = "dashboard.Feed"
	SessionService = "dashboard.Session"
)

// ControlService exposes the dashboard's health over gRPC. The overall status
// is SERVING only while the feed is connected and a symbol is active.
type ControlService struct {
	Health *health.Server
	Logger *logger.Logger

	mu   sync.Mutex
	last map[string]healthpb.HealthCheckResponse_ServingStatus
}

// NewControlService creates a new instance of ControlService
func NewControlService(log *logger.Logger) *ControlService {
	s := &ControlService{
		Health: health.NewServer(),
		Logger: log,
		last:   make(map[string]healthpb.HealthCheckResponse_ServingStatus),
	}
	for _, name := range []string{"", FeedService, SessionService} {
		s.set(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return s
}

// Register installs the health and reflection services on srv.
func (s *ControlService) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.Health)
	reflection.Register(srv)
}

// -----------------------------------------------------------------------------

// Observe updates the health statuses from a published dashboard state. It is
// meant to be passed to Engine.Subscribe.
func (s *ControlService) Observe(st dashboard.DashboardState) {
	feed := servingIf(st.Connected)
	session := servingIf(st.Session.State == dashboard.Active)
	overall := servingIf(st.Connected && st.Session.State == dashboard.Active)

	s.set(FeedService, feed)
	s.set(SessionService, session)
	s.set("", overall)
}

func (s *ControlService) set(name string, status healthpb.HealthCheckResponse_ServingStatus) {
	s.mu.Lock()
	prev, seen := s.last[name]
	s.last[name] = status
	s.mu.Unlock()
	if seen && prev == status {
		return
	}
	s.Health.SetServingStatus(name, status)
	if seen && s.Logger != nil {
		s.Logger.Debug("Health %q -> %s", name, status)
	}
}

func servingIf(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// -----------------------------------------------------------------------------

// Serve listens on addr and serves until ctx is cancelled.
func (s *ControlService) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}
	return s.ServeListener(ctx, lis)
}

func (s *ControlService) ServeListener(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	s.Register(srv)

	go func() {
		<-ctx.Done()
		s.Health.Shutdown()
		srv.GracefulStop()
	}()

	s.Logger.Info("Starting gRPC Control Server on %s", lis.Addr())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

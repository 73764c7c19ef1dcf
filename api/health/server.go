// Package health exposes matcherd's gRPC front door: the standard
// grpc_health_v1 service, grounded on cmd/server/main.go's
// net.Listen + grpc.NewServer + Register + Serve wiring, scoped down
// to health checking only — no custom order-placement RPC surface.
package health

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dexmatcher/matcher-core/internal/logging"
)

// Server wraps a grpc.Server serving grpc_health_v1 on a TCP listener,
// with a health.Server backing it whose per-service status matcherd
// flips once recovery completes and the mailbox is accepting commands.
type Server struct {
	grpcSrv *grpc.Server
	health  *health.Server
	log     *logging.Logger
}

// ServiceName is the grpc_health_v1 service name matcherd reports
// status under; checked by service name rather than the empty string
// so a single health server can eventually front more than one pair.
const ServiceName = "matcher.BookCore"

// New builds a Server with every watched service starting NOT_SERVING,
// flipped to SERVING by SetServing once its BookCore finishes recovery.
func New(log *logging.Logger) *Server {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)

	return &Server{grpcSrv: grpcSrv, health: hs, log: log}
}

// SetServing flips ServiceName's reported status, called once the
// owning BookCore has replayed its journal and is dispatching commands.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// ListenAndServe blocks serving gRPC health checks on addr until ctx
// is canceled, at which point it stops the server and returns nil.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.grpcSrv.Serve(lis) }()

	s.log.Info("health server listening", logging.F("addr", addr))

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcSrv.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

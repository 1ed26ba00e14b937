// Package grpcx holds the gRPC plumbing shared by the services: a traced
// server exposing the standard health service, and a traced client dial.
package grpcx

import (
	"context"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewServer returns a traced gRPC server with request-id propagation and the
// standard health service registered. The caller flips serving status on the
// returned health server, or lets Serve do it.
func NewServer(extra ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(UnaryServerRequestIDInterceptor()),
	}
	opts = append(opts, extra...)

	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

// Serve reports SERVING on lis until ctx is done, then flips every service to
// NOT_SERVING and stops gracefully.
func Serve(ctx context.Context, lis net.Listener, srv *grpc.Server, hs *health.Server, logger *slog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		errc <- srv.Serve(lis)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	hs.Shutdown()
	srv.GracefulStop()
	logger.Info("grpc server stopped")
	return nil
}

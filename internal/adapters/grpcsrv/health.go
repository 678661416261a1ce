// Package grpcsrv exposes the standard gRPC health service, driven by
// periodic pings of the operation store.
package grpcsrv

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health entry that tracks the operation store.
const ServiceName = "canvas.Sync"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	srv    *grpc.Server
	health *health.Server
	store  Pinger
	period time.Duration
}

func New(store Pinger, period time.Duration) *Server {
	if period <= 0 {
		period = 10 * time.Second
	}
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{srv: srv, health: hs, store: store, period: period}
}

func (s *Server) Serve(lis net.Listener) error {
	log.Info().Str("module", "grpc").Str("addr", lis.Addr().String()).Msg("health service started")
	return s.srv.Serve(lis)
}

// Watch refreshes the serving status until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	t := time.NewTicker(s.period)
	defer t.Stop()
	s.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx)
		}
	}
}

// Check pings the store once and publishes the result.
func (s *Server) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.period)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("module", "grpc").Msg("store ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Stop marks everything NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

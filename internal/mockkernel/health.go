package mockkernel

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name reported next to the overall ("") status.
const HealthService = "brio.kernel.Mock"

// HealthServer exposes grpc.health.v1.Health reporting SERVING until stopped.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewHealthServer creates a health server in the SERVING state.
func NewHealthServer() *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthServer{grpc: srv, health: hs}
}

// Serve blocks serving on ln until Stop is called.
func (h *HealthServer) Serve(ln net.Listener) error {
	err := h.grpc.Serve(ln)
	if err == grpc.ErrServerStopped {
		return nil
	}
	return err
}

// Stop flips every service to NOT_SERVING and closes the server.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.Stop()
}

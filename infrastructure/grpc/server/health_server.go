package server

import (
	"chat-relay/observability"
	"encoding/json"
	"log/slog"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported to grpc.health.v1 clients.
const ServiceName = "chat-relay"

// HealthServer exposes grpc.health.v1 for the relay process.
// The empty service name and ServiceName share one status.
type HealthServer struct {
	health *health.Server
	log    *slog.Logger
}

func NewHealthServer(log *slog.Logger) *HealthServer {
	return &HealthServer{health: health.NewServer(), log: log}
}

func (s *HealthServer) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, s.health)
}

func (s *HealthServer) Serving() {
	s.set(healthpb.HealthCheckResponse_SERVING)
}

// Draining is announced before a graceful stop so that balancers stop routing new clients.
func (s *HealthServer) Draining() {
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.Shutdown()
}

func (s *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.log.Info("Health status changed", "status", status.String())
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// MonitoringHandler serves the relay counters as JSON.
func MonitoringHandler(stats *observability.RelayStats) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats.Snapshot())
	}
}

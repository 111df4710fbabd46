package observability

import (
	"log/slog"
	"maps"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// StatsSnapshot is a point-in-time view of the relay counters.
type StatsSnapshot struct {
	Broadcasts           uint64               `json:"broadcasts"`
	Delivered            uint64               `json:"delivered"`
	SkippedByModeration  uint64               `json:"skipped_by_moderation"`
	ModerationFailures   uint64               `json:"moderation_failures"`
	TranslationFallbacks uint64               `json:"translation_fallbacks"`
	TranslationFailures  uint64               `json:"translation_failures"`
	TransportFailures    uint64               `json:"transport_failures"`
	CensorshipHits       uint64               `json:"censorship_hits"`
	ConnectionsOpened    uint64               `json:"connections_opened"`
	ConnectionsClosed    uint64               `json:"connections_closed"`
	WorkerRestarts       uint64               `json:"worker_restarts"`
	OnlineConnections    int                  `json:"online_connections"`
	ProcessCpu           float64              `json:"process_cpu"`
	ProcessRamBytes      uint64               `json:"process_ram_bytes"`
	AllocMemMb           uint64               `json:"alloc_mem_mb"`
	NumGC                uint32               `json:"num_gc"`
	SampledAt            time.Time            `json:"sampled_at"`
	Queues               map[string]QueueFill `json:"queues,omitempty"`
}

// QueueFill is the last sampled fill of a bounded queue.
type QueueFill struct {
	Length   int `json:"length"`
	Capacity int `json:"capacity"`
}

// RelayStats aggregates telemetry counters. Increments are lock free,
// the process sample is guarded by a RWMutex.
type RelayStats struct {
	log *slog.Logger

	broadcasts           uint64
	delivered            uint64
	skippedByModeration  uint64
	moderationFailures   uint64
	translationFallbacks uint64
	translationFailures  uint64
	transportFailures    uint64
	censorshipHits       uint64
	connectionsOpened    uint64
	connectionsClosed    uint64
	workerRestarts       uint64

	mu     sync.RWMutex
	sample processSample
	queues map[string]QueueFill
}

type processSample struct {
	connections int
	cpu         float64
	ram         uint64
	at          time.Time
}

func NewRelayStats(log *slog.Logger) *RelayStats {
	return &RelayStats{log: log}
}

// RecordBroadcast folds one delivery report into the totals.
func (s *RelayStats) RecordBroadcast(delivered, skipped, moderationFailures, fallbacks, transportFailures int) {
	atomic.AddUint64(&s.broadcasts, 1)
	atomic.AddUint64(&s.delivered, uint64(delivered))
	atomic.AddUint64(&s.skippedByModeration, uint64(skipped))
	atomic.AddUint64(&s.moderationFailures, uint64(moderationFailures))
	atomic.AddUint64(&s.translationFallbacks, uint64(fallbacks))
	atomic.AddUint64(&s.transportFailures, uint64(transportFailures))
}

func (s *RelayStats) IncrTranslationFailures() {
	atomic.AddUint64(&s.translationFailures, 1)
}

func (s *RelayStats) AddCensorshipHits(n int) {
	atomic.AddUint64(&s.censorshipHits, uint64(n))
}

func (s *RelayStats) IncrConnectionsOpened() {
	atomic.AddUint64(&s.connectionsOpened, 1)
}

func (s *RelayStats) IncrConnectionsClosed() {
	atomic.AddUint64(&s.connectionsClosed, 1)
}

func (s *RelayStats) IncrWorkerRestarts() {
	atomic.AddUint64(&s.workerRestarts, 1)
}

// RecordProcess stores the latest process sample.
func (s *RelayStats) RecordProcess(connections int, cpu float64, ram uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = processSample{connections: connections, cpu: cpu, ram: ram, at: time.Now().UTC()}
}

// RecordQueue keeps the latest fill of the named queue.
func (s *RelayStats) RecordQueue(name string, length, capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queues == nil {
		s.queues = make(map[string]QueueFill)
	}
	s.queues[name] = QueueFill{Length: length, Capacity: capacity}
}

func (s *RelayStats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	sample := s.sample
	queues := maps.Clone(s.queues)
	s.mu.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return StatsSnapshot{
		Broadcasts:           atomic.LoadUint64(&s.broadcasts),
		Delivered:            atomic.LoadUint64(&s.delivered),
		SkippedByModeration:  atomic.LoadUint64(&s.skippedByModeration),
		ModerationFailures:   atomic.LoadUint64(&s.moderationFailures),
		TranslationFallbacks: atomic.LoadUint64(&s.translationFallbacks),
		TranslationFailures:  atomic.LoadUint64(&s.translationFailures),
		TransportFailures:    atomic.LoadUint64(&s.transportFailures),
		CensorshipHits:       atomic.LoadUint64(&s.censorshipHits),
		ConnectionsOpened:    atomic.LoadUint64(&s.connectionsOpened),
		ConnectionsClosed:    atomic.LoadUint64(&s.connectionsClosed),
		WorkerRestarts:       atomic.LoadUint64(&s.workerRestarts),
		OnlineConnections:    sample.connections,
		ProcessCpu:           sample.cpu,
		ProcessRamBytes:      sample.ram,
		AllocMemMb:           m.Alloc / 1024 / 1024,
		NumGC:                m.NumGC,
		SampledAt:            sample.at,
		Queues:               queues,
	}
}

// LogSummary writes the current totals at info level.
func (s *RelayStats) LogSummary() {
	snap := s.Snapshot()
	s.log.Info("Relay stats",
		"broadcasts", snap.Broadcasts,
		"delivered", snap.Delivered,
		"skipped_by_moderation", snap.SkippedByModeration,
		"translation_fallbacks", snap.TranslationFallbacks,
		"transport_failures", snap.TransportFailures,
		"censorship_hits", snap.CensorshipHits,
		"online", snap.OnlineConnections,
		"mem_mb", snap.AllocMemMb,
	)
}

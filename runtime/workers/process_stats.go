package workers

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ConnectionCounter reports how many connections are live.
type ConnectionCounter interface {
	Len() int
}

// ProcessStatsWorker samples RSS, CPU and the number of live connections.
type ProcessStatsWorker struct {
	log            *slog.Logger
	connections    ConnectionCounter
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewProcessStatsWorker(log *slog.Logger, connections ConnectionCounter,
	telemetryChan chan event.Event, metricInterval time.Duration) *ProcessStatsWorker {
	return &ProcessStatsWorker{
		log:            log,
		connections:    connections,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w *ProcessStatsWorker) Run(ctx context.Context) error {
	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}
			select {
			case w.telemetryChan <- event.New(event.ProcessStatsType, event.ProcessStats{
				PID:         pid,
				Cpu:         cpu,
				Ram:         rss,
				Connections: w.connections.Len(),
			}):
			default:
				w.log.Debug("Telemetry event lost", "type", event.ProcessStatsType)
			}
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}

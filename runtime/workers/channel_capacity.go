package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// OutboundGaugeName names the sample of the fullest connection queue.
const OutboundGaugeName = "outbound_fullest"

// Gauge reads the fill of one bounded queue of the relay.
type Gauge struct {
	Name     string
	Length   func() int
	Capacity int
}

// ChannelGauge watches a buffered channel. len never blocks, so sampling
// does not interfere with the goroutines using ch.
func ChannelGauge[T any](name string, ch chan T) Gauge {
	return Gauge{Name: name, Length: func() int { return len(ch) }, Capacity: cap(ch)}
}

// Backlogged is implemented by transports exposing their outbound queue.
type Backlogged interface {
	Backlog() (length, capacity int)
}

type TransportLister interface {
	Transports() []contract.Transport
}

// ChannelCapacityWorker samples the relay queues every metricInterval: the
// fixed gauges, then the outbound queue of the connection closest to full.
// That one is the next recipient to be dropped for reading too slowly.
// Samples that do not fit in the telemetry channel are dropped.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	gauges         []Gauge
	transports     TransportLister
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, gauges []Gauge, transports TransportLister,
	telemetryChan chan event.Event, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		gauges:         gauges,
		transports:     transports,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			for _, sample := range w.sample() {
				select {
				case <-ctx.Done():
					return nil
				case w.telemetryChan <- event.New(event.ChannelCapacityType, sample):
				default:
					w.log.Debug("Telemetry event lost", "type", event.ChannelCapacityType, "queue", sample.ChannelName)
				}
			}
		}
	}
}

func (w ChannelCapacityWorker) sample() []event.ChannelCapacity {
	samples := lo.Map(w.gauges, func(g Gauge, _ int) event.ChannelCapacity {
		return event.ChannelCapacity{ChannelName: g.Name, Capacity: g.Capacity, Length: g.Length()}
	})
	if w.transports == nil {
		return samples
	}

	var fullest *event.ChannelCapacity
	for _, transport := range w.transports.Transports() {
		backlogged, ok := transport.(Backlogged)
		if !ok {
			continue
		}
		length, capacity := backlogged.Backlog()
		if fullest == nil || capacity-length < fullest.Capacity-fullest.Length {
			fullest = &event.ChannelCapacity{ChannelName: OutboundGaugeName, Capacity: capacity, Length: length}
		}
	}
	if fullest != nil {
		samples = append(samples, *fullest)
	}
	return samples
}

package aggregator

import (
	"context"

	"tech-trends/config"
	"tech-trends/eventbus"
	"tech-trends/events"
	"tech-trends/metrics"
	"tech-trends/store"
)

// Publisher is the DocumentStore used by the aggregators. It records store
// metrics and announces every published markdown document on the event bus.
// Event failures are logged and never reach the caller.
type Publisher struct {
	store   store.DocumentStore
	bus     eventbus.EventBus
	stage   string
	backend string
}

func NewPublisher(s store.DocumentStore, bus eventbus.EventBus, stage string) *Publisher {
	if bus == nil {
		bus = eventbus.NoopEventBus{}
	}
	return &Publisher{store: s, bus: bus, stage: stage, backend: backendName(bus)}
}

func backendName(bus eventbus.EventBus) string {
	switch bus.(type) {
	case *eventbus.KafkaEventBus:
		return "kafka"
	case *eventbus.NATSEventBus:
		return "nats"
	case eventbus.NoopEventBus:
		return "none"
	default:
		return "custom"
	}
}

func (p *Publisher) Read(ctx context.Context, addr store.Address) ([]byte, bool, error) {
	data, found, err := p.store.Read(ctx, addr)
	status := "found"
	switch {
	case err != nil:
		status = "error"
	case !found:
		status = "not_found"
	}
	metrics.StoreOperationsTotal.WithLabelValues("read", string(addr.Kind), status).Inc()
	return data, found, err
}

func (p *Publisher) Write(ctx context.Context, addr store.Address, content []byte) error {
	if err := p.store.Write(ctx, addr, content); err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("write", string(addr.Kind), "error").Inc()
		return err
	}
	metrics.StoreOperationsTotal.WithLabelValues("write", string(addr.Kind), "success").Inc()

	if !addr.IsData() {
		evt := events.NewArtifactPublishedEvent(p.stage, string(addr.Kind), addr.Period(), string(addr.Area), addr.Key())
		p.emit(ctx, evt.ID, evt)
	}
	return nil
}

// RunCompleted announces the end of a run.
func (p *Publisher) RunCompleted(ctx context.Context, evt events.RunCompletedEvent) {
	p.emit(ctx, evt.ID, evt)
}

func (p *Publisher) emit(ctx context.Context, id string, evt any) {
	data, typ, err := events.SerializeEvent(evt)
	if err != nil {
		config.Logger.Errorf("failed to serialize event: %v", err)
		return
	}
	if err := p.bus.Publish(ctx, eventbus.Event{ID: id, Type: string(typ), Payload: data}); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(p.backend, "error").Inc()
		config.WarnWithFields("event publish failed", config.Fields{"type": typ, "id": id, "error": err.Error()})
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(p.backend, "success").Inc()
}

package events

import (
	"context"
	"time"

	"MarketPulse/internal/domain/models"
	pkgkafka "MarketPulse/pkg/kafka"
	pkgmetrics "MarketPulse/pkg/metrics"
)

// Publisher fans newly created signals out to downstream consumers.
type Publisher interface {
	PublishSignal(ctx context.Context, sig *models.Signal) error
	Close() error
}

// SignalEvent is the wire shape of a published signal.
type SignalEvent struct {
	AssetID    string    `json:"asset_id"`
	TS         time.Time `json:"ts"`
	Type       string    `json:"type"`
	Strength   string    `json:"strength"`
	Confidence float64   `json:"confidence"`
	Strategy   string    `json:"strategy"`
	Rationale  string    `json:"rationale"`
}

// KafkaPublisher publishes signal events to a Kafka topic, keyed by asset so
// per-asset ordering is preserved.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	rec      *pkgmetrics.Recorder
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// SetRecorder injects an application metrics recorder.
func (p *KafkaPublisher) SetRecorder(rec *pkgmetrics.Recorder) { p.rec = rec }

func (p *KafkaPublisher) PublishSignal(ctx context.Context, sig *models.Signal) error {
	ev := SignalEvent{
		AssetID:    sig.AssetID,
		TS:         sig.TS,
		Type:       string(sig.Type),
		Strength:   string(sig.Strength),
		Confidence: sig.Confidence,
		Strategy:   sig.Strategy,
		Rationale:  sig.Rationale,
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(sig.AssetID), ev); err != nil {
		if p.rec != nil {
			p.rec.RecordError("event_publish")
		}
		return err
	}
	if p.rec != nil {
		p.rec.RecordEventPublished(p.topic, sig.AssetID)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// NopPublisher is used when event publication is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishSignal(context.Context, *models.Signal) error { return nil }
func (NopPublisher) Close() error                                        { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)

package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tech-trends/config"
)

// Event는 버스로 전달되는 메시지 봉투입니다.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventBus 인터페이스는 이벤트 발행의 추상화를 정의합니다.
// 이 서비스는 알림만 내보내므로 구독은 외부 컨슈머의 몫입니다.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NewJSONEvent는 payload를 JSON으로 인코딩하여 Event를 구성합니다.
// id가 빈 문자열이면 UUID를 생성합니다.
func NewJSONEvent(id, eventType string, payload any) (Event, error) {
	if id == "" {
		id = uuid.NewString()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("payload marshal 실패: %w", err)
	}
	return Event{ID: id, Type: eventType, Payload: b}, nil
}

// DecodeJSON은 Event.Payload를 제네릭 타입으로 언마샬합니다.
func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("payload unmarshal 실패: %w", err)
	}
	return out, nil
}

// New는 설정된 backend에 맞는 EventBus를 만듭니다. "none" 또는 빈 값이면 NoopEventBus.
func New(ctx context.Context, cfg config.EventsConfig) (EventBus, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return NoopEventBus{}, nil
	case "kafka":
		if cfg.Kafka.Brokers == "" {
			return nil, fmt.Errorf("events.kafka.brokers is required")
		}
		if err := EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 1); err != nil {
			config.Logger.Warnf("kafka 토픽 확인 실패, 계속 진행합니다: %v", err)
		}
		return NewKafkaEventBus(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	case "nats":
		return NewNATSEventBus(cfg.NATS)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NoopEventBus는 이벤트를 버립니다.
type NoopEventBus struct{}

func (NoopEventBus) Publish(context.Context, Event) error { return nil }
func (NoopEventBus) Close()                              {}

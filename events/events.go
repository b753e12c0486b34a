package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	ArtifactPublished EventType = "artifact.published"
	RunCompleted      EventType = "run.completed"
)

const (
	SourceDaily   = "daily"
	SourceWeekly  = "weekly"
	SourceMonthly = "monthly"

	eventVersion = "1"
)

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "daily", "weekly", "monthly"
	Version   string    `json:"version"`
}

func newBase(t EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   eventVersion,
	}
}

// ArtifactPublishedEvent 문서 저장소에 산출물이 기록되었음을 알리는 이벤트
type ArtifactPublishedEvent struct {
	BaseEvent
	Kind   string `json:"kind"`
	Period string `json:"period"`
	Area   string `json:"area,omitempty"`
	Path   string `json:"path"`
}

func NewArtifactPublishedEvent(source, kind, period, area, path string) ArtifactPublishedEvent {
	return ArtifactPublishedEvent{
		BaseEvent: newBase(ArtifactPublished, source),
		Kind:      kind,
		Period:    period,
		Area:      area,
		Path:      path,
	}
}

// RunCompletedEvent 집계 실행 종료 이벤트
type RunCompletedEvent struct {
	BaseEvent
	Period    string `json:"period"`
	Status    string `json:"status"`
	Published int    `json:"published"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

func NewRunCompletedEvent(source, period, status string) RunCompletedEvent {
	return RunCompletedEvent{
		BaseEvent: newBase(RunCompleted, source),
		Period:    period,
		Status:    status,
	}
}

// SerializeEvent 이벤트를 JSON으로 직렬화하고 타입 정보 반환
func SerializeEvent(event interface{}) ([]byte, EventType, error) {
	var eventType EventType

	switch e := event.(type) {
	case ArtifactPublishedEvent:
		eventType = e.Type
	case RunCompletedEvent:
		eventType = e.Type
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", event)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, eventType, nil
}

// DeserializeEvent 이벤트 타입에 따라 적절한 구조체로 역직렬화
func DeserializeEvent(eventType EventType, data []byte) (interface{}, error) {
	var event interface{}

	switch eventType {
	case ArtifactPublished:
		event = &ArtifactPublishedEvent{}
	case RunCompleted:
		event = &RunCompletedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

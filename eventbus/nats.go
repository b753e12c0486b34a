package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"tech-trends/config"
)

// NATSEventBus는 NATS JetStream 스트림에 이벤트를 발행합니다.
type NATSEventBus struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

func NewNATSEventBus(cfg config.NATSConfig) (*NATSEventBus, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("events.nats.subject is required")
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("tech-trends"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, fmt.Errorf("NATS 연결 실패: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("JetStream 컨텍스트 생성 실패: %w", err)
	}

	bus := &NATSEventBus{nc: nc, js: js, subject: cfg.Subject}
	if cfg.Stream != "" {
		if err := bus.ensureStream(cfg.Stream); err != nil {
			nc.Close()
			return nil, err
		}
	}
	config.Logger.Infof("NATS JetStream 연결됨: %s (subject %s)", cfg.URL, cfg.Subject)
	return bus, nil
}

// ensureStream은 subject를 담는 스트림이 없으면 생성합니다.
func (n *NATSEventBus) ensureStream(name string) error {
	if _, err := n.js.StreamInfo(name); err == nil {
		return nil
	}
	_, err := n.js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{n.subject},
		Retention: nats.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   nats.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("스트림 %s 생성 실패: %w", name, err)
	}
	config.Logger.Infof("스트림 생성됨: %s", name)
	return nil
}

// Publish는 이벤트 ID를 메시지 ID로 사용하므로 같은 이벤트의 재발행은 JetStream에서 중복 제거됩니다.
func (n *NATSEventBus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("이벤트 마샬링 실패: %w", err)
	}
	if _, err := n.js.Publish(n.subject, data, nats.Context(ctx), nats.MsgId(event.ID)); err != nil {
		return fmt.Errorf("NATS 발행 실패: %w", err)
	}
	return nil
}

func (n *NATSEventBus) Close() {
	if n.nc == nil {
		return
	}
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
	}
	config.Logger.Info("NATS 연결 종료.")
}

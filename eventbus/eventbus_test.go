package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-trends/config"
)

type payload struct {
	Path string `json:"path"`
}

func TestJSONEventRoundTrip(t *testing.T) {
	evt, err := NewJSONEvent("", "artifact.published", payload{Path: "2025-W05/Summary.md"})
	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "artifact.published", evt.Type)

	got, err := DecodeJSON[payload](evt)
	require.NoError(t, err)
	assert.Equal(t, "2025-W05/Summary.md", got.Path)

	fixed, err := NewJSONEvent("evt-1", "x", payload{})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", fixed.ID)

	_, err = DecodeJSON[payload](Event{Payload: []byte("not json")})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	bus, err := New(ctx, config.EventsConfig{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, NoopEventBus{}, bus)
	assert.NoError(t, bus.Publish(ctx, Event{ID: "1"}))
	bus.Close()

	_, err = New(ctx, config.EventsConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = New(ctx, config.EventsConfig{Backend: "nats"})
	assert.Error(t, err)

	_, err = New(ctx, config.EventsConfig{Backend: "pigeon"})
	assert.Error(t, err)
}

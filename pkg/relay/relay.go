// Package relay bridges the in-process trigger bus onto a watermill
// publisher so other platform services can observe lifecycle events.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
)

// Topic carries relayed trigger events.
const Topic = "playbook.triggers"

const eventTypeMetadataKey = "event_type"

// Relay forwards every trigger event emitted on the bus to an external
// channel. Publish failures are logged by the bus's handler isolation and
// never disturb in-process consumers.
type Relay struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewRelay(publisher message.Publisher, logger *slog.Logger) *Relay {
	return &Relay{
		publisher: publisher,
		logger:    logger.With("module", "trigger_relay"),
	}
}

// Attach registers the relay as a catch-all handler on the bus.
func (r *Relay) Attach(bus *triggerbus.Bus) {
	bus.RegisterAll(r.forward)
}

func (r *Relay) forward(_ context.Context, event models.TriggerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+watermill.NewULID(), payload)
	msg.Metadata.Set(eventTypeMetadataKey, string(event.EventType))

	return r.publisher.Publish(Topic, msg)
}

// Close releases the underlying publisher.
func (r *Relay) Close() error {
	return r.publisher.Close()
}

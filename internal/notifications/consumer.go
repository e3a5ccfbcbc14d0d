package notifications

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/handcar/handcar-backend/pkg/enums"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/outbox"
	"github.com/handcar/handcar-backend/pkg/outbox/idempotency"
)

const notificationConsumer = "notifications"

type eventHandler interface {
	Handle(ctx context.Context, eventType enums.OutboxEventType, body []byte) error
}

type eventClaimer interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (idempotency.State, error)
	Complete(ctx context.Context, consumer string, eventID uuid.UUID) error
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer receives published outbox events and feeds them to the handler.
type Consumer struct {
	subscription *pubsub.Subscriber
	handler      eventHandler
	idempotency  eventClaimer
	logg         *logger.Logger
}

// NewConsumer builds the notifications consumer.
func NewConsumer(subscription *pubsub.Subscriber, handler eventHandler, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notifications subscription required")
	}
	if handler == nil {
		return nil, fmt.Errorf("notifications handler required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		handler:      handler,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acknowledged.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := enums.OutboxEventType(attrs["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType.String(),
	})

	envelope, err := outbox.ParseEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	state, err := c.idempotency.Claim(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency claim failed", err)
		return false
	}
	switch state {
	case idempotency.Done:
		c.logg.Info(logCtx, "event already processed")
		return true
	case idempotency.InFlight:
		c.logg.Info(logCtx, "event in flight on another delivery; retrying later")
		return false
	}

	if err := c.handler.Handle(logCtx, eventType, data); err != nil {
		if !IsPermanent(err) {
			c.logg.Error(logCtx, "notification handling failed", err)
			if relErr := c.idempotency.Release(ctx, notificationConsumer, eventID); relErr != nil {
				c.logg.Error(logCtx, "failed to release idempotency claim", relErr)
			}
			return false
		}
		c.logg.Error(logCtx, "dropping undeliverable event", err)
	}
	if err := c.idempotency.Complete(ctx, notificationConsumer, eventID); err != nil {
		// the lease still expires, so a redelivery may send once more
		c.logg.Error(logCtx, "failed to mark event processed", err)
	}
	return true
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/outbox/registry"
)

// delivery tracks one row from fetch to settlement.
type delivery struct {
	event  models.OutboxEvent
	fields map[string]any
	result publishResult
	err    error
	// park is set when the row must not be retried.
	park string
}

// processBatch claims a batch, hands every message to Pub/Sub before waiting
// on any of them so the client can batch sends, then settles each row in the
// same transaction. Reports whether any row was fetched.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublished(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch unpublished: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		processed = true

		publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()

		deliveries := make([]*delivery, 0, len(events))
		for _, event := range events {
			deliveries = append(deliveries, s.send(publishCtx, event))
		}
		for _, d := range deliveries {
			if err := s.settle(ctx, publishCtx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

func (s *Service) send(ctx context.Context, event models.OutboxEvent) *delivery {
	d := &delivery{event: event, fields: eventFields(event)}

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		d.err, d.park = err, "unresolvable"
		return d
	}
	topic := resolved.Descriptor.Topic
	d.fields["topic"] = topic
	d.fields["event_id"] = resolved.Envelope.EventID

	pub := s.publisherFactory(topic)
	if pub == nil {
		d.err, d.park = fmt.Errorf("publisher not configured for topic %s", topic), "no_publisher"
		return d
	}
	d.result = pub.Publish(ctx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if d.result == nil {
		d.err, d.park = fmt.Errorf("publisher returned no result for topic %s", topic), "no_publisher"
	}
	return d
}

func (s *Service) settle(ctx, publishCtx context.Context, tx *gorm.DB, d *delivery) error {
	if d.park == "" && d.result != nil {
		_, d.err = d.result.Get(publishCtx)
	}
	id := d.event.ID

	if d.err == nil {
		if err := s.repo.MarkPublished(tx, id); err != nil {
			return fmt.Errorf("mark published %s: %w", id, err)
		}
		s.metrics.IncOutboxPublished("published")
		s.logg.Info(s.logg.WithFields(ctx, d.fields), "outbox event published")
		return nil
	}

	var nonRetryable registry.NonRetryableError
	attempt := d.event.AttemptCount + 1
	d.fields["attempt_count"] = attempt
	switch {
	case d.park != "":
	case errors.As(d.err, &nonRetryable):
		d.park = "non_retryable"
	case attempt >= s.maxAttempts:
		d.park = "max_attempts"
		d.err = fmt.Errorf("max publish attempts reached: %w", d.err)
	}

	logCtx := s.logg.WithField(s.logg.WithFields(ctx, d.fields), "error", d.err.Error())
	if d.park == "" {
		s.logg.Warn(logCtx, "outbox publish failed, will retry")
		s.metrics.IncOutboxPublished("retry")
		if err := s.repo.MarkFailed(tx, id, d.err); err != nil {
			return fmt.Errorf("mark failure %s: %w", id, err)
		}
		return nil
	}

	// parked rows keep payload and last_error for manual replay
	s.logg.Warn(s.logg.WithField(logCtx, "terminal_reason", d.park), "outbox event parked")
	s.metrics.IncOutboxPublished("terminal")
	if err := s.repo.MarkTerminal(tx, id, d.err, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", id, err)
	}
	return nil
}

func eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

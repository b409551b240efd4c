package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

// processBatch locks up to batchSize rows and settles each of them inside one
// transaction. It reports whether any row was fetched.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		s.metrics.ObserveBatch(len(events))
		processed = len(events) > 0
		for _, event := range events {
			if err := s.deliver(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

// delivery carries one row through publish and settlement.
type delivery struct {
	event  models.OutboxEvent
	topic  string
	fields map[string]any
}

// deliver publishes one row and records the outcome on it. Publish failures
// end up on the row; only bookkeeping failures are returned.
func (s *Service) deliver(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	d := delivery{event: event, fields: eventFields(event, s.batchSize)}

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return s.park(ctx, tx, d, enums.OutboxDLQReasonNonRetryable, err)
	}
	d.topic = resolved.Descriptor.Topic
	d.fields["topic"] = d.topic
	d.fields["event_id"] = resolved.Envelope.EventID
	d.fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)

	if !s.claim(ctx, d) {
		if h, ok := s.claims.(claimHolder); ok {
			if owner, err := h.Holder(ctx, claimPublisher, event.ID); err == nil && owner != "" {
				d.fields["claimed_by"] = owner
			}
		}
		return s.markPublished(ctx, tx, d, metrics.OutboxDuplicate, "outbox event already delivered")
	}

	pubErr := s.publish(ctx, resolved, event)
	if pubErr == nil {
		return s.markPublished(ctx, tx, d, metrics.OutboxPublished, "outbox event published")
	}
	s.release(ctx, d)

	var nonRetry registry.NonRetryableError
	if errors.As(pubErr, &nonRetry) {
		return s.park(ctx, tx, d, enums.OutboxDLQReasonNonRetryable, pubErr)
	}
	attempt := event.AttemptCount + 1
	d.fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		return s.park(ctx, tx, d, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", pubErr))
	}

	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, d.fields), "error", pubErr.Error()), "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	s.metrics.Record(string(event.EventType), metrics.OutboxFailed)
	return nil
}

func (s *Service) markPublished(ctx context.Context, tx *gorm.DB, d delivery, result, msg string) error {
	if err := s.repo.MarkPublishedTx(tx, d.event.ID); err != nil {
		return fmt.Errorf("mark published %s: %w", d.event.ID, err)
	}
	s.metrics.Record(string(d.event.EventType), result)
	s.logg.Info(s.logg.WithFields(ctx, d.fields), msg)
	return nil
}

// park copies the row into the dead letter table and stops retrying it.
func (s *Service) park(ctx context.Context, tx *gorm.DB, d delivery, reason enums.OutboxDLQErrorReason, cause error) error {
	d.fields["error_reason"] = reason
	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, d.fields), "error", cause.Error()), "outbox event will not be retried")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       d.event.ID,
		EventType:     d.event.EventType,
		AggregateType: d.event.AggregateType,
		AggregateID:   d.event.AggregateID,
		Payload:       d.event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  d.event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", d.event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, d.event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", d.event.ID, err)
	}
	s.metrics.Record(string(d.event.EventType), metrics.OutboxTerminal)
	return nil
}

// claim reports whether this instance may deliver the event. A failing claim
// store does not block delivery.
func (s *Service) claim(ctx context.Context, d delivery) bool {
	if s.claims == nil {
		return true
	}
	ok, err := s.claims.Claim(ctx, claimPublisher, d.event.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, d.fields), "error", err.Error()), "outbox delivery claim failed")
		return true
	}
	return ok
}

func (s *Service) release(ctx context.Context, d delivery) {
	if s.claims == nil {
		return
	}
	if err := s.claims.Release(ctx, claimPublisher, d.event.ID); err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, d.fields), "error", err.Error()), "outbox delivery claim release failed")
	}
}

// publish sends the stored envelope unchanged; routing metadata travels as attributes.
func (s *Service) publish(ctx context.Context, resolved *registry.ResolvedEvent, event models.OutboxEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFactory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: messageAttributes(resolved.Envelope.EventID, event),
	})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

func messageAttributes(eventID string, event models.OutboxEvent) map[string]string {
	return map[string]string{
		"event_id":       eventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID,
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
}

func eventFields(event models.OutboxEvent, batchSize int) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"batch_size":     batchSize,
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

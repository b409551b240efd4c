package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

// publisherFixture wires a Service to in-memory fakes.
type publisherFixture struct {
	svc    *Service
	repo   *fakeRepo
	pub    *fakePublisher
	dlq    *fakeDLQRepo
	topics []string
}

func newPublisherFixture(t *testing.T, maxAttempts int, resolveErr error, results ...publishResult) *publisherFixture {
	t.Helper()
	f := &publisherFixture{
		repo: &fakeRepo{},
		pub:  &fakePublisher{results: results},
		dlq:  &fakeDLQRepo{},
	}
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: maxAttempts}},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         fakeDB{},
		PubSub:     fakePubSubClient{},
		Repository: f.repo,
		Registry:   fakeRegistry{err: resolveErr},
		PublisherFactory: func(topic string) publisher {
			f.topics = append(f.topics, topic)
			return f.pub
		},
		DLQRepository: f.dlq,
		Metrics:       metrics.NewOutboxMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *publisherFixture) queue(t *testing.T, eventType enums.OutboxEventType, attempts int) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: eventType.Aggregate(),
		AggregateID:   "42",
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.repo.events = append(f.repo.events, event)
	return event
}

func (f *publisherFixture) run(t *testing.T) {
	t.Helper()
	processed, err := f.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.ErrorContains(t, err, "config is required")

	svc, err := NewService(ServiceParams{
		Config:        &config.Config{},
		Logger:        logger.New(logger.Options{Output: io.Discard}),
		DB:            fakeDB{},
		PubSub:        fakePubSubClient{},
		Repository:    &fakeRepo{},
		Registry:      fakeRegistry{},
		DLQRepository: &fakeDLQRepo{},
	})
	require.NoError(t, err)
	require.Equal(t, defaultBatchSize, svc.batchSize)
	require.Equal(t, defaultMaxAttempts, svc.maxAttempts)
	require.Equal(t, defaultPollMs*time.Millisecond, svc.pollInterval)
	require.Nil(t, svc.publisherFactory("orders"), "client without a publisher yields none")
}

func TestProcessBatchReportsEmptyBatch(t *testing.T) {
	f := newPublisherFixture(t, 5, nil)
	processed, err := f.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
}

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	f := newPublisherFixture(t, 5, nil, fakePublishResult{err: errors.New("transient")}, fakePublishResult{})
	first := f.queue(t, enums.EventOrderCreated, 0)
	second := f.queue(t, enums.EventOrderCreated, 0)

	f.run(t)

	require.Equal(t, []uuid.UUID{first.ID}, f.repo.failed)
	require.Equal(t, []uuid.UUID{second.ID}, f.repo.published)
	require.Empty(t, f.dlq.entries)
}

func TestPublishCarriesEnvelopeAndAttributes(t *testing.T) {
	f := newPublisherFixture(t, 5, nil, fakePublishResult{})
	event := f.queue(t, enums.EventProductPriceChanged, 0)

	f.run(t)

	require.Equal(t, []string{"topic-product"}, f.topics)
	require.Len(t, f.pub.messages, 1)
	msg := f.pub.messages[0]
	require.Equal(t, []byte(event.Payload), msg.Data)
	require.Equal(t, map[string]string{
		"event_id":       "envelope-" + event.ID.String(),
		"event_type":     "product_price_changed",
		"aggregate_type": "product",
		"aggregate_id":   "42",
		"created_at":     "2026-01-02T03:04:05Z",
	}, msg.Attributes)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
}

func TestProcessBatchParksEvents(t *testing.T) {
	cases := []struct {
		name        string
		maxAttempts int
		attempts    int
		resolveErr  error
		noPublisher bool
		results     []publishResult
		reason      enums.OutboxDLQErrorReason
	}{
		{
			name:        "unresolvable payload",
			maxAttempts: 5,
			resolveErr:  registry.NewNonRetryableError(errors.New("invalid payload")),
			reason:      enums.OutboxDLQReasonNonRetryable,
		},
		{
			name:        "missing publisher",
			maxAttempts: 5,
			noPublisher: true,
			reason:      enums.OutboxDLQReasonNonRetryable,
		},
		{
			name:        "attempts exhausted",
			maxAttempts: 2,
			attempts:    1,
			results:     []publishResult{fakePublishResult{err: errors.New("transient")}},
			reason:      enums.OutboxDLQReasonMaxAttempts,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPublisherFixture(t, tc.maxAttempts, tc.resolveErr, tc.results...)
			if tc.noPublisher {
				f.svc.publisherFactory = func(string) publisher { return nil }
			}
			event := f.queue(t, enums.EventOrderCreated, tc.attempts)

			f.run(t)

			require.Len(t, f.dlq.entries, 1)
			entry := f.dlq.entries[0]
			require.Equal(t, event.ID, entry.EventID)
			require.Equal(t, event.AggregateID, entry.AggregateID)
			require.Equal(t, []byte(event.Payload), []byte(entry.Payload))
			require.Equal(t, tc.reason, entry.ErrorReason)
			require.NotNil(t, entry.ErrorMessage)
			require.Equal(t, []uuid.UUID{event.ID}, f.repo.terminal)
			require.Empty(t, f.repo.published)
		})
	}
}

func TestClaimsPreventDoubleDelivery(t *testing.T) {
	f := newPublisherFixture(t, 5, nil)
	event := f.queue(t, enums.EventOrderCreated, 0)
	claims := &fakeClaims{taken: map[uuid.UUID]bool{event.ID: true}}
	f.svc.claims = claims

	f.run(t)

	require.Empty(t, f.pub.messages, "claimed event must not be published again")
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
}

func TestClaimReleasedAfterFailedPublish(t *testing.T) {
	f := newPublisherFixture(t, 5, nil, fakePublishResult{err: errors.New("transient")})
	event := f.queue(t, enums.EventOrderCreated, 0)
	claims := &fakeClaims{taken: map[uuid.UUID]bool{}}
	f.svc.claims = claims

	f.run(t)

	require.Equal(t, []uuid.UUID{event.ID}, f.repo.failed)
	require.False(t, claims.taken[event.ID])
	require.Equal(t, []uuid.UUID{event.ID}, claims.released)
}

func TestClaimStoreOutageDoesNotBlockDelivery(t *testing.T) {
	f := newPublisherFixture(t, 5, nil, fakePublishResult{})
	event := f.queue(t, enums.EventOrderCreated, 0)
	f.svc.claims = &fakeClaims{err: errors.New("redis down")}

	f.run(t)

	require.Len(t, f.pub.messages, 1)
	require.Equal(t, []uuid.UUID{event.ID}, f.repo.published)
}

func TestBackoffAndJitter(t *testing.T) {
	base := 500 * time.Millisecond
	require.Equal(t, time.Second, nextBackoff(0, base, maxBackoff))
	require.Equal(t, maxBackoff, nextBackoff(8*time.Second, base, maxBackoff))

	for range 20 {
		got := withJitter(base)
		require.GreaterOrEqual(t, got, base)
		require.Less(t, got, base+jitterWindow)
	}
	require.Zero(t, withJitter(0))
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	f := newPublisherFixture(t, 5, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, f.svc.Run(ctx), context.Canceled)
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, _, _ int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePubSubClient struct{}

func (fakePubSubClient) Ping(context.Context) error { return nil }

func (fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", f.err
}

// fakeRegistry resolves every event onto "topic-<aggregate>".
type fakeRegistry struct {
	err error
}

func (f fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "topic-" + string(event.AggregateType),
			AggregateType: event.AggregateType,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    "envelope-" + event.ID.String(),
			OccurredAt: time.Now(),
		},
	}, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeClaims struct {
	taken    map[uuid.UUID]bool
	released []uuid.UUID
	err      error
}

func (f *fakeClaims) Claim(_ context.Context, publisher string, eventID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if publisher != claimPublisher {
		return false, errors.New("unexpected publisher name")
	}
	if f.taken[eventID] {
		return false, nil
	}
	f.taken[eventID] = true
	return true, nil
}

func (f *fakeClaims) Release(_ context.Context, _ string, eventID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	delete(f.taken, eventID)
	f.released = append(f.released, eventID)
	return nil
}

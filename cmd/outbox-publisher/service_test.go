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
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/law23sum/trader-exchange/pkg/config"
	"github.com/law23sum/trader-exchange/pkg/db/models"
	"github.com/law23sum/trader-exchange/pkg/enums"
	"github.com/law23sum/trader-exchange/pkg/logger"
	"github.com/law23sum/trader-exchange/pkg/metrics"
	"github.com/law23sum/trader-exchange/pkg/outbox"
	"github.com/law23sum/trader-exchange/pkg/outbox/payloads"
	"github.com/law23sum/trader-exchange/pkg/outbox/registry"
)

type harness struct {
	svc  *Service
	repo *fakeRepo
	dlq  *fakeDLQRepo
	pub  *fakePublisher
	reg  *prometheus.Registry
}

func newHarness(t *testing.T, events []models.OutboxEvent, results []publishResult, resolver registryResolver) *harness {
	t.Helper()
	h := &harness{
		repo: &fakeRepo{events: events},
		dlq:  &fakeDLQRepo{},
		pub:  &fakePublisher{results: results},
		reg:  prometheus.NewRegistry(),
	}
	if resolver == nil {
		resolver = &fakeRegistry{topic: "marketplace-events"}
	}
	svc, err := NewService(ServiceParams{
		Config:           config.OutboxConfig{BatchSize: 10, PollIntervalMS: 100, MaxAttempts: 3},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       h.repo,
		DLQRepository:    h.dlq,
		Registry:         resolver,
		PublisherFactory: func(string) publisher { return h.pub },
		Metrics:          metrics.NewOutboxMetrics(h.reg),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) count(eventType enums.OutboxEventType, result string) float64 {
	families, err := h.reg.Gather()
	if err != nil {
		return -1
	}
	for _, family := range families {
		if family.GetName() != "outbox_events_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric, string(eventType), result) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, eventType, result string) bool {
	want := map[string]string{"event_type": eventType, "result": result}
	for _, label := range metric.GetLabel() {
		if expected, ok := want[label.GetName()]; ok && expected != label.GetValue() {
			return false
		}
	}
	return true
}

func orderEvent(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCompleted,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t),
		AttemptCount:  attempts,
	}
}

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	events := []models.OutboxEvent{orderEvent(t, 0), orderEvent(t, 0)}
	h := newHarness(t, events, []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}, nil)

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{events[0].ID}, h.repo.failed)
	assert.Equal(t, []uuid.UUID{events[1].ID}, h.repo.published)
	assert.Empty(t, h.dlq.entries)
	assert.Equal(t, float64(1), h.count(enums.EventOrderCompleted, metrics.OutboxResultRetry))
	assert.Equal(t, float64(1), h.count(enums.EventOrderCompleted, metrics.OutboxResultPublished))
}

func TestProcessBatchDeadLettersUnresolvableRows(t *testing.T) {
	event := orderEvent(t, 0)
	h := newHarness(t, []models.OutboxEvent{event}, nil, &fakeRegistry{err: registry.NewNonRetryableError(errors.New("unsupported event type"))})

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	entry := h.dlq.entries[0]
	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, []uuid.UUID{event.ID}, h.repo.terminal)
	assert.Empty(t, h.repo.published)
}

func TestProcessBatchDeadLettersAtMaxAttempts(t *testing.T) {
	event := orderEvent(t, 2)
	h := newHarness(t, []models.OutboxEvent{event}, []publishResult{fakePublishResult{err: errors.New("still down")}}, nil)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, h.dlq.entries[0].ErrorReason)
	assert.Contains(t, *h.dlq.entries[0].ErrorMessage, "max publish attempts")
	assert.Empty(t, h.repo.failed)
	assert.Equal(t, float64(1), h.count(enums.EventOrderCompleted, metrics.OutboxResultDLQ))
}

func TestProcessBatchNilPublishResultIsTerminal(t *testing.T) {
	event := orderEvent(t, 0)
	h := newHarness(t, []models.OutboxEvent{event}, nil, nil)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
}

func TestProcessBatchReportsIdle(t *testing.T) {
	h := newHarness(t, nil, nil, nil)
	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestNextBackoffCaps(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(500*time.Millisecond, 500*time.Millisecond, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, 500*time.Millisecond, maxBackoff))
	assert.Equal(t, time.Second, nextBackoff(0, 500*time.Millisecond, maxBackoff))
}

func TestNewServiceRequiresDLQ(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{Output: io.Discard}),
		DB:         &fakeDB{},
		PubSub:     &fakePubSubClient{},
		Repository: &fakeRepo{},
		Registry:   &fakeRegistry{},
	})
	require.Error(t, err)
}

func mustEnvelopePayload(tb testing.TB) json.RawMessage {
	tb.Helper()
	data, err := json.Marshal(payloads.OrderCompletedEvent{})
	if err != nil {
		tb.Fatalf("marshal payload: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
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

func (f *fakeDB) Ping(context.Context) error { return nil }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error { return nil }

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results []publishResult
}

func (f *fakePublisher) Publish(context.Context, *gcppubsub.Message) publishResult {
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
	return "", f.err
}

type fakeRegistry struct {
	topic string
	err   error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			Topic:         f.topic,
		},
		Envelope: outbox.PayloadEnvelope{EventID: event.ID.String(), OccurredAt: time.Now()},
	}, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/event"
	"github.com/mvaleed/carfleet/internal/logging"
	"github.com/mvaleed/carfleet/internal/storage"
	"github.com/mvaleed/carfleet/internal/storage/memory"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))

type harness struct {
	deps    Deps
	logs    *bytes.Buffer
	events  *event.Recorder
	metrics *Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logs := &bytes.Buffer{}
	logger, err := logging.New(logs, "debug", "json")
	require.NoError(t, err)

	h := &harness{
		logs:    logs,
		events:  &event.Recorder{},
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	h.deps = Deps{
		Clock:     ClockFunc(func() time.Time { return testNow }),
		Logger:    logger,
		Publisher: h.events,
		Metrics:   h.metrics,
	}
	return h
}

// failures returns the log lines written by the error translator.
func (h *harness) failures(t *testing.T) []map[string]any {
	t.Helper()

	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(h.logs.Bytes()))
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		if _, ok := line["kind"]; ok {
			out = append(out, line)
		}
	}
	return out
}

// fakeBroker wraps an in-memory broker and lets tests inject storage failures.
type fakeBroker[T domain.Entity] struct {
	*memory.Broker[T]

	insertErr    error
	selectErr    error
	updateErr    error
	deleteErr    error
	selectAllErr error

	inserts      int
	updates      int
	deletes      int
	enumerations int
}

func newFakeBroker[T domain.Entity]() *fakeBroker[T] {
	return &fakeBroker[T]{Broker: memory.NewBroker[T]()}
}

func (b *fakeBroker[T]) Insert(ctx context.Context, record *T) (*T, error) {
	b.inserts++
	if b.insertErr != nil {
		return nil, b.insertErr
	}
	return b.Broker.Insert(ctx, record)
}

func (b *fakeBroker[T]) SelectAll(ctx context.Context) storage.Query[T] {
	inner := b.Broker.SelectAll(ctx)
	return storage.NewQuery(func(ctx context.Context) iter.Seq2[*T, error] {
		b.enumerations++
		if b.selectAllErr != nil {
			err := b.selectAllErr
			return func(yield func(*T, error) bool) { yield(nil, err) }
		}
		return inner.All(ctx)
	})
}

func (b *fakeBroker[T]) SelectByID(ctx context.Context, id uuid.UUID) (*T, error) {
	if b.selectErr != nil {
		return nil, b.selectErr
	}
	return b.Broker.SelectByID(ctx, id)
}

func (b *fakeBroker[T]) Update(ctx context.Context, record *T) (*T, error) {
	b.updates++
	if b.updateErr != nil {
		return nil, b.updateErr
	}
	return b.Broker.Update(ctx, record)
}

func (b *fakeBroker[T]) Delete(ctx context.Context, record *T) (*T, error) {
	b.deletes++
	if b.deleteErr != nil {
		return nil, b.deleteErr
	}
	return b.Broker.Delete(ctx, record)
}

func newCarType(name string, at time.Time) *domain.CarType {
	return &domain.CarType{Stamp: domain.NewStamp(uuid.New(), at), Name: name}
}

func newCar(at time.Time) *domain.Car {
	return &domain.Car{
		Stamp:             domain.NewStamp(uuid.New(), at),
		TypeID:            uuid.New(),
		ModelID:           uuid.New(),
		Color:             "white",
		Year:              2021,
		LambNumber:        "L-1001",
		EngineNumber:      "E-778899",
		HorsePower:        150,
		Number:            "01A123BC",
		TexPassportNumber: "AAF1234567",
		UserID:            uuid.New(),
	}
}

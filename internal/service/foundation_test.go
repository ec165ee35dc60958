package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/storage"
)

func requireKind(t *testing.T, err error, kind domain.Kind) *domain.EntityError {
	t.Helper()
	var ee *domain.EntityError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, kind, ee.Kind, ee.Error())
	return ee
}

func TestFoundation_Add_CarType(t *testing.T) {
	h := newHarness(t)
	broker := newFakeBroker[domain.CarType]()
	svc := NewFoundation(CarTypeDescriptor, broker, h.deps)
	ctx := context.Background()

	suv := newCarType("SUV", testNow)
	stored, err := svc.Add(ctx, suv)
	require.NoError(t, err)
	assert.Equal(t, suv, stored)

	got, err := svc.RetrieveByID(ctx, suv.ID)
	require.NoError(t, err)
	assert.Equal(t, suv, got)

	events := h.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventRecordAdded, events[0].Type)
	assert.Equal(t, "CarType", events[0].Entity)
	assert.Equal(t, suv.ID, events[0].RecordID)
	assert.Empty(t, h.failures(t))
}

func TestFoundation_Add_AggregatesViolations(t *testing.T) {
	h := newHarness(t)
	broker := newFakeBroker[domain.CarType]()
	svc := NewFoundation(CarTypeDescriptor, broker, h.deps)

	_, err := svc.Add(context.Background(), &domain.CarType{})
	ee := requireKind(t, err, domain.KindValidation)
	assert.Equal(t, "CarType", ee.Entity)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidEntity)

	fields := domain.Violations(err).Fields()
	assert.Equal(t, []string{"Id is required"}, fields["Id"])
	assert.Equal(t, []string{"Text is required"}, fields["Name"])
	assert.Contains(t, fields["CreatedDate"], "Date is required")
	assert.Contains(t, fields["CreatedDate"], "Date is not recent")
	assert.Contains(t, fields["UpdatedDate"], "Date is required")
	assert.GreaterOrEqual(t, len(domain.Violations(err)), 3)

	assert.Zero(t, broker.inserts, "nothing is written when validation fails")
	assert.Empty(t, h.events.Events())
}

func TestFoundation_Add_Nil(t *testing.T) {
	h := newHarness(t)
	svc := NewFoundation(CarTypeDescriptor, newFakeBroker[domain.CarType](), h.deps)

	_, err := svc.Add(context.Background(), nil)
	requireKind(t, err, domain.KindValidation)
	assert.ErrorIs(t, err, domain.ErrNullEntity)
}

func TestFoundation_Add_EachRequiredCarField(t *testing.T) {
	tests := []struct {
		field string
		clear func(c *domain.Car)
	}{
		{"Id", func(c *domain.Car) { c.ID = uuid.Nil }},
		{"TypeId", func(c *domain.Car) { c.TypeID = uuid.Nil }},
		{"ModelId", func(c *domain.Car) { c.ModelID = uuid.Nil }},
		{"Color", func(c *domain.Car) { c.Color = " " }},
		{"LambNumber", func(c *domain.Car) { c.LambNumber = "" }},
		{"EngineNumber", func(c *domain.Car) { c.EngineNumber = "" }},
		{"Number", func(c *domain.Car) { c.Number = "\t" }},
		{"TexPassportNumber", func(c *domain.Car) { c.TexPassportNumber = "" }},
		{"UserId", func(c *domain.Car) { c.UserID = uuid.Nil }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			h := newHarness(t)
			svc := NewFoundation(CarDescriptor, newFakeBroker[domain.Car](), h.deps)

			car := newCar(testNow)
			tt.clear(car)

			_, err := svc.Add(context.Background(), car)
			requireKind(t, err, domain.KindValidation)

			violations := domain.Violations(err)
			require.Len(t, violations, 1)
			assert.Equal(t, tt.field, violations[0].Field)
		})
	}
}

func TestFoundation_Add_Timestamps(t *testing.T) {
	tests := []struct {
		name    string
		created time.Time
		updated time.Time
		field   string
		message string
	}{
		{
			name:    "created more than a minute ago",
			created: testNow.Add(-61 * time.Second),
			updated: testNow.Add(-61 * time.Second),
			field:   "CreatedDate",
			message: "Date is not recent",
		},
		{
			name:    "created in the future",
			created: testNow.Add(time.Millisecond),
			updated: testNow.Add(time.Millisecond),
			field:   "CreatedDate",
			message: "Date is not recent",
		},
		{
			name:    "updated differs from created",
			created: testNow,
			updated: testNow.Add(-time.Second),
			field:   "UpdatedDate",
			message: "Date is not the same as CreatedDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			svc := NewFoundation(CarTypeDescriptor, newFakeBroker[domain.CarType](), h.deps)

			ct := newCarType("Sedan", tt.created)
			ct.UpdatedDate = tt.updated

			_, err := svc.Add(context.Background(), ct)
			requireKind(t, err, domain.KindValidation)
			assert.Equal(t, domain.ValidationErrors{{Field: tt.field, Message: tt.message}}, domain.Violations(err))
		})
	}
}

func TestFoundation_Add_StorageFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     domain.Kind
		inner    error
		critical bool
	}{
		{
			name:  "unique violation",
			err:   fmt.Errorf("inserting: %w", storage.ErrDuplicateKey),
			kind:  domain.KindDependencyValidation,
			inner: domain.ErrAlreadyExists,
		},
		{
			name:  "concurrency conflict",
			err:   fmt.Errorf("inserting: %w", storage.ErrConcurrencyConflict),
			kind:  domain.KindDependencyValidation,
			inner: domain.ErrLocked,
		},
		{
			name:     "connectivity",
			err:      fmt.Errorf("inserting: %w", storage.ErrUnavailable),
			kind:     domain.KindDependency,
			inner:    domain.ErrFailedStorage,
			critical: true,
		},
		{
			name:  "other storage failure",
			err:   fmt.Errorf("inserting: %w", storage.ErrFailed),
			kind:  domain.KindDependency,
			inner: domain.ErrFailedStorage,
		},
		{
			name:  "unexpected",
			err:   errors.New("boom"),
			kind:  domain.KindService,
			inner: domain.ErrFailedService,
		},
		{
			name:  "canceled",
			err:   context.Canceled,
			kind:  domain.KindService,
			inner: domain.ErrFailedService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			broker := newFakeBroker[domain.CarType]()
			broker.insertErr = tt.err
			svc := NewFoundation(CarTypeDescriptor, broker, h.deps)

			_, err := svc.Add(context.Background(), newCarType("SUV", testNow))
			ee := requireKind(t, err, tt.kind)
			assert.Equal(t, tt.critical, ee.Critical)
			assert.ErrorIs(t, err, tt.inner)
			assert.ErrorIs(t, err, tt.err, "the original cause stays reachable")

			lines := h.failures(t)
			require.Len(t, lines, 1, "logged exactly once")
			wantLevel, severity := "ERROR", "error"
			if tt.critical {
				wantLevel, severity = "CRITICAL", "critical"
			}
			assert.Equal(t, wantLevel, lines[0]["level"])
			assert.Equal(t, tt.kind.String(), lines[0]["kind"])
			assert.Equal(t, "CarType", lines[0]["entity"])

			counter := h.metrics.failures.WithLabelValues("CarType", tt.kind.String(), severity)
			assert.Equal(t, float64(1), testutil.ToFloat64(counter))
			assert.Empty(t, h.events.Events())
		})
	}
}

func TestFoundation_Modify(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*harness, *fakeBroker[domain.Car], *Foundation[domain.Car], *domain.Car) {
		h := newHarness(t)
		broker := newFakeBroker[domain.Car]()
		svc := NewFoundation(CarDescriptor, broker, h.deps)

		car := newCar(testNow.Add(-10 * time.Second))
		_, err := broker.Broker.Insert(ctx, car)
		require.NoError(t, err)
		return h, broker, svc, car
	}

	t.Run("advances the record", func(t *testing.T) {
		h, _, svc, car := setup(t)

		changed := *car
		changed.Color = "black"
		changed.UpdatedDate = testNow

		got, err := svc.Modify(ctx, &changed)
		require.NoError(t, err)
		assert.Equal(t, "black", got.Color)

		stored, err := svc.RetrieveByID(ctx, car.ID)
		require.NoError(t, err)
		assert.Equal(t, &changed, stored)

		events := h.events.Events()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventRecordModified, events[0].Type)
	})

	t.Run("created date differs from storage", func(t *testing.T) {
		_, broker, svc, car := setup(t)

		changed := *car
		changed.CreatedDate = car.CreatedDate.Add(-time.Second)
		changed.UpdatedDate = testNow

		_, err := svc.Modify(ctx, &changed)
		requireKind(t, err, domain.KindValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidEntity)
		assert.Equal(t, domain.ValidationErrors{
			{Field: "CreatedDate", Message: "Date is not the same as storage CreatedDate"},
		}, domain.Violations(err))
		assert.Zero(t, broker.updates)
	})

	t.Run("stale update is rejected every time", func(t *testing.T) {
		_, broker, svc, car := setup(t)

		first := *car
		first.Color = "red"
		first.UpdatedDate = testNow.Add(-5 * time.Second)
		_, err := svc.Modify(ctx, &first)
		require.NoError(t, err)

		stale := *car
		stale.Color = "green"
		stale.UpdatedDate = testNow.Add(-5 * time.Second)

		_, err1 := svc.Modify(ctx, &stale)
		_, err2 := svc.Modify(ctx, &stale)
		requireKind(t, err1, domain.KindValidation)
		requireKind(t, err2, domain.KindValidation)
		assert.Equal(t, domain.Violations(err1), domain.Violations(err2))
		assert.Equal(t, "UpdatedDate", domain.Violations(err1)[0].Field)
		assert.Equal(t, 1, broker.updates)

		stored, err := svc.RetrieveByID(ctx, car.ID)
		require.NoError(t, err)
		assert.Equal(t, "red", stored.Color)
	})

	t.Run("updated date equals created date", func(t *testing.T) {
		_, _, svc, car := setup(t)

		same := *car
		_, err := svc.Modify(ctx, &same)
		requireKind(t, err, domain.KindValidation)
		assert.Equal(t, domain.ValidationErrors{
			{Field: "UpdatedDate", Message: "Date is the same as CreatedDate"},
		}, domain.Violations(err))
	})

	t.Run("missing record", func(t *testing.T) {
		_, _, svc, _ := setup(t)

		ghost := newCar(testNow.Add(-10 * time.Second))
		ghost.UpdatedDate = testNow

		_, err := svc.Modify(ctx, ghost)
		requireKind(t, err, domain.KindValidation)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		var nf *domain.NotFoundEntityError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, ghost.ID.String(), nf.Value)
	})

	t.Run("nil", func(t *testing.T) {
		_, _, svc, _ := setup(t)

		_, err := svc.Modify(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrNullEntity)
	})

	t.Run("lost compare and swap", func(t *testing.T) {
		h, broker, svc, car := setup(t)
		broker.updateErr = fmt.Errorf("updating: %w", storage.ErrConcurrencyConflict)

		changed := *car
		changed.UpdatedDate = testNow

		_, err := svc.Modify(ctx, &changed)
		requireKind(t, err, domain.KindDependencyValidation)
		assert.ErrorIs(t, err, domain.ErrLocked)
		assert.Len(t, h.failures(t), 1)
	})

	t.Run("storage unreachable while fetching", func(t *testing.T) {
		_, broker, svc, car := setup(t)
		broker.selectErr = fmt.Errorf("selecting: %w", storage.ErrUnavailable)

		changed := *car
		changed.UpdatedDate = testNow

		_, err := svc.Modify(ctx, &changed)
		ee := requireKind(t, err, domain.KindDependency)
		assert.True(t, ee.Critical)
	})
}

func TestFoundation_RetrieveByID(t *testing.T) {
	h := newHarness(t)
	svc := NewFoundation(CarTypeDescriptor, newFakeBroker[domain.CarType](), h.deps)
	ctx := context.Background()

	_, err := svc.RetrieveByID(ctx, uuid.Nil)
	requireKind(t, err, domain.KindValidation)
	assert.Equal(t, domain.ValidationErrors{{Field: "Id", Message: "Id is required"}}, domain.Violations(err))

	id := uuid.New()
	_, err = svc.RetrieveByID(ctx, id)
	requireKind(t, err, domain.KindValidation)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, errors.Unwrap(err).Error(), id.String())
}

func TestFoundation_RemoveByID(t *testing.T) {
	ctx := context.Background()

	t.Run("nonexistent", func(t *testing.T) {
		h := newHarness(t)
		broker := newFakeBroker[domain.CarType]()
		svc := NewFoundation(CarTypeDescriptor, broker, h.deps)

		id := uuid.New()
		_, err := svc.RemoveByID(ctx, id)
		requireKind(t, err, domain.KindValidation)
		var nf *domain.NotFoundEntityError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, id.String(), nf.Value)
		assert.Equal(t, "Couldn't find car type with id: "+id.String()+".", nf.Error())
		assert.Zero(t, broker.deletes)
	})

	t.Run("returns the deleted snapshot", func(t *testing.T) {
		h := newHarness(t)
		broker := newFakeBroker[domain.CarType]()
		svc := NewFoundation(CarTypeDescriptor, broker, h.deps)

		suv := newCarType("SUV", testNow)
		_, err := svc.Add(ctx, suv)
		require.NoError(t, err)

		removed, err := svc.RemoveByID(ctx, suv.ID)
		require.NoError(t, err)
		assert.Equal(t, suv, removed)
		assert.Zero(t, broker.Len())

		_, err = svc.RetrieveByID(ctx, suv.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		events := h.events.Events()
		require.Len(t, events, 2)
		assert.Equal(t, domain.EventRecordRemoved, events[1].Type)
	})

	t.Run("empty id", func(t *testing.T) {
		h := newHarness(t)
		svc := NewFoundation(CarTypeDescriptor, newFakeBroker[domain.CarType](), h.deps)

		_, err := svc.RemoveByID(ctx, uuid.Nil)
		assert.ErrorIs(t, err, domain.ErrInvalidEntity)
	})
}

func TestFoundation_RetrieveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("lazy and composable", func(t *testing.T) {
		h := newHarness(t)
		broker := newFakeBroker[domain.CarType]()
		svc := NewFoundation(CarTypeDescriptor, broker, h.deps)

		for i, name := range []string{"SUV", "Sedan", "Truck"} {
			_, err := svc.Add(ctx, newCarType(name, testNow.Add(time.Duration(i-3)*time.Second)))
			require.NoError(t, err)
		}

		q := svc.RetrieveAll(ctx)
		assert.Zero(t, broker.enumerations, "nothing is read before enumeration")

		names := func(records []*domain.CarType) []string {
			out := make([]string, 0, len(records))
			for _, r := range records {
				out = append(out, r.Name)
			}
			return out
		}

		all, err := q.Collect(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"SUV", "Sedan", "Truck"}, names(all))

		page, err := q.Where(func(c *domain.CarType) bool { return c.Name != "SUV" }).
			OrderBy(storage.By(func(c *domain.CarType) string { return c.Name })).
			Skip(1).
			Take(1).
			Collect(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Truck"}, names(page))
		assert.Equal(t, 2, broker.enumerations, "the query restarts on every enumeration")
	})

	tests := []struct {
		name     string
		err      error
		kind     domain.Kind
		critical bool
	}{
		{"connectivity", fmt.Errorf("query: %w", storage.ErrUnavailable), domain.KindDependency, true},
		{"other storage failure", fmt.Errorf("query: %w", storage.ErrFailed), domain.KindService, false},
		{"duplicate key is not a bulk concern", fmt.Errorf("query: %w", storage.ErrDuplicateKey), domain.KindService, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			broker := newFakeBroker[domain.CarType]()
			broker.selectAllErr = tt.err
			svc := NewFoundation(CarTypeDescriptor, broker, h.deps)

			_, err := svc.RetrieveAll(ctx).Collect(ctx)
			ee := requireKind(t, err, tt.kind)
			assert.Equal(t, tt.critical, ee.Critical)
			assert.ErrorIs(t, err, tt.err)
			assert.Len(t, h.failures(t), 1)
		})
	}

	t.Run("canceled enumeration", func(t *testing.T) {
		h := newHarness(t)
		broker := newFakeBroker[domain.CarType]()
		svc := NewFoundation(CarTypeDescriptor, broker, h.deps)
		_, err := svc.Add(ctx, newCarType("SUV", testNow))
		require.NoError(t, err)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = svc.RetrieveAll(ctx).Collect(canceled)
		requireKind(t, err, domain.KindService)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTranslator_PassesNormalizedErrorsThrough(t *testing.T) {
	h := newHarness(t)
	tr := translator{entity: "Car", logger: h.deps.Logger, metrics: h.metrics}
	ctx := context.Background()

	first := tr.single(ctx, &domain.InvalidEntityError{Entity: "Car"})
	second := tr.single(ctx, fmt.Errorf("outer: %w", first))
	third := tr.bulk(ctx, first)

	assert.Same(t, first, second)
	assert.Same(t, first, third)
	assert.Len(t, h.failures(t), 1)
	assert.NoError(t, tr.single(ctx, nil))
	assert.NoError(t, tr.bulk(ctx, nil))
}

func TestUserDescriptor_HashesPassword(t *testing.T) {
	h := newHarness(t)
	broker := newFakeBroker[domain.User]()
	svc := NewFoundation(UserDescriptor(testHasher), broker, h.deps)
	ctx := context.Background()

	user := newUser("Passw0rd", testNow)
	stored, err := svc.Add(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd", user.Password, "the caller's record is not modified")
	assert.NotEqual(t, "Passw0rd", stored.Password)
	require.NoError(t, testHasher.Verify("Passw0rd", stored.Password))

	changed := *stored
	changed.Job = "Manager"
	changed.UpdatedDate = testNow.Add(time.Second)
	svc = NewFoundation(UserDescriptor(testHasher), broker, Deps{
		Clock:  ClockFunc(func() time.Time { return testNow.Add(time.Second) }),
		Logger: h.deps.Logger,
	})
	modified, err := svc.Modify(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, stored.Password, modified.Password, "an existing hash is kept as is")
}

func TestUserDescriptor_InvalidRole(t *testing.T) {
	h := newHarness(t)
	svc := NewFoundation(UserDescriptor(testHasher), newFakeBroker[domain.User](), h.deps)

	user := newUser("Passw0rd", testNow)
	user.Role = "root"

	_, err := svc.Add(context.Background(), user)
	requireKind(t, err, domain.KindValidation)
	assert.Equal(t, domain.ValidationErrors{{Field: "Role", Message: "Value is invalid"}}, domain.Violations(err))
}

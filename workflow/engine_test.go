package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/store"
	"github.com/crmkit/backend/substrate/memory"
)

func pendingCollection(t *testing.T, createdAt time.Time) *store.Collection {
	t.Helper()
	return store.New(memory.New(), nil, nil, store.Config{
		Name:  "contacts",
		Clock: func() time.Time { return createdAt },
	})
}

func TestWatchFiresAfterDwell(t *testing.T) {
	ctx := context.Background()
	created := time.Now().Add(-10 * time.Second)
	contacts := pendingCollection(t, created)

	rec, err := contacts.Create(ctx, domain.Patch{"name": "ada", "status": domain.StatusPending})
	require.NoError(t, err)

	e := New(nil, Config{Interval: time.Second})
	var fired int
	e.Watch(Watch{
		Source:  contacts,
		Trigger: domain.StatusPending,
		Dwell:   5 * time.Second,
		OnFire: func(ctx context.Context, r domain.Record) error {
			fired++
			_, err := contacts.Update(ctx, r.ID, domain.Patch{domain.FieldStatus: domain.StatusApproved})
			return err
		},
	})

	e.Tick(ctx)
	assert.Equal(t, 1, fired)

	got, err := contacts.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)

	// Terminal: the transitioned record is not fired again.
	e.Tick(ctx)
	assert.Equal(t, 1, fired)
}

func TestWatchRespectsDwell(t *testing.T) {
	ctx := context.Background()
	contacts := pendingCollection(t, time.Now())

	_, err := contacts.Create(ctx, domain.Patch{"name": "fresh", "status": domain.StatusPending})
	require.NoError(t, err)

	e := New(nil, Config{Interval: time.Second})
	var fired int
	e.Watch(Watch{
		Source:  contacts,
		Trigger: domain.StatusPending,
		Dwell:   time.Hour,
		OnFire: func(context.Context, domain.Record) error {
			fired++
			return nil
		},
	})

	e.Tick(ctx)
	assert.Zero(t, fired, "dwell has not elapsed")
}

func TestWatchNeverFiresAfterManualTransition(t *testing.T) {
	ctx := context.Background()
	contacts := pendingCollection(t, time.Now().Add(-time.Minute))

	rec, err := contacts.Create(ctx, domain.Patch{"name": "bo", "status": domain.StatusPending})
	require.NoError(t, err)

	// Operator rejects the contact before the timer gets to it.
	_, err = contacts.Update(ctx, rec.ID, domain.Patch{domain.FieldStatus: domain.StatusRejected})
	require.NoError(t, err)

	e := New(nil, Config{Interval: time.Second})
	var fired int
	e.Watch(Watch{
		Source:  contacts,
		Trigger: domain.StatusPending,
		Dwell:   time.Second,
		OnFire: func(context.Context, domain.Record) error {
			fired++
			return nil
		},
	})

	e.Tick(ctx)
	assert.Zero(t, fired)
}

func TestEligibleRecordsFireInAscendingIDOrder(t *testing.T) {
	ctx := context.Background()
	contacts := pendingCollection(t, time.Now().Add(-time.Minute))

	for _, name := range []string{"a", "b", "c"} {
		_, err := contacts.Create(ctx, domain.Patch{"name": name, "status": domain.StatusPending})
		require.NoError(t, err)
	}

	e := New(nil, Config{Interval: time.Second})
	var order []int64
	e.Watch(Watch{
		Source:  contacts,
		Trigger: domain.StatusPending,
		Dwell:   time.Second,
		OnFire: func(_ context.Context, r domain.Record) error {
			order = append(order, r.ID)
			return nil
		},
	})

	e.Tick(ctx)
	assert.Equal(t, []int64{1, 2, 3}, order, "one tick processes every eligible record, ids ascending")
}

func TestCanceledWatchStopsFiring(t *testing.T) {
	ctx := context.Background()
	contacts := pendingCollection(t, time.Now().Add(-time.Minute))

	_, err := contacts.Create(ctx, domain.Patch{"name": "x", "status": domain.StatusPending})
	require.NoError(t, err)

	e := New(nil, Config{Interval: time.Second})
	var fired int
	cancel := e.Watch(Watch{
		Source:  contacts,
		Trigger: domain.StatusPending,
		Dwell:   time.Second,
		OnFire: func(context.Context, domain.Record) error {
			fired++
			return nil
		},
	})

	cancel()
	e.Tick(ctx)
	assert.Zero(t, fired)
}

func TestEngineStartStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := New(nil, Config{Interval: time.Second})
	e.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Stop(ctx)
}

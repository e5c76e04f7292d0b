package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kishanx08/ticket-master/internal/models"
)

func TestSnoozeOnlyTouchesSnoozeFields(t *testing.T) {
	start := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	f := newFixture(t, start)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, CommunityID: 5, DestinationID: 6, When: "in 1m", Message: "stretch", Repeat: "daily"})
	require.NoError(t, err)

	f.clock.Set(start.Add(2 * time.Minute))
	got, err := f.svc.Snooze(ctx, 1, ref(r), 15*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, start.Add(17*time.Minute), got.TriggerAt)
	assert.True(t, got.Snoozed)
	assert.Equal(t, 1, got.SnoozeCount)
	assert.True(t, got.Active)

	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.ShortID, got.ShortID)
	assert.Equal(t, r.Message, got.Message)
	assert.Equal(t, r.OriginalExpression, got.OriginalExpression)
	assert.Equal(t, r.Timezone, got.Timezone)
	assert.Equal(t, r.CommunityID, got.CommunityID)
	assert.Equal(t, r.DestinationID, got.DestinationID)
	assert.Equal(t, r.CreatedAt, got.CreatedAt)
	require.NotNil(t, got.Repeat)
	assert.Equal(t, models.CadenceDaily, got.Repeat.Kind())

	got, err = f.svc.Snooze(ctx, 1, ref(r), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SnoozeCount)
}

func TestSnoozeInactiveIsRejected(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "x"})
	require.NoError(t, err)
	_, _, err = f.svc.Complete(ctx, 1, ref(r))
	require.NoError(t, err)

	_, err = f.svc.Snooze(ctx, 1, ref(r), time.Minute)
	assert.ErrorIs(t, err, ErrInactive)

	stored, err := f.store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.False(t, stored.Snoozed)
}

func TestSnoozeAfterDelivery(t *testing.T) {
	start := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	fireAt := start.Add(time.Hour)
	ctx := context.Background()

	t.Run("one-shot goes back on the schedule", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "tea"})
		require.NoError(t, err)

		f.clock.Set(fireAt)
		_, err = f.svc.Advance(ctx, r, fireAt)
		require.NoError(t, err)
		fired, err := f.store.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.False(t, fired.Active)
		assert.True(t, fired.Fired)

		got, err := f.svc.Snooze(ctx, 1, ref(r), 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, got.Active)
		assert.Equal(t, r.ShortID, got.ShortID)
		assert.Equal(t, fireAt.Add(15*time.Minute), got.TriggerAt)
		assert.Equal(t, 1, got.SnoozeCount)

		due, err := f.store.ListActiveDue(ctx, fireAt.Add(15*time.Minute))
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, r.ID, due[0].ID)
	})

	t.Run("repeating does not spawn a second successor", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "tea", Repeat: "daily"})
		require.NoError(t, err)

		f.clock.Set(fireAt)
		succ, err := f.svc.Advance(ctx, r, fireAt)
		require.NoError(t, err)
		require.NotNil(t, succ)

		snoozed, err := f.svc.Snooze(ctx, 1, ref(r), 15*time.Minute)
		require.NoError(t, err)

		refireAt := fireAt.Add(15 * time.Minute)
		f.clock.Set(refireAt)
		again, err := f.svc.Advance(ctx, snoozed, refireAt)
		require.NoError(t, err)
		assert.Nil(t, again)

		active, err := f.svc.List(ctx, ListRequest{OwnerID: 1})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, succ.ID, active[0].ID)
		assert.Equal(t, fireAt.Add(24*time.Hour), active[0].TriggerAt)
	})

	t.Run("completed after delivery stays retired", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "tea"})
		require.NoError(t, err)

		f.clock.Set(fireAt)
		_, err = f.svc.Advance(ctx, r, fireAt)
		require.NoError(t, err)

		_, done, err := f.svc.Complete(ctx, 1, ref(r))
		require.NoError(t, err)
		assert.False(t, done)

		_, err = f.svc.Snooze(ctx, 1, ref(r), 15*time.Minute)
		assert.ErrorIs(t, err, ErrInactive)

		_, done, err = f.svc.Complete(ctx, 1, ref(r))
		require.NoError(t, err)
		assert.True(t, done)
	})
}

func TestSnoozeFor(t *testing.T) {
	start := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	f := newFixture(t, start)
	ctx := context.Background()
	r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "x"})
	require.NoError(t, err)

	got, err := f.svc.SnoozeFor(ctx, 1, ref(r), "2h")
	require.NoError(t, err)
	assert.Equal(t, start.Add(2*time.Hour), got.TriggerAt)

	got, err = f.svc.SnoozeFor(ctx, 1, ref(r), "tomorrow at 9am")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 2, 9, 0, 0, 0, time.UTC), got.TriggerAt)
	assert.Equal(t, 2, got.SnoozeCount)

	_, err = f.svc.SnoozeFor(ctx, 1, ref(r), "whenever")
	assert.ErrorIs(t, err, ErrInvalidTime)
	_, err = f.svc.SnoozeFor(ctx, 1, ref(r), "-5m")
	assert.ErrorIs(t, err, ErrPastTime)
}

func TestComplete(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "x", Repeat: "weekly"})
	require.NoError(t, err)

	got, done, err := f.svc.Complete(ctx, 1, ref(r))
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, got.Active)

	_, done, err = f.svc.Complete(ctx, 1, ref(r))
	require.NoError(t, err)
	assert.True(t, done)

	active, err := f.svc.List(ctx, ListRequest{OwnerID: 1})
	require.NoError(t, err)
	assert.Empty(t, active, "completing a repeating reminder spawns nothing")
}

func TestRepeatNow(t *testing.T) {
	start := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("defaults to daily", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, CommunityID: 3, DestinationID: 4, When: "in 1h", Message: "x"})
		require.NoError(t, err)

		succ, err := f.svc.RepeatNow(ctx, 1, ref(r))
		require.NoError(t, err)
		assert.Equal(t, start.Add(24*time.Hour), succ.TriggerAt)
		assert.NotEqual(t, r.ShortID, succ.ShortID)
		require.NotNil(t, succ.ParentID)
		assert.Equal(t, r.ID, *succ.ParentID)
		assert.Nil(t, succ.Repeat)
		assert.Equal(t, r.DestinationID, succ.DestinationID)

		parent, err := f.store.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.False(t, parent.Active)
	})

	t.Run("uses stored cadence", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "x", Repeat: "monthly"})
		require.NoError(t, err)

		succ, err := f.svc.RepeatNow(ctx, 1, ref(r))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC), succ.TriggerAt)
		require.NotNil(t, succ.Repeat)
		assert.Equal(t, models.CadenceMonthly, succ.Repeat.Kind())
	})

	t.Run("works after the reminder fired", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "x"})
		require.NoError(t, err)
		f.clock.Set(start.Add(time.Hour))
		_, err = f.svc.Advance(ctx, r, start.Add(time.Hour))
		require.NoError(t, err)

		succ, err := f.svc.RepeatNow(ctx, 1, ref(r))
		require.NoError(t, err)
		assert.True(t, succ.Active)

		// The delivered row is settled, so its snooze buttons stop working.
		_, err = f.svc.Snooze(ctx, 1, ref(r), time.Minute)
		assert.ErrorIs(t, err, ErrInactive)
	})
}

func TestAdvance(t *testing.T) {
	start := time.Date(2024, time.January, 31, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("one-shot is retired and never due again", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "x"})
		require.NoError(t, err)

		fireAt := start.Add(time.Hour)
		f.clock.Set(fireAt)
		succ, err := f.svc.Advance(ctx, r, fireAt)
		require.NoError(t, err)
		assert.Nil(t, succ)

		due, err := f.store.ListActiveDue(ctx, fireAt.Add(365*24*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("monthly clamps to end of february", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, When: "in 1h", Message: "rent", Repeat: "monthly"})
		require.NoError(t, err)

		fireAt := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)
		f.clock.Set(fireAt)
		succ, err := f.svc.Advance(ctx, r, fireAt)
		require.NoError(t, err)
		require.NotNil(t, succ)
		assert.Equal(t, time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC), succ.TriggerAt)
		assert.Equal(t, r.ID, *succ.ParentID)

		due, err := f.store.ListActiveDue(ctx, fireAt)
		require.NoError(t, err)
		assert.Empty(t, due)
		due, err = f.store.ListActiveDue(ctx, succ.TriggerAt)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, succ.ID, due[0].ID)
	})

	t.Run("weekday rule follows reminder zone", func(t *testing.T) {
		f := newFixture(t, start)
		r, err := f.svc.Create(ctx, CreateRequest{OwnerID: 1, Timezone: "Asia/Tokyo", When: "in 1h", Message: "x", Repeat: "every monday"})
		require.NoError(t, err)

		// Wednesday 2024-01-31 09:00 UTC is 18:00 in Tokyo.
		fireAt := time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC)
		f.clock.Set(fireAt)
		succ, err := f.svc.Advance(ctx, r, fireAt)
		require.NoError(t, err)
		require.NotNil(t, succ)
		tokyo := mustLoc(t, "Asia/Tokyo")
		assert.Equal(t, time.Monday, succ.TriggerAt.In(tokyo).Weekday())
		assert.Equal(t, 18, succ.TriggerAt.In(tokyo).Hour())
	})
}

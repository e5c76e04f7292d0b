package repository

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kishanx08/ticket-master/internal/database"
	"github.com/Kishanx08/ticket-master/internal/models"
)

var testNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *SQLiteReminderRepository {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewSQLiteReminderRepository(db, opts...)
}

func sequence(ids ...int) func() int {
	var mu sync.Mutex
	i := 0
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func newReminder(owner, community int64, at time.Time) *models.Reminder {
	return &models.Reminder{
		OwnerID:            owner,
		CommunityID:        community,
		DestinationID:      community,
		Message:            "drink water",
		TriggerAt:          at,
		OriginalExpression: "in 1h",
		Timezone:           "UTC",
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	monthly, err := models.NewCadence(models.CadenceMonthly, "")
	require.NoError(t, err)
	r := newReminder(1, 100, testNow.Add(time.Hour))
	r.Repeat = &monthly

	require.NoError(t, store.Create(ctx, r))
	assert.NotEmpty(t, r.ID)
	assert.GreaterOrEqual(t, r.ShortID, MinShortID)
	assert.LessOrEqual(t, r.ShortID, MaxShortID)
	assert.True(t, r.Active)
	assert.Equal(t, testNow, r.CreatedAt)

	t.Run("by short id", func(t *testing.T) {
		got, err := store.Get(ctx, strconv.Itoa(r.ShortID))
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.ID)
		assert.Equal(t, r.TriggerAt, got.TriggerAt)
		require.NotNil(t, got.Repeat)
		assert.Equal(t, models.CadenceMonthly, got.Repeat.Kind())
		assert.Nil(t, got.ParentID)
	})

	t.Run("by uuid", func(t *testing.T) {
		got, err := store.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.ShortID, got.ShortID)
		assert.Equal(t, "drink water", got.Message)
	})

	t.Run("unknown refs", func(t *testing.T) {
		for _, ref := range []string{"999", "12345", "abcd", "", "00000000-0000-0000-0000-000000000000"} {
			_, err := store.Get(ctx, ref)
			assert.ErrorIs(t, err, ErrNotFound, ref)
		}
	})
}

func TestCreateRejectsPastTrigger(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, at := range []time.Time{testNow, testNow.Add(-time.Minute)} {
		r := newReminder(1, 1, at)
		assert.ErrorIs(t, store.Create(ctx, r), ErrPastTrigger)
		assert.Empty(t, r.ID)
	}
	due, err := store.ListActiveDue(ctx, testNow.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestCreateRetriesShortIDCollision(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShortIDSource(sequence(1111, 1111, 2222)))

	first := newReminder(1, 1, testNow.Add(time.Hour))
	require.NoError(t, store.Create(ctx, first))
	second := newReminder(1, 1, testNow.Add(time.Hour))
	require.NoError(t, store.Create(ctx, second))

	assert.Equal(t, 1111, first.ShortID)
	assert.Equal(t, 2222, second.ShortID)
}

func TestCreateShortIDExhausted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShortIDSource(sequence(4242)), WithMaxAttempts(3))

	require.NoError(t, store.Create(ctx, newReminder(1, 1, testNow.Add(time.Hour))))
	err := store.Create(ctx, newReminder(1, 1, testNow.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrShortIDExhausted)
}

func TestShortIDsStayReservedByInactiveRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithShortIDSource(sequence(5000, 5000, 5001)))

	first := newReminder(1, 1, testNow.Add(time.Hour))
	require.NoError(t, store.Create(ctx, first))
	inactive := false
	_, err := store.Update(ctx, first.ID, models.ReminderPatch{Active: &inactive})
	require.NoError(t, err)

	second := newReminder(1, 1, testNow.Add(time.Hour))
	require.NoError(t, store.Create(ctx, second))
	assert.Equal(t, 5001, second.ShortID)
}

func TestUpdateFiredFlag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r := newReminder(1, 1, testNow.Add(time.Hour))
	r.Fired = true
	require.NoError(t, store.Create(ctx, r))
	assert.False(t, r.Fired, "new rows have not fired")

	inactive, fired := false, true
	_, err := store.Update(ctx, r.ID, models.ReminderPatch{Active: &inactive, Fired: &fired})
	require.NoError(t, err)

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.Fired)

	due, err := store.ListActiveDue(ctx, testNow.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestConcurrentCreatesGetDistinctShortIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	const n = 50
	var wg sync.WaitGroup
	ids := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := newReminder(int64(i), 1, testNow.Add(time.Hour))
			errs[i] = store.Create(ctx, r)
			ids[i] = r.ShortID
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate short id %d", ids[i])
		seen[ids[i]] = true
	}
}

func TestListActiveDue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	late := newReminder(1, 1, testNow.Add(2*time.Hour))
	early := newReminder(1, 1, testNow.Add(time.Hour))
	future := newReminder(1, 1, testNow.Add(5*time.Hour))
	for _, r := range []*models.Reminder{late, early, future} {
		require.NoError(t, store.Create(ctx, r))
	}

	due, err := store.ListActiveDue(ctx, testNow.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)

	inactive := false
	_, err = store.Update(ctx, early.ID, models.ReminderPatch{Active: &inactive})
	require.NoError(t, err)

	due, err = store.ListActiveDue(ctx, testNow.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, late.ID, due[0].ID)
}

func TestListByOwner(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := newReminder(1, 100, testNow.Add(3*time.Hour))
	b := newReminder(1, 200, testNow.Add(time.Hour))
	other := newReminder(2, 100, testNow.Add(time.Hour))
	for _, r := range []*models.Reminder{a, b, other} {
		require.NoError(t, store.Create(ctx, r))
	}

	all, err := store.ListByOwner(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)
	assert.Equal(t, a.ID, all[1].ID)

	scoped, err := store.ListByOwner(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, a.ID, scoped[0].ID)
}

func TestUpdateSnoozeTouchesOnlySnoozeFields(t *testing.T) {
	ctx := context.Background()
	now := testNow
	store := newTestStore(t, WithClock(func() time.Time { return now }))

	r := newReminder(1, 1, testNow.Add(time.Minute))
	require.NoError(t, store.Create(ctx, r))

	now = testNow.Add(2 * time.Minute)
	snoozeTo := now.Add(15 * time.Minute)
	yes := true
	got, err := store.Update(ctx, r.ID, models.ReminderPatch{TriggerAt: &snoozeTo, Snoozed: &yes, IncrementSnooze: true})
	require.NoError(t, err)

	assert.Equal(t, snoozeTo, got.TriggerAt)
	assert.True(t, got.Snoozed)
	assert.Equal(t, 1, got.SnoozeCount)
	assert.True(t, got.Active)
	assert.Equal(t, now, got.UpdatedAt)

	stored, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
	assert.Equal(t, r.Message, stored.Message)
	assert.Equal(t, r.ShortID, stored.ShortID)
	assert.Equal(t, r.CreatedAt, stored.CreatedAt)
	assert.Equal(t, r.OriginalExpression, stored.OriginalExpression)
}

func TestUpdateRejectsPastTriggerAndMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r := newReminder(1, 1, testNow.Add(time.Hour))
	require.NoError(t, store.Create(ctx, r))

	past := testNow.Add(-time.Hour)
	_, err := store.Update(ctx, r.ID, models.ReminderPatch{TriggerAt: &past})
	assert.ErrorIs(t, err, ErrPastTrigger)

	msg := "x"
	_, err = store.Update(ctx, "6f1c1a3e-8d0e-4c3a-9a55-1a2b3c4d5e6f", models.ReminderPatch{Message: &msg})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r := newReminder(1, 1, testNow.Add(time.Hour))
	require.NoError(t, store.Create(ctx, r))

	deleted, err := store.Delete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ShortID, deleted.ShortID)

	_, err = store.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Delete(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteInactiveBefore(t *testing.T) {
	ctx := context.Background()
	now := testNow
	store := newTestStore(t, WithClock(func() time.Time { return now }))

	old := newReminder(1, 1, testNow.Add(time.Hour))
	recent := newReminder(1, 1, testNow.Add(time.Hour))
	live := newReminder(1, 1, testNow.Add(time.Hour))
	for _, r := range []*models.Reminder{old, recent, live} {
		require.NoError(t, store.Create(ctx, r))
	}
	inactive := false
	_, err := store.Update(ctx, old.ID, models.ReminderPatch{Active: &inactive})
	require.NoError(t, err)
	now = testNow.Add(48 * time.Hour)
	_, err = store.Update(ctx, recent.ID, models.ReminderPatch{Active: &inactive})
	require.NoError(t, err)

	n, err := store.DeleteInactiveBefore(ctx, testNow.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestSuccessorRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	custom, err := models.CustomCadence("every monday")
	require.NoError(t, err)
	parent := newReminder(1, 1, testNow.Add(time.Hour))
	parent.Repeat = &custom
	require.NoError(t, store.Create(ctx, parent))

	child := parent.Successor(testNow.Add(7 * 24 * time.Hour))
	require.NoError(t, store.Create(ctx, child))
	assert.NotEqual(t, parent.ShortID, child.ShortID)

	got, err := store.Get(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent.ID, *got.ParentID)
	require.NotNil(t, got.Repeat)
	assert.Equal(t, "every monday", got.Repeat.Expr())
}

func TestSQLiteCommunityRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewSQLiteCommunityRepository(db)

	_, ok, err := repo.FallbackChat(ctx, -100)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetFallbackChat(ctx, -100, -200))
	require.NoError(t, repo.SetFallbackChat(ctx, -100, -300))

	chat, ok, err := repo.FallbackChat(ctx, -100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(-300), chat)
}

func TestSQLiteUserSettingsRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewSQLiteUserSettingsRepository(db)
	repo.now = func() time.Time { return testNow }

	settings, ok, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, settings.Zone())

	require.NoError(t, repo.SetTimezone(ctx, 42, "Asia/Kolkata"))
	require.NoError(t, repo.SetTimezone(ctx, 42, "Europe/Berlin"))

	settings, ok, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Europe/Berlin", settings.Zone())
	assert.Equal(t, testNow, settings.UpdatedAt)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Kishanx08/ticket-master/internal/database"
	"github.com/Kishanx08/ticket-master/internal/models"
)

const reminderColumns = `id::text, short_id, owner_id, owner_name, community_id, destination_id, message, trigger_at,
	original_expression, timezone, repeat_kind, repeat_expr, active, fired, snoozed, snooze_count,
	parent_id::text, created_at, updated_at`

// ReminderRepository is the PostgreSQL ReminderStore.
type ReminderRepository struct {
	db   *database.DB
	opts options
}

func NewReminderRepository(db *database.DB, opts ...Option) *ReminderRepository {
	return &ReminderRepository{db: db, opts: newOptions(opts)}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if err := r.opts.prepareCreate(reminder); err != nil {
		return err
	}
	id, err := uuid.Parse(reminder.ID)
	if err != nil {
		return err
	}
	parent, err := optionalUUID(reminder.ParentID)
	if err != nil {
		return err
	}
	kind, expr := cadenceColumns(reminder.Repeat)

	return r.opts.allocate(reminder, func() error {
		_, err := r.db.Pool.Exec(ctx,
			`INSERT INTO reminders (id, short_id, owner_id, owner_name, community_id, destination_id, message, trigger_at,
				original_expression, timezone, repeat_kind, repeat_expr, active, fired, snoozed, snooze_count,
				parent_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
			id, reminder.ShortID, reminder.OwnerID, reminder.OwnerName, reminder.CommunityID, reminder.DestinationID,
			reminder.Message, reminder.TriggerAt, reminder.OriginalExpression, reminder.Timezone,
			kind, expr, reminder.Active, reminder.Fired, reminder.Snoozed, reminder.SnoozeCount,
			parent, reminder.CreatedAt, reminder.UpdatedAt,
		)
		return err
	}, isPgShortIDCollision)
}

func (r *ReminderRepository) Get(ctx context.Context, ref string) (*models.Reminder, error) {
	shortID, id, ok := parseRef(ref)
	if !ok {
		return nil, ErrNotFound
	}
	var row pgx.Row
	if shortID != 0 {
		row = r.db.Pool.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE short_id = $1`, shortID)
	} else {
		row = r.db.Pool.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)
	}
	return scanPgReminder(row)
}

func (r *ReminderRepository) ListActiveDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active AND trigger_at <= $1
		 ORDER BY trigger_at ASC`,
		now,
	)
	if err != nil {
		return nil, err
	}
	return collectPgReminders(rows)
}

func (r *ReminderRepository) ListByOwner(ctx context.Context, ownerID, communityID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active AND owner_id = $1 AND ($2::bigint = 0 OR community_id = $2::bigint)
		 ORDER BY trigger_at ASC`,
		ownerID, communityID,
	)
	if err != nil {
		return nil, err
	}
	return collectPgReminders(rows)
}

// Update applies patch under a row lock so concurrent button presses and
// the scheduler never interleave a read-modify-write.
func (r *ReminderRepository) Update(ctx context.Context, id string, patch models.ReminderPatch) (*models.Reminder, error) {
	now, err := r.opts.preparePatch(patch)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	reminder, err := scanPgReminder(tx.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1 FOR UPDATE`, uid))
	if err != nil {
		return nil, err
	}
	patch.Apply(reminder)
	reminder.UpdatedAt = now

	_, err = tx.Exec(ctx,
		`UPDATE reminders SET message = $1, trigger_at = $2, original_expression = $3, timezone = $4,
			active = $5, fired = $6, snoozed = $7, snooze_count = $8, updated_at = $9
		 WHERE id = $10`,
		reminder.Message, reminder.TriggerAt, reminder.OriginalExpression, reminder.Timezone,
		reminder.Active, reminder.Fired, reminder.Snoozed, reminder.SnoozeCount, reminder.UpdatedAt, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id string) (*models.Reminder, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return scanPgReminder(r.db.Pool.QueryRow(ctx,
		`DELETE FROM reminders WHERE id = $1 RETURNING `+reminderColumns, uid))
}

func (r *ReminderRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE NOT active AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPgReminder(row pgx.Row) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	var kind, expr *string
	err := row.Scan(&reminder.ID, &reminder.ShortID, &reminder.OwnerID, &reminder.OwnerName, &reminder.CommunityID,
		&reminder.DestinationID, &reminder.Message, &reminder.TriggerAt, &reminder.OriginalExpression,
		&reminder.Timezone, &kind, &expr, &reminder.Active, &reminder.Fired, &reminder.Snoozed, &reminder.SnoozeCount,
		&reminder.ParentID, &reminder.CreatedAt, &reminder.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if reminder.Repeat, err = cadenceFromColumns(kind, expr); err != nil {
		return nil, err
	}
	reminder.TriggerAt = reminder.TriggerAt.UTC()
	reminder.CreatedAt = reminder.CreatedAt.UTC()
	reminder.UpdatedAt = reminder.UpdatedAt.UTC()
	return reminder, nil
}

func collectPgReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanPgReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func optionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid parent id: %w", err)
	}
	return &id, nil
}

func isPgShortIDCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "reminders_short_id_key"
}

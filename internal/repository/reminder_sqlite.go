package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Kishanx08/ticket-master/internal/models"
)

const sqliteReminderColumns = `id, short_id, owner_id, owner_name, community_id, destination_id, message, trigger_at,
	original_expression, timezone, repeat_kind, repeat_expr, active, fired, snoozed, snooze_count,
	parent_id, created_at, updated_at`

// SQLiteReminderRepository is the embedded ReminderStore. Times are stored
// as unix milliseconds.
type SQLiteReminderRepository struct {
	db   *sql.DB
	opts options
}

func NewSQLiteReminderRepository(db *sql.DB, opts ...Option) *SQLiteReminderRepository {
	return &SQLiteReminderRepository{db: db, opts: newOptions(opts)}
}

func (r *SQLiteReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if err := r.opts.prepareCreate(reminder); err != nil {
		return err
	}
	kind, expr := cadenceColumns(reminder.Repeat)

	return r.opts.allocate(reminder, func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO reminders (`+sqliteReminderColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			reminder.ID, reminder.ShortID, reminder.OwnerID, reminder.OwnerName, reminder.CommunityID, reminder.DestinationID,
			reminder.Message, reminder.TriggerAt.UnixMilli(), reminder.OriginalExpression, reminder.Timezone,
			nullStr(kind), nullStr(expr), reminder.Active, reminder.Fired, reminder.Snoozed, reminder.SnoozeCount,
			nullStr(reminder.ParentID), reminder.CreatedAt.UnixMilli(), reminder.UpdatedAt.UnixMilli(),
		)
		return err
	}, isSQLiteShortIDCollision)
}

func (r *SQLiteReminderRepository) Get(ctx context.Context, ref string) (*models.Reminder, error) {
	shortID, id, ok := parseRef(ref)
	if !ok {
		return nil, ErrNotFound
	}
	if shortID != 0 {
		return scanSQLiteReminder(r.db.QueryRowContext(ctx,
			`SELECT `+sqliteReminderColumns+` FROM reminders WHERE short_id = ?`, shortID))
	}
	return scanSQLiteReminder(r.db.QueryRowContext(ctx,
		`SELECT `+sqliteReminderColumns+` FROM reminders WHERE id = ?`, id.String()))
}

func (r *SQLiteReminderRepository) ListActiveDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteReminderColumns+` FROM reminders
		 WHERE active = 1 AND trigger_at <= ?
		 ORDER BY trigger_at ASC`,
		now.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	return collectSQLiteReminders(rows)
}

func (r *SQLiteReminderRepository) ListByOwner(ctx context.Context, ownerID, communityID int64) ([]*models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteReminderColumns+` FROM reminders
		 WHERE active = 1 AND owner_id = ? AND (? = 0 OR community_id = ?)
		 ORDER BY trigger_at ASC`,
		ownerID, communityID, communityID,
	)
	if err != nil {
		return nil, err
	}
	return collectSQLiteReminders(rows)
}

func (r *SQLiteReminderRepository) Update(ctx context.Context, id string, patch models.ReminderPatch) (*models.Reminder, error) {
	now, err := r.opts.preparePatch(patch)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reminder, err := scanSQLiteReminder(tx.QueryRowContext(ctx,
		`SELECT `+sqliteReminderColumns+` FROM reminders WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	patch.Apply(reminder)
	reminder.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`UPDATE reminders SET message = ?, trigger_at = ?, original_expression = ?, timezone = ?,
			active = ?, fired = ?, snoozed = ?, snooze_count = ?, updated_at = ?
		 WHERE id = ?`,
		reminder.Message, reminder.TriggerAt.UnixMilli(), reminder.OriginalExpression, reminder.Timezone,
		reminder.Active, reminder.Fired, reminder.Snoozed, reminder.SnoozeCount, reminder.UpdatedAt.UnixMilli(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (r *SQLiteReminderRepository) Delete(ctx context.Context, id string) (*models.Reminder, error) {
	return scanSQLiteReminder(r.db.QueryRowContext(ctx,
		`DELETE FROM reminders WHERE id = ? RETURNING `+sqliteReminderColumns, id))
}

func (r *SQLiteReminderRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE active = 0 AND updated_at < ?`,
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReminder(row rowScanner) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	var (
		triggerAt, createdAt, updatedAt int64
		kind, expr, parent              sql.NullString
	)
	err := row.Scan(&reminder.ID, &reminder.ShortID, &reminder.OwnerID, &reminder.OwnerName, &reminder.CommunityID,
		&reminder.DestinationID, &reminder.Message, &triggerAt, &reminder.OriginalExpression,
		&reminder.Timezone, &kind, &expr, &reminder.Active, &reminder.Fired, &reminder.Snoozed, &reminder.SnoozeCount,
		&parent, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if reminder.Repeat, err = cadenceFromColumns(strPtr(kind), strPtr(expr)); err != nil {
		return nil, err
	}
	reminder.ParentID = strPtr(parent)
	reminder.TriggerAt = time.UnixMilli(triggerAt).UTC()
	reminder.CreatedAt = time.UnixMilli(createdAt).UTC()
	reminder.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return reminder, nil
}

func collectSQLiteReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanSQLiteReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func isSQLiteShortIDCollision(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(se.Error(), "reminders.short_id")
}

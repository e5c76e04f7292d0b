package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Kishanx08/ticket-master/internal/models"
)

// SQLiteUserSettingsRepository is the embedded SettingsStore.
type SQLiteUserSettingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteUserSettingsRepository(db *sql.DB) *SQLiteUserSettingsRepository {
	return &SQLiteUserSettingsRepository{db: db, now: time.Now}
}

func (r *SQLiteUserSettingsRepository) Get(ctx context.Context, userID int64) (*models.UserSettings, bool, error) {
	settings := &models.UserSettings{}
	var updated int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, timezone, updated_at FROM user_settings WHERE user_id = ?`,
		userID,
	).Scan(&settings.UserID, &settings.Timezone, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	settings.UpdatedAt = time.UnixMilli(updated).UTC()
	return settings, true, nil
}

func (r *SQLiteUserSettingsRepository) SetTimezone(ctx context.Context, userID int64, zone string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, timezone, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET timezone = excluded.timezone, updated_at = excluded.updated_at`,
		userID, zone, r.now().UnixMilli(),
	)
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Kishanx08/ticket-master/internal/database"
	"github.com/Kishanx08/ticket-master/internal/models"
)

// UserSettingsRepository is the PostgreSQL SettingsStore.
type UserSettingsRepository struct {
	db *database.DB
}

func NewUserSettingsRepository(db *database.DB) *UserSettingsRepository {
	return &UserSettingsRepository{db: db}
}

func (r *UserSettingsRepository) Get(ctx context.Context, userID int64) (*models.UserSettings, bool, error) {
	settings := &models.UserSettings{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, timezone, updated_at FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&settings.UserID, &settings.Timezone, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	settings.UpdatedAt = settings.UpdatedAt.UTC()
	return settings, true, nil
}

// SetTimezone stores zone for userID. An empty zone clears the override.
func (r *UserSettingsRepository) SetTimezone(ctx context.Context, userID int64, zone string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, timezone, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET timezone = EXCLUDED.timezone, updated_at = NOW()`,
		userID, zone,
	)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteCommunityRepository is the embedded CommunityStore.
type SQLiteCommunityRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteCommunityRepository(db *sql.DB) *SQLiteCommunityRepository {
	return &SQLiteCommunityRepository{db: db, now: time.Now}
}

func (r *SQLiteCommunityRepository) FallbackChat(ctx context.Context, communityID int64) (int64, bool, error) {
	var chatID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT fallback_chat_id FROM communities WHERE community_id = ?`,
		communityID,
	).Scan(&chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return chatID, true, nil
}

func (r *SQLiteCommunityRepository) SetFallbackChat(ctx context.Context, communityID, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO communities (community_id, fallback_chat_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(community_id) DO UPDATE SET fallback_chat_id = excluded.fallback_chat_id, updated_at = excluded.updated_at`,
		communityID, chatID, r.now().UnixMilli(),
	)
	return err
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Kishanx08/ticket-master/internal/database"
)

// CommunityRepository is the PostgreSQL CommunityStore.
type CommunityRepository struct {
	db *database.DB
}

func NewCommunityRepository(db *database.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

func (r *CommunityRepository) FallbackChat(ctx context.Context, communityID int64) (int64, bool, error) {
	var chatID int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT fallback_chat_id FROM communities WHERE community_id = $1`,
		communityID,
	).Scan(&chatID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return chatID, true, nil
}

func (r *CommunityRepository) SetFallbackChat(ctx context.Context, communityID, chatID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO communities (community_id, fallback_chat_id, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (community_id) DO UPDATE SET fallback_chat_id = EXCLUDED.fallback_chat_id, updated_at = NOW()`,
		communityID, chatID,
	)
	return err
}

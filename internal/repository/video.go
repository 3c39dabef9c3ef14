package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/reelway/media-server-go/internal/model"
)

type VideoRepository interface {
	FindByID(ctx context.Context, id string) (*model.Video, error)
}

type videoRepo struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) VideoRepository {
	return &videoRepo{db: db}
}

func (r *videoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	return getOne[model.Video](ctx, r.db, `
		SELECT id, title, playback_id, premium, created_at FROM videos WHERE id = $1
	`, id)
}

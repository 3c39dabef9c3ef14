package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/reelway/media-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type userRepo struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return getOne[model.User](ctx, r.db, `
		SELECT id, name, email, created_at FROM users WHERE id = $1
	`, id)
}
